// Package blob places ingested audio files into the bucketed music tree.
//
// Blobs live at music/<bucket>/<index><ext> below the library root, with at
// most BucketCapacity files per bucket. The catalogue records them relative
// to the music directory, e.g. "00/001.mp3". Placement looks only at what is on
// disk, never at the catalogue.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/franz/jp3-organiser/internal/util"
)

const (
	// BucketCapacity is the maximum number of blobs in one bucket
	BucketCapacity = 256

	// MusicDir is the blob tree directory below the library root
	MusicDir = "music"

	partSuffix = ".part"
	copyBuffer = 128 * 1024
)

// Store manages the blob tree of one library root
type Store struct {
	Fs   afero.Fs
	Root string // library root; blobs live in Root/music
}

// New creates a blob store for the library root
func New(fs afero.Fs, root string) *Store {
	return &Store{Fs: fs, Root: root}
}

func (s *Store) musicDir() string {
	return filepath.Join(s.Root, MusicDir)
}

// Path returns the filesystem path of a blob path as stored in the catalogue,
// e.g. "00/001.mp3". The result always lies below Root/music.
func (s *Store) Path(rel string) (string, error) {
	clean := path.Clean(rel)
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("blob path %q escapes music directory", rel)
	}
	return filepath.Join(s.musicDir(), filepath.FromSlash(clean)), nil
}

// buckets returns the numeric bucket directories, unsorted
func (s *Store) buckets() ([]int, error) {
	entries, err := afero.ReadDir(s.Fs, s.musicDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, util.NewIOError("read", s.musicDir(), err)
	}

	var out []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, ok := parseNumber(e.Name()); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// BucketCount returns the number of bucket directories in the tree
func (s *Store) BucketCount() (int, error) {
	b, err := s.buckets()
	return len(b), err
}

// NextSlot returns the bucket and index the next blob will occupy, creating
// the bucket directory if needed. Indexes start at 1 and continue after the
// highest index present, so a gap left by a removed blob is never refilled.
func (s *Store) NextSlot() (bucket, index int, err error) {
	buckets, err := s.buckets()
	if err != nil {
		return 0, 0, err
	}

	bucket = 0
	for _, b := range buckets {
		if b > bucket {
			bucket = b
		}
	}

	count, maxIndex := 0, 0
	if len(buckets) > 0 {
		count, maxIndex, err = s.scanBucket(bucket)
		if err != nil {
			return 0, 0, err
		}
	}

	index = maxIndex + 1
	if count >= BucketCapacity || index > BucketCapacity {
		bucket++
		index = 1
	}

	dir := filepath.Join(s.musicDir(), bucketName(bucket))
	if err := s.Fs.MkdirAll(dir, 0755); err != nil {
		return 0, 0, util.NewIOError("mkdir", dir, err)
	}
	return bucket, index, nil
}

// scanBucket counts the blobs in a bucket and finds the highest index used.
// Unfinished .part files are ignored.
func (s *Store) scanBucket(bucket int) (count, maxIndex int, err error) {
	dir := filepath.Join(s.musicDir(), bucketName(bucket))
	entries, err := afero.ReadDir(s.Fs, dir)
	if err != nil {
		return 0, 0, util.NewIOError("read", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, partSuffix) {
			continue
		}
		count++
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if n, ok := parseNumber(stem); ok && n > maxIndex {
			maxIndex = n
		}
	}
	return count, maxIndex, nil
}

// Place copies src into the next free slot and returns its relative path.
// The source extension is kept as-is.
func (s *Store) Place(src string) (string, error) {
	bucket, index, err := s.NextSlot()
	if err != nil {
		return "", err
	}

	rel := path.Join(bucketName(bucket), fmt.Sprintf("%03d%s", index, filepath.Ext(src)))
	dest, err := s.Path(rel)
	if err != nil {
		return "", err
	}

	written, err := s.copyFile(src, dest)
	if err != nil {
		return "", err
	}

	util.DebugLog("Placed blob: %s -> %s (%d bytes)", src, rel, written)
	return rel, nil
}

// copyFile copies through a .part file and renames it into place. The
// destination must not exist yet.
func (s *Store) copyFile(srcPath, destPath string) (int64, error) {
	if _, err := s.Fs.Stat(destPath); err == nil {
		return 0, fmt.Errorf("blob %s already exists: %w", destPath, util.ErrConflict)
	}

	src, err := s.Fs.Open(srcPath)
	if err != nil {
		return 0, util.NewIOError("open", srcPath, err)
	}
	defer src.Close()

	tempPath := destPath + partSuffix
	dest, err := s.Fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, util.NewIOError("create", tempPath, err)
	}

	written, err := io.CopyBuffer(dest, src, make([]byte, copyBuffer))
	if err == nil {
		err = dest.Sync()
	}
	if cerr := dest.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.Fs.Remove(tempPath)
		return 0, util.NewIOError("write", tempPath, err)
	}

	if err := s.Fs.Rename(tempPath, destPath); err != nil {
		s.Fs.Remove(tempPath)
		return 0, util.NewIOError("rename", destPath, err)
	}
	return written, nil
}

// Remove deletes a blob. A blob that is already gone is not an error; removed
// reports whether a file was actually deleted.
func (s *Store) Remove(rel string) (removed bool, err error) {
	p, err := s.Path(rel)
	if err != nil {
		return false, err
	}
	if err := s.Fs.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			util.DebugLog("Blob already gone: %s", rel)
			return false, nil
		}
		return false, util.NewIOError("remove", p, err)
	}
	util.DebugLog("Removed blob: %s", rel)
	return true, nil
}

func bucketName(n int) string {
	return fmt.Sprintf("%02d", n)
}

// parseNumber accepts names made only of ASCII digits
func parseNumber(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}
