// Package library ties the catalogue, blob tree and playlists of one library
// root together. It owns the directory layout and serialises writers: every
// mutating call holds the root's exclusive lock, every read the shared one.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/franz/jp3-organiser/internal/blob"
	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/playlist"
	"github.com/franz/jp3-organiser/internal/util"
)

// Directory layout below the base path
const (
	RootDir     = "jp3"
	MetadataDir = "metadata"
	PlaylistDir = "playlists"
	CatalogFile = "library.bin"
)

var (
	registryMu sync.Mutex
	rootLocks  = make(map[string]*sync.RWMutex)
)

// lockFor returns the process-wide lock of a library root
func lockFor(root string) *sync.RWMutex {
	key := filepath.Clean(root)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	l, ok := rootLocks[key]
	if !ok {
		l = &sync.RWMutex{}
		rootLocks[key] = l
	}
	return l
}

// RootPath returns the library root for a base path
func RootPath(base string) string {
	return filepath.Join(base, RootDir)
}

// Options configures Open
type Options struct {
	// Fs defaults to the OS filesystem
	Fs afero.Fs
}

func (o Options) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

// Library is an opened library root
type Library struct {
	Root string

	fs        afero.Fs
	lock      *sync.RWMutex
	catalog   *catalog.Store
	playlists *playlist.Store
	blobs     *blob.Store
}

// Initialize creates the directory structure under base and returns the
// library root. Existing directories and files are left alone.
func Initialize(base string, opts Options) (string, error) {
	fs := opts.fs()
	root := RootPath(base)
	for _, dir := range []string{blob.MusicDir, MetadataDir, PlaylistDir} {
		p := filepath.Join(root, dir)
		if err := fs.MkdirAll(p, 0755); err != nil {
			return "", util.NewIOError("mkdir", p, err)
		}
	}
	util.InfoLog("Initialized library at %s", root)
	return root, nil
}

// Open opens an initialized library under base
func Open(base string, opts Options) (*Library, error) {
	fs := opts.fs()
	root := RootPath(base)
	for _, dir := range []string{blob.MusicDir, MetadataDir, PlaylistDir} {
		ok, err := afero.DirExists(fs, filepath.Join(root, dir))
		if err != nil {
			return nil, util.NewIOError("stat", filepath.Join(root, dir), err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: missing %s directory: %w", root, dir, util.ErrNotInitialized)
		}
	}

	blobs := blob.New(fs, root)
	return &Library{
		Root:      root,
		fs:        fs,
		lock:      lockFor(root),
		blobs:     blobs,
		catalog:   catalog.New(fs, filepath.Join(root, MetadataDir, CatalogFile), blobs),
		playlists: playlist.New(fs, filepath.Join(root, PlaylistDir)),
	}, nil
}

// Info describes a library root on disk
type Info struct {
	Root         string
	Initialized  bool
	HasCatalog   bool
	MusicBuckets int
}

// GetInfo inspects base without requiring it to be initialized
func GetInfo(base string, opts Options) (*Info, error) {
	fs := opts.fs()
	root := RootPath(base)
	info := &Info{Root: root}

	ok, err := afero.DirExists(fs, root)
	if err != nil {
		return nil, util.NewIOError("stat", root, err)
	}
	if !ok {
		return info, nil
	}
	info.Initialized = true

	if _, err := fs.Stat(filepath.Join(root, MetadataDir, CatalogFile)); err == nil {
		info.HasCatalog = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, util.NewIOError("stat", filepath.Join(root, MetadataDir, CatalogFile), err)
	}

	info.MusicBuckets, err = blob.New(fs, root).BucketCount()
	if err != nil {
		return nil, err
	}
	return info, nil
}

// BlobPath returns the filesystem path of a song's blob path
func (l *Library) BlobPath(rel string) (string, error) {
	return l.blobs.Path(rel)
}

// Ingest adds songs to the catalogue
func (l *Library) Ingest(items []catalog.IngestItem) (*catalog.IngestResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.catalog.Ingest(items)
}

// Delete soft-deletes songs and removes their blobs
func (l *Library) Delete(ids []uint32) (*catalog.DeleteResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.catalog.Delete(ids)
}

// DeleteAlbum deletes every active song on an album
func (l *Library) DeleteAlbum(albumID uint32) (*catalog.DeleteResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	c, err := l.catalog.Open()
	if err != nil {
		return nil, err
	}
	if int(albumID) >= len(c.Albums) {
		return nil, fmt.Errorf("album %d: %w", albumID, util.ErrNotFound)
	}
	return l.catalog.Delete(c.SongsByAlbum(albumID))
}

// DeleteArtist deletes every active song by an artist
func (l *Library) DeleteArtist(artistID uint32) (*catalog.DeleteResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	c, err := l.catalog.Open()
	if err != nil {
		return nil, err
	}
	if int(artistID) >= len(c.Artists) {
		return nil, fmt.Errorf("artist %d: %w", artistID, util.ErrNotFound)
	}
	return l.catalog.Delete(c.SongsByArtist(artistID))
}

// Stats reports catalogue counts
func (l *Library) Stats() (*catalog.Stats, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.catalog.Stats()
}

// View resolves the catalogue contents
func (l *Library) View() (*catalog.View, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.catalog.View()
}
