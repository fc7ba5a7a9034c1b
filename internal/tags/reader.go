// Package tags turns audio files into ingest items by reading their embedded
// tags. When a file has no usable tags the file name and parent directory
// are used instead.
package tags

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/util"
)

// Read extracts ingest metadata from one audio file. Missing fields are left
// empty; the catalogue rejects items without title, artist or album.
func Read(path string) (catalog.IngestItem, error) {
	item := catalog.IngestItem{SourcePath: path}

	f, err := util.RetryWithBackoff(nil, func() (*os.File, error) {
		return os.Open(path)
	}, "open "+path)
	if err != nil {
		return item, util.NewIOError("open", path, err)
	}
	defer f.Close()

	if m, err := tag.ReadFrom(f); err == nil {
		fillFromTags(&item.Metadata, m)
	} else {
		util.DebugLog("No usable tags in %s (%v), using file name", path, err)
	}

	fillFromPath(&item.Metadata, path)

	if d, err := ProbeDuration(path); err == nil {
		item.DurationSecs = d
	} else if !errors.Is(err, util.ErrNotFound) {
		util.DebugLog("No duration for %s: %v", path, err)
	}
	return item, nil
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func fillFromTags(md *catalog.Metadata, m tag.Metadata) {
	md.Title = clean(m.Title())
	md.Artist = clean(m.Artist())
	if md.Artist == "" {
		md.Artist = clean(m.AlbumArtist())
	}
	md.Album = clean(m.Album())

	if y := m.Year(); y > 0 && y <= 0xFFFF {
		md.Year = uint16(y)
	}
	if track, _ := m.Track(); track > 0 && track <= 0xFFFF {
		md.TrackNumber = uint16(track)
	}
}

// fillFromPath fills whatever the tags left empty. "Artist - Title.ext"
// gives both fields; otherwise the stem is the title. The album falls back
// to the parent directory name.
func fillFromPath(md *catalog.Metadata, path string) {
	base := filepath.Base(path)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))

	artist, title := "", stem
	if parts := strings.SplitN(stem, " - ", 2); len(parts) == 2 {
		artist, title = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}

	if md.Title == "" {
		md.Title = title
	}
	if md.Artist == "" {
		md.Artist = artist
	}
	if md.Album == "" {
		dir := filepath.Base(filepath.Dir(path))
		if dir != "." && dir != string(filepath.Separator) {
			md.Album = dir
		}
	}
}
