package catalog

import (
	"fmt"

	"github.com/franz/jp3-organiser/internal/binfmt"
	"github.com/franz/jp3-organiser/internal/util"
)

// Ingest appends the items as new active songs. Items missing metadata are
// reported in Failures and skipped. An item matching an active song (or an
// item earlier in the batch) on exact title, artist and album is counted as a
// duplicate: no blob is copied and no row is added.
//
// The catalogue is rewritten once at the end. A blob placement failure aborts
// the call before the rewrite; blobs already placed by the call are left on
// disk and logged.
func (s *Store) Ingest(items []IngestItem) (*IngestResult, error) {
	c, err := s.Open()
	if err != nil {
		return nil, err
	}
	if c.Header.SongCount == 0 {
		// An empty song table starts a fresh generation
		c = newCatalog()
	}

	result := &IngestResult{}
	active := c.activeSongs()
	seenAlbums := make(map[uint32]bool)
	var placed []string

	for i, item := range items {
		if err := item.validate(); err != nil {
			util.WarnLog("Skipping %s: %v", item.SourcePath, err)
			result.Failures = append(result.Failures, ItemFailure{Index: i, SourcePath: item.SourcePath, Err: err})
			continue
		}

		artistID, created, err := c.resolveArtist(item.Artist)
		if err != nil {
			return nil, err
		}
		if created {
			result.ArtistsAdded++
		}

		albumID, created, err := c.resolveAlbum(artistID, item.Album, item.Year)
		if err != nil {
			return nil, err
		}
		if created {
			result.AlbumsAdded++
		}
		if !seenAlbums[albumID] {
			seenAlbums[albumID] = true
			result.AlbumIDs = append(result.AlbumIDs, albumID)
		}

		if dup, ok := c.findDuplicate(active, item.Title, artistID, albumID); ok {
			util.DebugLog("Duplicate of song %d: %s - %s", dup, item.Artist, item.Title)
			result.DuplicatesSkipped++
			result.DuplicateSongIDs = append(result.DuplicateSongIDs, dup)
			continue
		}

		rel, err := s.Blobs.Place(item.SourcePath)
		if err != nil {
			if len(placed) > 0 {
				util.WarnLog("Ingest aborted; %d blobs placed by this batch are not catalogued: %v", len(placed), placed)
			}
			return nil, fmt.Errorf("place %s: %w", item.SourcePath, err)
		}
		placed = append(placed, rel)
		result.FilesSaved++

		songID, err := c.appendSong(item.Metadata, artistID, albumID, rel)
		if err != nil {
			return nil, err
		}
		row := c.Songs[songID]
		active[songKey{titleID: row.TitleID, artistID: artistID, albumID: albumID}] = songID

		result.SongsAdded++
		result.SongIDs = append(result.SongIDs, songID)
	}

	if result.SongsAdded > 0 {
		if err := s.write(c); err != nil {
			return nil, err
		}
	}

	util.InfoLog("Ingested %d songs (%d duplicates, %d failed, %d new artists, %d new albums)",
		result.SongsAdded, result.DuplicatesSkipped, len(result.Failures), result.ArtistsAdded, result.AlbumsAdded)
	return result, nil
}

// appendSong appends an active row for an already resolved artist and album
func (c *Catalog) appendSong(m Metadata, artistID, albumID uint32, path string) (uint32, error) {
	titleID, err := c.Strings.Intern(m.Title)
	if err != nil {
		return 0, err
	}
	pathID, err := c.Strings.Intern(path)
	if err != nil {
		return 0, err
	}
	return c.appendRow(binfmt.SongRecord{
		TitleID:     titleID,
		ArtistID:    artistID,
		AlbumID:     albumID,
		PathID:      pathID,
		TrackNumber: m.TrackNumber,
		DurationSec: m.DurationSecs,
		Flags:       binfmt.FlagActive,
	}), nil
}

func (c *Catalog) appendRow(r binfmt.SongRecord) uint32 {
	id := uint32(len(c.Songs))
	c.Songs = append(c.Songs, r)
	return id
}
