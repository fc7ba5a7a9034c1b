package catalog

import (
	"github.com/franz/jp3-organiser/internal/binfmt"
	"github.com/franz/jp3-organiser/internal/util"
)

// Edit replaces the metadata of songs. Each edited row is tombstoned and a
// new row is appended that points at the same blob; the new row gets a fresh
// id. Artists and albums are created only when the new names do not resolve;
// a non-zero year is written to an album that already exists. Songs whose
// row would not change keep their id and are listed in Unchanged.
// The catalogue is rewritten once. Playlists are not touched here.
func (s *Store) Edit(edits []SongEdit) (*EditResult, error) {
	c, err := s.Open()
	if err != nil {
		return nil, err
	}

	result := &EditResult{}
	for i, e := range edits {
		switch {
		case int(e.SongID) >= len(c.Songs):
			result.NotFound = append(result.NotFound, e.SongID)
			continue
		case c.Songs[e.SongID].Deleted():
			result.AlreadyDeleted = append(result.AlreadyDeleted, e.SongID)
			continue
		}
		if err := e.validate(); err != nil {
			result.Failures = append(result.Failures, ItemFailure{Index: i, SongID: e.SongID, Err: err})
			continue
		}

		outcome, albumUpdated, changed, err := c.applyEdit(e)
		if err != nil {
			return nil, err
		}
		if albumUpdated {
			result.AlbumsUpdated++
		}
		if !changed {
			result.Unchanged = append(result.Unchanged, e.SongID)
			continue
		}
		result.Edits = append(result.Edits, outcome)
	}

	if len(result.Edits) > 0 || result.AlbumsUpdated > 0 {
		if err := s.write(c); err != nil {
			return nil, err
		}
	}

	util.InfoLog("Edited %d songs (%d unchanged, %d albums updated, %d not found, %d already deleted, %d invalid)",
		len(result.Edits), len(result.Unchanged), result.AlbumsUpdated,
		len(result.NotFound), len(result.AlreadyDeleted), len(result.Failures))
	return result, nil
}

// applyEdit tombstones the song and appends its replacement. A year given
// for an album that already exists is written to that album. changed is
// false when the replacement row would equal the current one; the song is
// then left alone.
func (c *Catalog) applyEdit(e SongEdit) (outcome EditOutcome, albumUpdated, changed bool, err error) {
	old := c.Songs[e.SongID]

	artistID, artistCreated, err := c.resolveArtist(e.Artist)
	if err != nil {
		return EditOutcome{}, false, false, err
	}

	year := e.Year
	if year == 0 {
		year = c.Albums[old.AlbumID].Year
	}
	albumID, albumCreated, err := c.resolveAlbum(artistID, e.Album, year)
	if err != nil {
		return EditOutcome{}, false, false, err
	}
	if !albumCreated && e.Year != 0 && c.Albums[albumID].Year != e.Year {
		util.DebugLog("Album %d year %d -> %d", albumID, c.Albums[albumID].Year, e.Year)
		c.Albums[albumID].Year = e.Year
		albumUpdated = true
	}

	row := binfmt.SongRecord{
		ArtistID:    artistID,
		AlbumID:     albumID,
		PathID:      old.PathID,
		TrackNumber: e.TrackNumber,
		DurationSec: e.DurationSecs,
		Flags:       binfmt.FlagActive,
	}
	if row.TrackNumber == 0 {
		row.TrackNumber = old.TrackNumber
	}
	if row.DurationSec == 0 {
		row.DurationSec = old.DurationSec
	}
	if titleID, ok := c.Strings.Peek(e.Title); ok {
		row.TitleID = titleID
		if row == old {
			return EditOutcome{}, albumUpdated, false, nil
		}
	} else if row.TitleID, err = c.Strings.Intern(e.Title); err != nil {
		return EditOutcome{}, false, false, err
	}

	c.Songs[e.SongID].Flags = binfmt.FlagDeleted
	newID := c.appendRow(row)

	util.DebugLog("Edited song %d -> %d: %s - %s", e.SongID, newID, e.Artist, e.Title)
	return EditOutcome{
		OldID:         e.SongID,
		NewID:         newID,
		ArtistCreated: artistCreated,
		AlbumCreated:  albumCreated,
	}, albumUpdated, true, nil
}
