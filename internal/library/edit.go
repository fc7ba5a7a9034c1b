package library

import (
	"fmt"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/util"
)

// Edit applies song edits and then points every playlist that referenced an
// edited song at its new id
func (l *Library) Edit(edits []catalog.SongEdit) (*catalog.EditResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.edit(edits)
}

func (l *Library) edit(edits []catalog.SongEdit) (*catalog.EditResult, error) {
	res, err := l.catalog.Edit(edits)
	if err != nil {
		return nil, err
	}
	if len(res.Edits) == 0 {
		return res, nil
	}

	updated, skipped, err := l.playlists.ReplaceSongIDs(res.IDMap())
	res.PlaylistsUpdated = updated
	res.PlaylistsSkipped = skipped
	if err != nil {
		return res, fmt.Errorf("catalogue edited but playlist remap failed: %w", err)
	}
	if updated > 0 {
		util.InfoLog("Updated %d playlists for %d edited songs", updated, len(res.Edits))
	}
	if len(skipped) > 0 {
		util.WarnLog("%d unreadable playlists were not updated and may point at old song ids: %v", len(skipped), skipped)
	}
	return res, nil
}

// AlbumEdit is the new identity of an album. Empty Artist keeps the current
// artist; zero Year keeps the current year.
type AlbumEdit struct {
	Name   string
	Artist string
	Year   uint16
}

// EditAlbum moves every active song of an album to the album described by
// the edit. Titles, track numbers and durations are kept.
func (l *Library) EditAlbum(albumID uint32, e AlbumEdit) (*catalog.EditResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	v, err := l.catalog.View()
	if err != nil {
		return nil, err
	}
	if int(albumID) >= len(v.Albums) {
		return nil, fmt.Errorf("album %d: %w", albumID, util.ErrNotFound)
	}
	album := v.Albums[albumID]

	artist := e.Artist
	if artist == "" {
		artist = album.ArtistName
	}
	year := e.Year
	if year == 0 {
		year = album.Year
	}

	var edits []catalog.SongEdit
	for _, s := range v.Songs {
		if s.AlbumID != albumID {
			continue
		}
		edits = append(edits, catalog.SongEdit{
			SongID: s.ID,
			Metadata: catalog.Metadata{
				Title:        s.Title,
				Artist:       artist,
				Album:        e.Name,
				Year:         year,
				TrackNumber:  s.TrackNumber,
				DurationSecs: s.DurationSecs,
			},
		})
	}
	return l.edit(edits)
}

// EditArtist renames an artist by moving every active song to an artist of
// the new name, keeping album names and years
func (l *Library) EditArtist(artistID uint32, name string) (*catalog.EditResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	v, err := l.catalog.View()
	if err != nil {
		return nil, err
	}
	if int(artistID) >= len(v.Artists) {
		return nil, fmt.Errorf("artist %d: %w", artistID, util.ErrNotFound)
	}

	var edits []catalog.SongEdit
	for _, s := range v.Songs {
		if s.ArtistID != artistID {
			continue
		}
		edits = append(edits, catalog.SongEdit{
			SongID: s.ID,
			Metadata: catalog.Metadata{
				Title:        s.Title,
				Artist:       name,
				Album:        s.Album,
				Year:         v.Albums[s.AlbumID].Year,
				TrackNumber:  s.TrackNumber,
				DurationSecs: s.DurationSecs,
			},
		})
	}
	return l.edit(edits)
}
