package library

import (
	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/playlist"
)

// SaveToPlaylist ingests items and creates a playlist holding the resulting
// songs: newly added ones first, then existing songs the items duplicated.
// No playlist is created when the batch yields no songs. The name is checked
// before anything is ingested.
func (l *Library) SaveToPlaylist(name string, items []catalog.IngestItem) (*catalog.IngestResult, uint32, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if _, err := l.playlists.CheckName(name); err != nil {
		return nil, 0, err
	}

	res, err := l.catalog.Ingest(items)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[uint32]bool)
	var ids []uint32
	for _, group := range [][]uint32{res.SongIDs, res.DuplicateSongIDs} {
		for _, id := range group {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return res, 0, nil
	}

	plID, err := l.playlists.Create(name, ids)
	if err != nil {
		return res, 0, err
	}
	return res, plID, nil
}

// CreatePlaylist creates a playlist
func (l *Library) CreatePlaylist(name string, songIDs []uint32) (uint32, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.playlists.Create(name, songIDs)
}

// LoadPlaylist reads one playlist
func (l *Library) LoadPlaylist(id uint32) (*playlist.Playlist, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.playlists.Load(id)
}

// ListPlaylists summarises every playlist
func (l *Library) ListPlaylists() ([]playlist.Summary, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.playlists.List()
}

// RenamePlaylist renames a playlist
func (l *Library) RenamePlaylist(id uint32, name string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.playlists.Rename(id, name)
}

// AddToPlaylist appends songs not already present
func (l *Library) AddToPlaylist(id uint32, songIDs []uint32) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.playlists.AddSongs(id, songIDs)
}

// RemoveFromPlaylist drops songs from a playlist
func (l *Library) RemoveFromPlaylist(id uint32, songIDs []uint32) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.playlists.RemoveSongs(id, songIDs)
}

// DeletePlaylist removes a playlist by id
func (l *Library) DeletePlaylist(id uint32) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.playlists.Delete(id)
}

// DeletePlaylistByName removes the playlist with exactly this name
func (l *Library) DeletePlaylistByName(name string) (bool, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.playlists.DeleteByName(name)
}
