// Package playlist manages the playlist files of a library. Each playlist is
// playlists/<id>.bin and holds a name and an ordered list of song ids.
// Song ids are weak references: nothing here checks them against the
// catalogue.
package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/franz/jp3-organiser/internal/binfmt"
	"github.com/franz/jp3-organiser/internal/util"
)

const fileExt = ".bin"

// Playlist is a decoded playlist file
type Playlist struct {
	ID      uint32
	Name    string
	SongIDs []uint32
}

// Summary is the listing entry for a playlist
type Summary struct {
	ID        uint32
	Name      string
	SongCount int
}

// Store is the playlist directory of one library
type Store struct {
	Fs  afero.Fs
	Dir string
}

// New creates a store for the playlist directory
func New(fs afero.Fs, dir string) *Store {
	return &Store{Fs: fs, Dir: dir}
}

func (s *Store) path(id uint32) string {
	return filepath.Join(s.Dir, strconv.FormatUint(uint64(id), 10)+fileExt)
}

// ids returns the ids of all playlist files, ascending
func (s *Store) ids() ([]uint32, error) {
	entries, err := afero.ReadDir(s.Fs, s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, util.NewIOError("read", s.Dir, err)
	}

	var ids []uint32
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(e.Name(), fileExt), 10, 32)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, uint32(n))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// nextID returns one more than the highest existing id; the first id is 1
func (s *Store) nextID() (uint32, error) {
	ids, err := s.ids()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 1, nil
	}
	return ids[len(ids)-1] + 1, nil
}

// Load reads one playlist
func (s *Store) Load(id uint32) (*Playlist, error) {
	p := s.path(id)
	data, ok, err := util.ReadFileIfExists(s.Fs, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("playlist %d: %w", id, util.ErrNotFound)
	}

	name, songIDs, err := binfmt.DecodePlaylist(data)
	if err != nil {
		return nil, fmt.Errorf("load playlist %s: %w", p, err)
	}
	return &Playlist{ID: id, Name: name, SongIDs: songIDs}, nil
}

func (s *Store) save(pl *Playlist) error {
	data, err := binfmt.EncodePlaylist(pl.Name, pl.SongIDs)
	if err != nil {
		return err
	}
	if err := util.WriteFileSynced(s.Fs, s.path(pl.ID), data); err != nil {
		return err
	}
	util.DebugLog("Wrote playlist %d %q (%d songs)", pl.ID, pl.Name, len(pl.SongIDs))
	return nil
}

// List returns a summary of every readable playlist, sorted by name without
// regard to case. Unreadable files are skipped with a warning.
func (s *Store) List() ([]Summary, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		pl, err := s.Load(id)
		if err != nil {
			util.WarnLog("Skipping playlist %d: %v", id, err)
			continue
		}
		out = append(out, Summary{ID: pl.ID, Name: pl.Name, SongCount: len(pl.SongIDs)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// foldName is the key two playlist names are compared under
func foldName(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}

// cleanName trims the name and rejects empty or oversized names
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("playlist name is empty: %w", util.ErrValidation)
	}
	if len(name) > binfmt.MaxStringLen {
		return "", fmt.Errorf("playlist name is %d bytes: %w", len(name), util.ErrValidation)
	}
	return name, nil
}

// checkUnique fails if another playlist already uses the name
func (s *Store) checkUnique(name string, except uint32) error {
	summaries, err := s.List()
	if err != nil {
		return err
	}
	key := foldName(name)
	for _, sum := range summaries {
		if sum.ID != except && foldName(sum.Name) == key {
			return fmt.Errorf("playlist %q already exists (id %d): %w", sum.Name, sum.ID, util.ErrConflict)
		}
	}
	return nil
}

// CheckName returns the cleaned name if a new playlist could be created
// under it, without writing anything
func (s *Store) CheckName(name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := s.checkUnique(name, 0); err != nil {
		return "", err
	}
	return name, nil
}

// Create writes a new playlist and returns its id
func (s *Store) Create(name string, songIDs []uint32) (uint32, error) {
	name, err := s.CheckName(name)
	if err != nil {
		return 0, err
	}
	if err := s.Fs.MkdirAll(s.Dir, 0755); err != nil {
		return 0, util.NewIOError("mkdir", s.Dir, err)
	}

	id, err := s.nextID()
	if err != nil {
		return 0, err
	}
	pl := &Playlist{ID: id, Name: name, SongIDs: append([]uint32(nil), songIDs...)}
	if err := s.save(pl); err != nil {
		return 0, err
	}
	util.InfoLog("Created playlist %d %q with %d songs", id, name, len(songIDs))
	return id, nil
}

// Rename changes a playlist's name. The new name is trimmed and must not
// match another playlist's name ignoring case.
func (s *Store) Rename(id uint32, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	pl, err := s.Load(id)
	if err != nil {
		return err
	}
	if err := s.checkUnique(name, id); err != nil {
		return err
	}
	pl.Name = name
	return s.save(pl)
}

// AddSongs appends the ids not already in the playlist, keeping request
// order and dropping repeats within the request. It returns how many were
// added.
func (s *Store) AddSongs(id uint32, songIDs []uint32) (int, error) {
	pl, err := s.Load(id)
	if err != nil {
		return 0, err
	}

	present := make(map[uint32]bool, len(pl.SongIDs))
	for _, sid := range pl.SongIDs {
		present[sid] = true
	}
	added := 0
	for _, sid := range songIDs {
		if present[sid] {
			continue
		}
		present[sid] = true
		pl.SongIDs = append(pl.SongIDs, sid)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.save(pl)
}

// RemoveSongs drops every occurrence of the given ids and returns how many
// entries were removed
func (s *Store) RemoveSongs(id uint32, songIDs []uint32) (int, error) {
	pl, err := s.Load(id)
	if err != nil {
		return 0, err
	}

	drop := make(map[uint32]bool, len(songIDs))
	for _, sid := range songIDs {
		drop[sid] = true
	}
	kept := pl.SongIDs[:0]
	for _, sid := range pl.SongIDs {
		if !drop[sid] {
			kept = append(kept, sid)
		}
	}
	removed := len(pl.SongIDs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	pl.SongIDs = kept
	return removed, s.save(pl)
}

// Delete removes a playlist file
func (s *Store) Delete(id uint32) error {
	p := s.path(id)
	if err := s.Fs.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("playlist %d: %w", id, util.ErrNotFound)
		}
		return util.NewIOError("remove", p, err)
	}
	util.InfoLog("Deleted playlist %d", id)
	return nil
}

// DeleteByName removes the first playlist whose name matches exactly.
// It reports whether one was found.
func (s *Store) DeleteByName(name string) (bool, error) {
	ids, err := s.ids()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		pl, err := s.Load(id)
		if err != nil {
			util.WarnLog("Skipping playlist %d: %v", id, err)
			continue
		}
		if pl.Name == name {
			return true, s.Delete(id)
		}
	}
	return false, nil
}
