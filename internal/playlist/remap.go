package playlist

import (
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/franz/jp3-organiser/internal/util"
)

// ReplaceSongIDs rewrites, in place, every occurrence of an old id in the
// map with its new id. Order and repeats are kept. Only playlists that
// contained an old id are written; the count of those is returned.
// Unreadable playlists are left untouched and their ids returned in skipped.
func (s *Store) ReplaceSongIDs(replace map[uint32]uint32) (updated int, skipped []uint32, err error) {
	if len(replace) == 0 {
		return 0, nil, nil
	}
	ids, err := s.ids()
	if err != nil {
		return 0, nil, err
	}

	for _, id := range ids {
		pl, err := s.Load(id)
		if err != nil {
			util.WarnLog("Skipping playlist %d: %v", id, err)
			skipped = append(skipped, id)
			continue
		}
		changed := false
		for i, sid := range pl.SongIDs {
			if to, ok := replace[sid]; ok {
				pl.SongIDs[i] = to
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := s.save(pl); err != nil {
			return updated, skipped, err
		}
		updated++
	}
	return updated, skipped, nil
}

// ReplaceSongID replaces one id; see ReplaceSongIDs
func (s *Store) ReplaceSongID(oldID, newID uint32) (int, []uint32, error) {
	return s.ReplaceSongIDs(map[uint32]uint32{oldID: newID})
}

// Rewrite is the new content of one playlist after an id remap
type Rewrite struct {
	Playlist
	Dropped int
}

// PlanRemap reads every playlist and translates its ids through idMap.
// Ids with no entry are dropped; order is kept for the rest. Any playlist
// that cannot be read fails the whole plan, so nothing is written for a
// remap that cannot complete.
func (s *Store) PlanRemap(idMap map[uint32]uint32) ([]Rewrite, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}

	rewrites := make([]Rewrite, 0, len(ids))
	for _, id := range ids {
		pl, err := s.Load(id)
		if err != nil {
			return nil, fmt.Errorf("plan playlist remap: %w", err)
		}
		rw := Rewrite{Playlist: Playlist{ID: pl.ID, Name: pl.Name, SongIDs: make([]uint32, 0, len(pl.SongIDs))}}
		for _, sid := range pl.SongIDs {
			if to, ok := idMap[sid]; ok {
				rw.SongIDs = append(rw.SongIDs, to)
			} else {
				rw.Dropped++
			}
		}
		rewrites = append(rewrites, rw)
	}
	return rewrites, nil
}

// ApplyRewrites writes every planned playlist in parallel and returns how
// many were written
func (s *Store) ApplyRewrites(rewrites []Rewrite) (int, error) {
	p := pool.New().WithErrors().WithMaxGoroutines(runtime.GOMAXPROCS(0))
	for i := range rewrites {
		rw := &rewrites[i]
		p.Go(func() error {
			if err := s.save(&rw.Playlist); err != nil {
				return fmt.Errorf("rewrite playlist %d: %w", rw.ID, err)
			}
			if rw.Dropped > 0 {
				util.DebugLog("Playlist %d: dropped %d removed songs", rw.ID, rw.Dropped)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return 0, err
	}
	return len(rewrites), nil
}
