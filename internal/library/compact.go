package library

import (
	"fmt"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/util"
)

// Compact rebuilds the catalogue without deleted songs and rewrites every
// playlist through the resulting id map.
//
// Everything is computed before the first write: the new catalogue, the
// discarded blobs and the new content of every playlist. A corrupt playlist
// fails the call with nothing written. Once writing starts there is no
// rollback.
func (l *Library) Compact() (*catalog.CompactResult, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	plan, err := l.catalog.PlanCompaction()
	if err != nil {
		return nil, err
	}
	rewrites, err := l.playlists.PlanRemap(plan.IDMap)
	if err != nil {
		return nil, err
	}

	res, err := plan.Commit()
	if err != nil {
		return nil, err
	}

	res.PlaylistsUpdated, err = l.playlists.ApplyRewrites(rewrites)
	if err != nil {
		return nil, fmt.Errorf("catalogue compacted but playlist rewrite failed: %w", err)
	}
	util.DebugLog("Rewrote %d playlists after compaction", res.PlaylistsUpdated)
	return res, nil
}
