package catalog

import (
	"os"

	"github.com/franz/jp3-organiser/internal/binfmt"
	"github.com/franz/jp3-organiser/internal/util"
)

// Delete soft-deletes songs by writing the single flag byte of each row, then
// removes their blobs. Unknown ids go to NotFound and ids that are already
// deleted go to AlreadyDeleted. The string pool, other rows and playlists are
// not touched. If a blob cannot be removed the flags stay written and the
// result so far is returned with the error.
func (s *Store) Delete(ids []uint32) (*DeleteResult, error) {
	c, err := s.Open()
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{}
	var targets []uint32
	for _, id := range ids {
		switch {
		case int(id) >= len(c.Songs):
			result.NotFound = append(result.NotFound, id)
		case c.Songs[id].Deleted():
			result.AlreadyDeleted = append(result.AlreadyDeleted, id)
		default:
			c.Songs[id].Flags = binfmt.FlagDeleted
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return result, nil
	}

	if err := s.flagDeleted(c.Header, targets); err != nil {
		return nil, err
	}
	result.SongsDeleted = len(targets)
	result.DeletedIDs = targets

	for _, id := range targets {
		row := c.Songs[id]
		if c.pathShared(row.PathID, id) {
			continue
		}
		removed, err := s.Blobs.Remove(c.str(row.PathID))
		if err != nil {
			util.WarnLog("Deleted %d songs but stopped removing blobs after %d: %v",
				result.SongsDeleted, result.FilesDeleted, err)
			return result, err
		}
		if removed {
			result.FilesDeleted++
		}
	}

	util.InfoLog("Deleted %d songs (%d blobs removed, %d not found, %d already deleted)",
		result.SongsDeleted, result.FilesDeleted, len(result.NotFound), len(result.AlreadyDeleted))
	return result, nil
}

// flagDeleted writes FlagDeleted into each row's flag byte and syncs once
func (s *Store) flagDeleted(h binfmt.Header, ids []uint32) error {
	f, err := s.Fs.OpenFile(s.Path, os.O_RDWR, 0)
	if err != nil {
		return util.NewIOError("open", s.Path, err)
	}
	defer f.Close()

	flag := []byte{binfmt.FlagDeleted}
	for _, id := range ids {
		if _, err := f.WriteAt(flag, h.SongFlagOffset(id)); err != nil {
			return util.NewIOError("write", s.Path, err)
		}
		util.DebugLog("Flagged song %d deleted", id)
	}
	if err := f.Sync(); err != nil {
		return util.NewIOError("sync", s.Path, err)
	}
	return nil
}
