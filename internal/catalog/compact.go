package catalog

import (
	"fmt"

	"github.com/franz/jp3-organiser/internal/binfmt"
	"github.com/franz/jp3-organiser/internal/strpool"
	"github.com/franz/jp3-organiser/internal/util"
)

// CompactionPlan is a fully computed compaction that has not touched disk.
// Callers use IDMap to prepare dependent rewrites before calling Commit.
type CompactionPlan struct {
	store *Store
	data  []byte
	noop  bool
	done  bool

	// IDMap maps every surviving song's old id to its new id. Deleted songs
	// have no entry.
	IDMap map[uint32]uint32

	// DiscardedBlobs are the paths of deleted songs that no surviving song
	// references
	DiscardedBlobs []string

	Result CompactResult
}

// PlanCompaction builds the compacted catalogue in memory. Surviving songs,
// and the artists and albums they reference, keep their relative order and
// get contiguous ids. The string pool is rebuilt from the surviving rows
// only: artist names, then album names, then each song's title and path.
func (s *Store) PlanCompaction() (*CompactionPlan, error) {
	c, err := s.Open()
	if err != nil {
		return nil, err
	}
	if !c.Exists {
		return &CompactionPlan{store: s, noop: true, IDMap: map[uint32]uint32{}}, nil
	}

	keepAlbum := make([]bool, len(c.Albums))
	keepArtist := make([]bool, len(c.Artists))
	for _, song := range c.Songs {
		if song.Active() {
			keepAlbum[song.AlbumID] = true
			keepArtist[song.ArtistID] = true
		}
	}
	for i, a := range c.Albums {
		if keepAlbum[i] {
			keepArtist[a.ArtistID] = true
		}
	}

	pool := strpool.New()
	intern := func(id uint32) (uint32, error) {
		return pool.Intern(c.str(id))
	}

	artistMap := make(map[uint32]uint32)
	var artists []binfmt.ArtistRecord
	for i, a := range c.Artists {
		if !keepArtist[i] {
			continue
		}
		nameID, err := intern(a.NameID)
		if err != nil {
			return nil, err
		}
		artistMap[uint32(i)] = uint32(len(artists))
		artists = append(artists, binfmt.ArtistRecord{NameID: nameID})
	}

	albumMap := make(map[uint32]uint32)
	var albums []binfmt.AlbumRecord
	for i, a := range c.Albums {
		if !keepAlbum[i] {
			continue
		}
		nameID, err := intern(a.NameID)
		if err != nil {
			return nil, err
		}
		albumMap[uint32(i)] = uint32(len(albums))
		albums = append(albums, binfmt.AlbumRecord{NameID: nameID, ArtistID: artistMap[a.ArtistID], Year: a.Year})
	}

	plan := &CompactionPlan{store: s, IDMap: make(map[uint32]uint32)}
	survivingPaths := make(map[uint32]bool)
	var songs []binfmt.SongRecord
	for i, song := range c.Songs {
		if !song.Active() {
			continue
		}
		titleID, err := intern(song.TitleID)
		if err != nil {
			return nil, err
		}
		pathID, err := intern(song.PathID)
		if err != nil {
			return nil, err
		}
		survivingPaths[song.PathID] = true
		plan.IDMap[uint32(i)] = uint32(len(songs))
		songs = append(songs, binfmt.SongRecord{
			TitleID:     titleID,
			ArtistID:    artistMap[song.ArtistID],
			AlbumID:     albumMap[song.AlbumID],
			PathID:      pathID,
			TrackNumber: song.TrackNumber,
			DurationSec: song.DurationSec,
			Flags:       binfmt.FlagActive,
		})
	}

	discarded := make(map[uint32]bool)
	for _, song := range c.Songs {
		if song.Deleted() && !survivingPaths[song.PathID] && !discarded[song.PathID] {
			discarded[song.PathID] = true
			plan.DiscardedBlobs = append(plan.DiscardedBlobs, c.str(song.PathID))
		}
	}

	plan.data, err = binfmt.EncodeCatalog(&binfmt.Tables{
		Strings: pool.Strings(),
		Artists: artists,
		Albums:  albums,
		Songs:   songs,
	})
	if err != nil {
		return nil, fmt.Errorf("encode compacted catalogue: %w", err)
	}

	plan.Result = CompactResult{
		SongsRemoved:   len(c.Songs) - len(songs),
		ArtistsRemoved: len(c.Artists) - len(artists),
		AlbumsRemoved:  len(c.Albums) - len(albums),
		StringsRemoved: c.Strings.Len() - pool.Len(),
		OldSizeBytes:   c.FileSize,
		NewSizeBytes:   int64(len(plan.data)),
	}
	plan.Result.BytesSaved = plan.Result.OldSizeBytes - plan.Result.NewSizeBytes

	util.DebugLog("Compaction plan: %d -> %d songs, %d -> %d artists, %d -> %d albums, %d blobs to discard",
		len(c.Songs), len(songs), len(c.Artists), len(artists), len(c.Albums), len(albums), len(plan.DiscardedBlobs))
	return plan, nil
}

// Commit writes the compacted catalogue, syncs it, and removes the
// discarded blobs. A plan can be committed once.
func (p *CompactionPlan) Commit() (*CompactResult, error) {
	if p.done {
		return nil, fmt.Errorf("compaction plan already committed")
	}
	p.done = true

	result := p.Result
	if p.noop {
		return &result, nil
	}

	if err := util.WriteFileSynced(p.store.Fs, p.store.Path, p.data); err != nil {
		return nil, err
	}

	for _, rel := range p.DiscardedBlobs {
		removed, err := p.store.Blobs.Remove(rel)
		if err != nil {
			return nil, err
		}
		if removed {
			result.BlobsDeleted++
		}
	}

	util.InfoLog("Compacted catalogue: removed %d songs, %d artists, %d albums, %d strings (%d bytes saved)",
		result.SongsRemoved, result.ArtistsRemoved, result.AlbumsRemoved, result.StringsRemoved, result.BytesSaved)
	return &result, nil
}
