package catalog

import (
	"fmt"

	"github.com/franz/jp3-organiser/internal/util"
)

// Metadata is the descriptive part of a song. Title, Artist and Album are
// required. Zero numeric fields mean "unknown".
type Metadata struct {
	Title        string
	Artist       string
	Album        string
	Year         uint16
	TrackNumber  uint16
	DurationSecs uint16
}

// IngestItem is one audio file offered for ingestion
type IngestItem struct {
	SourcePath string
	Metadata
}

// SongEdit replaces the metadata of one song. A zero TrackNumber or
// DurationSecs keeps the old value; a zero Year keeps the old album's year
// when a new album has to be created.
type SongEdit struct {
	SongID uint32
	Metadata
}

// ValidationError reports an unusable metadata field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return util.ErrValidation
}

// ItemFailure records an input item that was rejected without stopping the
// rest of the batch
type ItemFailure struct {
	Index      int
	SourcePath string
	SongID     uint32
	Err        error
}

// IngestResult summarises one Ingest call
type IngestResult struct {
	FilesSaved        int
	ArtistsAdded      int
	AlbumsAdded       int
	SongsAdded        int
	DuplicatesSkipped int

	// SongIDs holds the id of every appended song, in input order
	SongIDs []uint32
	// DuplicateSongIDs holds the existing ids matched by skipped items
	DuplicateSongIDs []uint32
	// AlbumIDs holds every album touched by the batch, first-seen order
	AlbumIDs []uint32

	Failures []ItemFailure
}

// DeleteResult summarises one Delete call
type DeleteResult struct {
	SongsDeleted   int
	FilesDeleted   int
	DeletedIDs     []uint32
	NotFound       []uint32
	AlreadyDeleted []uint32
}

// EditOutcome describes one applied edit
type EditOutcome struct {
	OldID         uint32
	NewID         uint32
	ArtistCreated bool
	AlbumCreated  bool
}

// EditResult summarises one Edit call. PlaylistsUpdated and
// PlaylistsSkipped are filled in by callers that remap playlists afterwards.
type EditResult struct {
	Edits          []EditOutcome
	Unchanged      []uint32
	AlbumsUpdated  int
	NotFound       []uint32
	AlreadyDeleted []uint32
	Failures       []ItemFailure

	PlaylistsUpdated int
	// PlaylistsSkipped lists unreadable playlists that could not be remapped
	PlaylistsSkipped []uint32
}

// IDMap returns old id -> new id for every applied edit
func (r *EditResult) IDMap() map[uint32]uint32 {
	m := make(map[uint32]uint32, len(r.Edits))
	for _, e := range r.Edits {
		m[e.OldID] = e.NewID
	}
	return m
}

// Stats describes the catalogue on disk
type Stats struct {
	TotalSongs        int
	ActiveSongs       int
	DeletedSongs      int
	TotalArtists      int
	TotalAlbums       int
	TotalStrings      int
	DeletedPercentage float64
	ShouldCompact     bool
	FileSizeBytes     int64
}

// CompactResult summarises a committed compaction
type CompactResult struct {
	SongsRemoved     int
	ArtistsRemoved   int
	AlbumsRemoved    int
	StringsRemoved   int
	BlobsDeleted     int
	PlaylistsUpdated int
	OldSizeBytes     int64
	NewSizeBytes     int64
	BytesSaved       int64
}

// ArtistView is an artist with its name resolved
type ArtistView struct {
	ID   uint32
	Name string
}

// AlbumView is an album with its strings resolved
type AlbumView struct {
	ID         uint32
	Name       string
	ArtistID   uint32
	ArtistName string
	Year       uint16
}

// SongView is an active song with its strings resolved
type SongView struct {
	ID           uint32
	Title        string
	ArtistID     uint32
	Artist       string
	AlbumID      uint32
	Album        string
	Path         string
	TrackNumber  uint16
	DurationSecs uint16
}

// View is the resolved content of the catalogue: every artist and album, and
// the active songs in id order
type View struct {
	Artists []ArtistView
	Albums  []AlbumView
	Songs   []SongView
}
