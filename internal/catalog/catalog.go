// Package catalog owns library.bin: loading it, appending songs, soft
// deletes, tombstone edits and compaction planning.
//
// Every mutation reads the whole file first. Appends and edits rewrite the
// file once per call; deletes flip single flag bytes in place.
package catalog

import (
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/franz/jp3-organiser/internal/binfmt"
	"github.com/franz/jp3-organiser/internal/blob"
	"github.com/franz/jp3-organiser/internal/strpool"
	"github.com/franz/jp3-organiser/internal/util"
)

// Store is the catalogue file of one library
type Store struct {
	Fs    afero.Fs
	Path  string
	Blobs *blob.Store
}

// New creates a store for the catalogue at path. Blobs is used to place
// ingested files and remove deleted ones.
func New(fs afero.Fs, path string, blobs *blob.Store) *Store {
	return &Store{Fs: fs, Path: path, Blobs: blobs}
}

type albumKey struct {
	artistID uint32
	name     string
}

type songKey struct {
	titleID  uint32
	artistID uint32
	albumID  uint32
}

// Catalog is one loaded generation of the catalogue
type Catalog struct {
	Header   binfmt.Header
	Strings  *strpool.Pool
	Artists  []binfmt.ArtistRecord
	Albums   []binfmt.AlbumRecord
	Songs    []binfmt.SongRecord
	FileSize int64
	Exists   bool

	artistIndex map[string]uint32
	albumIndex  map[albumKey]uint32
}

func newCatalog() *Catalog {
	return &Catalog{
		Header:  binfmt.EmptyHeader(),
		Strings: strpool.New(),
	}
}

// Open loads the catalogue. A missing file yields an empty catalogue with
// Exists false; a malformed one yields a *binfmt.CorruptionError.
func (s *Store) Open() (*Catalog, error) {
	data, ok, err := util.ReadFileIfExists(s.Fs, s.Path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newCatalog(), nil
	}

	h, tables, err := binfmt.DecodeCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("load catalogue %s: %w", s.Path, err)
	}

	return &Catalog{
		Header:   h,
		Strings:  strpool.FromStrings(tables.Strings),
		Artists:  tables.Artists,
		Albums:   tables.Albums,
		Songs:    tables.Songs,
		FileSize: int64(len(data)),
		Exists:   true,
	}, nil
}

// write encodes the catalogue and replaces the file on disk
func (s *Store) write(c *Catalog) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := s.Fs.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return util.NewIOError("mkdir", filepath.Dir(s.Path), err)
	}
	if err := util.WriteFileSynced(s.Fs, s.Path, data); err != nil {
		return err
	}

	h, err := binfmt.DecodeHeader(data)
	if err != nil {
		return err
	}
	c.Header = h
	c.FileSize = int64(len(data))
	c.Exists = true
	util.DebugLog("Wrote catalogue %s: %d songs, %d artists, %d albums, %d strings (%d bytes)",
		s.Path, len(c.Songs), len(c.Artists), len(c.Albums), c.Strings.Len(), len(data))
	return nil
}

// Encode returns the complete file contents for the catalogue
func (c *Catalog) Encode() ([]byte, error) {
	return binfmt.EncodeCatalog(&binfmt.Tables{
		Strings: c.Strings.Strings(),
		Artists: c.Artists,
		Albums:  c.Albums,
		Songs:   c.Songs,
	})
}

// str resolves a string id known to be in range
func (c *Catalog) str(id uint32) string {
	s, _ := c.Strings.Resolve(id)
	return s
}

func (c *Catalog) buildIndexes() {
	if c.artistIndex != nil {
		return
	}
	c.artistIndex = make(map[string]uint32, len(c.Artists))
	for i, a := range c.Artists {
		name := c.str(a.NameID)
		if _, ok := c.artistIndex[name]; !ok {
			c.artistIndex[name] = uint32(i)
		}
	}
	c.albumIndex = make(map[albumKey]uint32, len(c.Albums))
	for i, a := range c.Albums {
		key := albumKey{artistID: a.ArtistID, name: c.str(a.NameID)}
		if _, ok := c.albumIndex[key]; !ok {
			c.albumIndex[key] = uint32(i)
		}
	}
}

// resolveArtist finds the artist with exactly this name or appends one
func (c *Catalog) resolveArtist(name string) (id uint32, created bool, err error) {
	c.buildIndexes()
	if id, ok := c.artistIndex[name]; ok {
		return id, false, nil
	}
	nameID, err := c.Strings.Intern(name)
	if err != nil {
		return 0, false, err
	}
	id = uint32(len(c.Artists))
	c.Artists = append(c.Artists, binfmt.ArtistRecord{NameID: nameID})
	c.artistIndex[name] = id
	util.DebugLog("New artist %d: %s", id, name)
	return id, true, nil
}

// resolveAlbum finds the album with this name under the artist or appends one
func (c *Catalog) resolveAlbum(artistID uint32, name string, year uint16) (id uint32, created bool, err error) {
	c.buildIndexes()
	key := albumKey{artistID: artistID, name: name}
	if id, ok := c.albumIndex[key]; ok {
		return id, false, nil
	}
	nameID, err := c.Strings.Intern(name)
	if err != nil {
		return 0, false, err
	}
	id = uint32(len(c.Albums))
	c.Albums = append(c.Albums, binfmt.AlbumRecord{NameID: nameID, ArtistID: artistID, Year: year})
	c.albumIndex[key] = id
	util.DebugLog("New album %d: %s (artist %d)", id, name, artistID)
	return id, true, nil
}

// activeSongs indexes active songs by their duplicate-detection key
func (c *Catalog) activeSongs() map[songKey]uint32 {
	idx := make(map[songKey]uint32, len(c.Songs))
	for i, s := range c.Songs {
		if s.Active() {
			idx[songKey{titleID: s.TitleID, artistID: s.ArtistID, albumID: s.AlbumID}] = uint32(i)
		}
	}
	return idx
}

// findDuplicate returns the active song with the same title, artist and
// album. The title is looked up without interning it.
func (c *Catalog) findDuplicate(active map[songKey]uint32, title string, artistID, albumID uint32) (uint32, bool) {
	titleID, ok := c.Strings.Peek(title)
	if !ok {
		return 0, false
	}
	id, ok := active[songKey{titleID: titleID, artistID: artistID, albumID: albumID}]
	return id, ok
}

// ActiveCount returns the number of songs not flagged deleted
func (c *Catalog) ActiveCount() int {
	n := 0
	for _, s := range c.Songs {
		if s.Active() {
			n++
		}
	}
	return n
}

// SongsByAlbum returns the ids of the active songs on an album
func (c *Catalog) SongsByAlbum(albumID uint32) []uint32 {
	var ids []uint32
	for i, s := range c.Songs {
		if s.Active() && s.AlbumID == albumID {
			ids = append(ids, uint32(i))
		}
	}
	return ids
}

// SongsByArtist returns the ids of the active songs by an artist
func (c *Catalog) SongsByArtist(artistID uint32) []uint32 {
	var ids []uint32
	for i, s := range c.Songs {
		if s.Active() && s.ArtistID == artistID {
			ids = append(ids, uint32(i))
		}
	}
	return ids
}

// pathShared reports whether an active song other than skip uses the path
func (c *Catalog) pathShared(pathID uint32, skip uint32) bool {
	for i, s := range c.Songs {
		if uint32(i) != skip && s.Active() && s.PathID == pathID {
			return true
		}
	}
	return false
}

// View resolves every artist and album and the active songs
func (c *Catalog) View() *View {
	v := &View{
		Artists: make([]ArtistView, len(c.Artists)),
		Albums:  make([]AlbumView, len(c.Albums)),
	}
	for i, a := range c.Artists {
		v.Artists[i] = ArtistView{ID: uint32(i), Name: c.str(a.NameID)}
	}
	for i, a := range c.Albums {
		v.Albums[i] = AlbumView{
			ID:         uint32(i),
			Name:       c.str(a.NameID),
			ArtistID:   a.ArtistID,
			ArtistName: c.str(c.Artists[a.ArtistID].NameID),
			Year:       a.Year,
		}
	}
	for i, s := range c.Songs {
		if !s.Active() {
			continue
		}
		v.Songs = append(v.Songs, SongView{
			ID:           uint32(i),
			Title:        c.str(s.TitleID),
			ArtistID:     s.ArtistID,
			Artist:       c.str(c.Artists[s.ArtistID].NameID),
			AlbumID:      s.AlbumID,
			Album:        c.str(c.Albums[s.AlbumID].NameID),
			Path:         c.str(s.PathID),
			TrackNumber:  s.TrackNumber,
			DurationSecs: s.DurationSec,
		})
	}
	return v
}

// Stats computes counts for the loaded catalogue
func (c *Catalog) Stats() *Stats {
	st := &Stats{
		TotalSongs:    len(c.Songs),
		ActiveSongs:   c.ActiveCount(),
		TotalArtists:  len(c.Artists),
		TotalAlbums:   len(c.Albums),
		TotalStrings:  c.Strings.Len(),
		FileSizeBytes: c.FileSize,
	}
	st.DeletedSongs = st.TotalSongs - st.ActiveSongs
	if st.TotalSongs > 0 {
		st.DeletedPercentage = float64(st.DeletedSongs) / float64(st.TotalSongs) * 100
	}
	st.ShouldCompact = st.TotalSongs > 0 && float64(st.DeletedSongs)/float64(st.TotalSongs) > CompactThreshold
	return st
}

// CompactThreshold is the deleted fraction above which compaction is advised
const CompactThreshold = 0.2

// validate checks the required fields of an ingest or edit
func (m Metadata) validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"title", m.Title},
		{"artist", m.Artist},
		{"album", m.Album},
	}
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Reason: "missing"}
		}
		if len(f.value) > binfmt.MaxStringLen {
			return &ValidationError{Field: f.name, Reason: fmt.Sprintf("%d bytes exceeds limit of %d", len(f.value), binfmt.MaxStringLen)}
		}
		if !utf8.ValidString(f.value) {
			return &ValidationError{Field: f.name, Reason: "not valid UTF-8"}
		}
	}
	return nil
}

// Stats loads the catalogue and reports its counts
func (s *Store) Stats() (*Stats, error) {
	c, err := s.Open()
	if err != nil {
		return nil, err
	}
	return c.Stats(), nil
}

// View loads the catalogue and resolves its contents
func (s *Store) View() (*View, error) {
	c, err := s.Open()
	if err != nil {
		return nil, err
	}
	return c.View(), nil
}
