package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/franz/jp3-organiser/internal/binfmt"
	"github.com/franz/jp3-organiser/internal/blob"
	"github.com/franz/jp3-organiser/internal/util"
)

type testEnv struct {
	store  *Store
	root   string
	srcDir string
}

func setupStore(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	fs := afero.NewOsFs()
	for _, dir := range []string{"music", "metadata"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	blobs := blob.New(fs, root)
	return &testEnv{
		store:  New(fs, filepath.Join(root, "metadata", "library.bin"), blobs),
		root:   root,
		srcDir: t.TempDir(),
	}
}

// item creates a source file and an ingest item for it
func (e *testEnv) item(t *testing.T, title, artist, album string, year, track uint16) IngestItem {
	t.Helper()

	src := filepath.Join(e.srcDir, fmt.Sprintf("%s-%s-%s.mp3", artist, album, title))
	if err := os.WriteFile(src, []byte("audio:"+title), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}
	return IngestItem{
		SourcePath: src,
		Metadata: Metadata{
			Title: title, Artist: artist, Album: album,
			Year: year, TrackNumber: track, DurationSecs: 180,
		},
	}
}

func (e *testEnv) ingest(t *testing.T, items ...IngestItem) *IngestResult {
	t.Helper()

	result, err := e.store.Ingest(items)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	return result
}

func (e *testEnv) blobExists(rel string) bool {
	p, err := e.store.Blobs.Path(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func (e *testEnv) open(t *testing.T) *Catalog {
	t.Helper()

	c, err := e.store.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return c
}

func TestOpenMissingCatalog(t *testing.T) {
	env := setupStore(t)

	c := env.open(t)
	if c.Exists {
		t.Error("expected Exists to be false")
	}
	if c.Header != binfmt.EmptyHeader() {
		t.Errorf("expected empty header, got %+v", c.Header)
	}
	if len(c.Songs) != 0 || c.Strings.Len() != 0 {
		t.Error("expected empty tables")
	}
}

func TestOpenCorruptCatalog(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("definitely not a catalogue at all, nope")},
		{"truncated header", []byte("LIB1\x01\x00")},
		{"offset past EOF", func() []byte {
			h := binfmt.EmptyHeader()
			h.SongTableOffset = 4096
			return h.Encode()
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupStore(t)
			if err := os.WriteFile(env.store.Path, tt.data, 0644); err != nil {
				t.Fatalf("Failed to write catalogue: %v", err)
			}

			c, err := env.store.Open()
			if !errors.Is(err, util.ErrCorrupt) {
				t.Fatalf("expected corruption error, got %v", err)
			}
			var corrupt *binfmt.CorruptionError
			if !errors.As(err, &corrupt) {
				t.Errorf("expected *binfmt.CorruptionError, got %T", err)
			}
			if c != nil {
				t.Error("expected no partial catalogue")
			}
		})
	}
}

func TestExampleScenario(t *testing.T) {
	env := setupStore(t)

	first := env.ingest(t, env.item(t, "Song One", "Artist", "Album", 2020, 1))
	if first.ArtistsAdded != 1 || first.AlbumsAdded != 1 || first.SongsAdded != 1 || first.FilesSaved != 1 {
		t.Errorf("first ingest: %+v", first)
	}

	second := env.ingest(t, env.item(t, "Song Two", "Artist", "Album", 2020, 2))
	if second.ArtistsAdded != 0 || second.AlbumsAdded != 0 {
		t.Errorf("second ingest added artists/albums: %+v", second)
	}
	if len(second.SongIDs) != 1 || second.SongIDs[0] != 1 {
		t.Errorf("expected song id 1, got %v", second.SongIDs)
	}

	st, err := env.store.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.TotalArtists != 1 || st.TotalAlbums != 1 || st.TotalSongs != 2 {
		t.Errorf("unexpected stats: %+v", st)
	}

	if !env.blobExists("00/001.mp3") || !env.blobExists("00/002.mp3") {
		t.Fatal("expected two blobs in bucket 00")
	}

	del, err := env.store.Delete([]uint32{0})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if del.SongsDeleted != 1 || del.FilesDeleted != 1 {
		t.Errorf("unexpected delete result: %+v", del)
	}

	st, _ = env.store.Stats()
	if st.ActiveSongs != 1 || st.DeletedSongs != 1 || st.TotalSongs != 2 {
		t.Errorf("unexpected stats after delete: %+v", st)
	}
	if env.blobExists("00/001.mp3") {
		t.Error("blob of deleted song still on disk")
	}
	if !env.blobExists("00/002.mp3") {
		t.Error("blob of surviving song was removed")
	}

	plan, err := env.store.PlanCompaction()
	if err != nil {
		t.Fatalf("PlanCompaction failed: %v", err)
	}
	res, err := plan.Commit()
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if res.SongsRemoved != 1 || res.ArtistsRemoved != 0 || res.AlbumsRemoved != 0 {
		t.Errorf("unexpected compact result: %+v", res)
	}
	if got := plan.IDMap[1]; got != 0 || len(plan.IDMap) != 1 {
		t.Errorf("expected id map {1: 0}, got %v", plan.IDMap)
	}

	st, _ = env.store.Stats()
	if st.TotalSongs != 1 || st.TotalArtists != 1 || st.TotalAlbums != 1 || st.DeletedSongs != 0 {
		t.Errorf("unexpected stats after compaction: %+v", st)
	}
}

func TestIngestDedup(t *testing.T) {
	t.Run("across calls", func(t *testing.T) {
		env := setupStore(t)
		env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))

		again := env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))
		if again.SongsAdded != 0 || again.FilesSaved != 0 || again.DuplicatesSkipped != 1 {
			t.Errorf("unexpected result: %+v", again)
		}
		if len(again.DuplicateSongIDs) != 1 || again.DuplicateSongIDs[0] != 0 {
			t.Errorf("expected duplicate id 0, got %v", again.DuplicateSongIDs)
		}
		if env.open(t).ActiveCount() != 1 {
			t.Error("expected exactly one active song")
		}
		if env.blobExists("00/002.mp3") {
			t.Error("duplicate blob was copied")
		}
	})

	t.Run("within one call", func(t *testing.T) {
		env := setupStore(t)
		a := env.item(t, "Song", "Artist", "Album", 2020, 1)
		res := env.ingest(t, a, a)
		if res.SongsAdded != 1 || res.DuplicatesSkipped != 1 {
			t.Errorf("unexpected result: %+v", res)
		}
		if res.DuplicateSongIDs[0] != res.SongIDs[0] {
			t.Errorf("duplicate should reference %d, got %d", res.SongIDs[0], res.DuplicateSongIDs[0])
		}
	})

	t.Run("exact match only", func(t *testing.T) {
		env := setupStore(t)
		res := env.ingest(t,
			env.item(t, "Song", "Artist", "Album", 2020, 1),
			env.item(t, "song", "Artist", "Album", 2020, 1),
			env.item(t, "Song", "Other Artist", "Album", 2020, 1),
			env.item(t, "Song", "Artist", "Other Album", 2020, 1),
		)
		if res.SongsAdded != 4 || res.DuplicatesSkipped != 0 {
			t.Errorf("unexpected result: %+v", res)
		}
		if res.ArtistsAdded != 2 || res.AlbumsAdded != 3 {
			t.Errorf("expected 2 artists and 3 albums, got %d and %d", res.ArtistsAdded, res.AlbumsAdded)
		}
	})

	t.Run("deleted song is not a duplicate", func(t *testing.T) {
		env := setupStore(t)
		env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))
		if _, err := env.store.Delete([]uint32{0}); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		res := env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))
		if res.SongsAdded != 1 || res.SongIDs[0] != 1 {
			t.Errorf("unexpected result: %+v", res)
		}
	})
}

func TestIngestValidation(t *testing.T) {
	env := setupStore(t)

	good := env.item(t, "Song", "Artist", "Album", 2020, 1)
	noTitle := env.item(t, "", "Artist", "Album", 2020, 2)
	noArtist := env.item(t, "Other", "", "Album", 2020, 3)
	noAlbum := env.item(t, "Third", "Artist", "", 2020, 4)
	tooLong := env.item(t, "Long", "Artist", "Album", 0, 0)
	tooLong.Title = string(bytes.Repeat([]byte("x"), binfmt.MaxStringLen+1))

	res := env.ingest(t, noTitle, good, noArtist, noAlbum, tooLong)
	if res.SongsAdded != 1 {
		t.Errorf("expected 1 song added, got %d", res.SongsAdded)
	}
	if len(res.Failures) != 4 {
		t.Fatalf("expected 4 failures, got %d", len(res.Failures))
	}

	wantFields := []string{"title", "artist", "album", "title"}
	wantIndex := []int{0, 2, 3, 4}
	for i, f := range res.Failures {
		var ve *ValidationError
		if !errors.As(f.Err, &ve) {
			t.Errorf("failure %d: expected ValidationError, got %v", i, f.Err)
			continue
		}
		if ve.Field != wantFields[i] || f.Index != wantIndex[i] {
			t.Errorf("failure %d: field %q index %d, want %q %d", i, ve.Field, f.Index, wantFields[i], wantIndex[i])
		}
		if !errors.Is(f.Err, util.ErrValidation) {
			t.Errorf("failure %d should match util.ErrValidation", i)
		}
	}
}

func TestIngestMissingSourceFails(t *testing.T) {
	env := setupStore(t)

	item := env.item(t, "Song", "Artist", "Album", 2020, 1)
	item.SourcePath = filepath.Join(env.srcDir, "missing.mp3")

	if _, err := env.store.Ingest([]IngestItem{item}); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(env.store.Path); !os.IsNotExist(err) {
		t.Error("catalogue should not have been written")
	}
}

func TestIngestEmptySongTableStartsFresh(t *testing.T) {
	env := setupStore(t)

	stale, err := binfmt.EncodeCatalog(&binfmt.Tables{
		Strings: []string{"Stale Artist"},
		Artists: []binfmt.ArtistRecord{{NameID: 0}},
	})
	if err != nil {
		t.Fatalf("EncodeCatalog failed: %v", err)
	}
	if err := os.WriteFile(env.store.Path, stale, 0644); err != nil {
		t.Fatalf("Failed to write catalogue: %v", err)
	}

	env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))

	c := env.open(t)
	if len(c.Artists) != 1 || c.str(c.Artists[0].NameID) != "Artist" {
		t.Errorf("expected only the new artist, got %d artists", len(c.Artists))
	}
	if _, ok := c.Strings.Peek("Stale Artist"); ok {
		t.Error("stale string survived")
	}
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	env := setupStore(t)

	items := []IngestItem{
		env.item(t, "Intro", "Band", "First", 1999, 1),
		env.item(t, "Outro", "Band", "First", 1999, 9),
		env.item(t, "Solo", "Singer", "Debut", 2005, 3),
	}
	env.ingest(t, items...)

	v, err := env.store.View()
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if len(v.Artists) != 2 || len(v.Albums) != 2 {
		t.Errorf("expected 2 artists and 2 albums, got %d and %d", len(v.Artists), len(v.Albums))
	}
	if len(v.Songs) != len(items) {
		t.Fatalf("expected %d songs, got %d", len(items), len(v.Songs))
	}
	for i, s := range v.Songs {
		want := items[i]
		if s.ID != uint32(i) || s.Title != want.Title || s.Artist != want.Artist || s.Album != want.Album {
			t.Errorf("song %d = %+v, want %+v", i, s, want.Metadata)
		}
		if s.TrackNumber != want.TrackNumber || s.DurationSecs != want.DurationSecs {
			t.Errorf("song %d numbers = %d/%d", i, s.TrackNumber, s.DurationSecs)
		}
		if !env.blobExists(s.Path) {
			t.Errorf("song %d blob %s missing", i, s.Path)
		}
	}
	if v.Albums[1].Year != 2005 || v.Albums[1].ArtistName != "Singer" {
		t.Errorf("unexpected album: %+v", v.Albums[1])
	}
}

func TestDeleteMinimality(t *testing.T) {
	env := setupStore(t)
	env.ingest(t,
		env.item(t, "A", "Artist", "Album", 2020, 1),
		env.item(t, "B", "Artist", "Album", 2020, 2),
	)

	before, err := os.ReadFile(env.store.Path)
	if err != nil {
		t.Fatalf("Failed to read catalogue: %v", err)
	}
	c := env.open(t)
	flagOff := c.Header.SongFlagOffset(1)

	res, err := env.store.Delete([]uint32{1, 7, 1})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if res.SongsDeleted != 1 || len(res.NotFound) != 1 || res.NotFound[0] != 7 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.AlreadyDeleted) != 1 || res.AlreadyDeleted[0] != 1 {
		t.Errorf("expected repeated id to be reported as already deleted: %+v", res)
	}

	after, err := os.ReadFile(env.store.Path)
	if err != nil {
		t.Fatalf("Failed to read catalogue: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("file size changed from %d to %d", len(before), len(after))
	}
	for i := range before {
		if int64(i) == flagOff {
			if after[i] != binfmt.FlagDeleted {
				t.Errorf("flag byte = %d, want %d", after[i], binfmt.FlagDeleted)
			}
			continue
		}
		if before[i] != after[i] {
			t.Errorf("byte %d changed", i)
		}
	}

	again, err := env.store.Delete([]uint32{1})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if again.SongsDeleted != 0 || len(again.AlreadyDeleted) != 1 {
		t.Errorf("unexpected result for second delete: %+v", again)
	}

	v, _ := env.store.View()
	if len(v.Songs) != 1 || v.Songs[0].Title != "A" {
		t.Errorf("expected only song A to be listed, got %+v", v.Songs)
	}
}

func TestDeleteOnMissingCatalog(t *testing.T) {
	env := setupStore(t)

	res, err := env.store.Delete([]uint32{0, 1})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(res.NotFound) != 2 || res.SongsDeleted != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestEditReusesBlob(t *testing.T) {
	env := setupStore(t)
	env.ingest(t, env.item(t, "Old Title", "Artist", "Album", 2020, 4))

	res, err := env.store.Edit([]SongEdit{{
		SongID:   0,
		Metadata: Metadata{Title: "New Title", Artist: "Artist", Album: "Album"},
	}})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if len(res.Edits) != 1 {
		t.Fatalf("expected one edit, got %+v", res)
	}
	out := res.Edits[0]
	if out.OldID != 0 || out.NewID == 0 {
		t.Errorf("expected new id distinct from 0, got %+v", out)
	}
	if out.ArtistCreated || out.AlbumCreated {
		t.Errorf("existing artist/album should resolve: %+v", out)
	}

	c := env.open(t)
	oldRow, newRow := c.Songs[0], c.Songs[out.NewID]
	if !oldRow.Deleted() || !newRow.Active() {
		t.Error("expected old row deleted and new row active")
	}
	if oldRow.PathID != newRow.PathID {
		t.Error("edit should reuse the blob path")
	}
	if newRow.TrackNumber != 4 || newRow.DurationSec != 180 {
		t.Errorf("track/duration not carried over: %+v", newRow)
	}
	if c.str(newRow.TitleID) != "New Title" {
		t.Errorf("title = %q", c.str(newRow.TitleID))
	}
	if !env.blobExists(c.str(newRow.PathID)) {
		t.Error("blob should still exist")
	}
	if entries, _ := os.ReadDir(filepath.Join(env.root, "music", "00")); len(entries) != 1 {
		t.Errorf("expected one blob on disk, found %d", len(entries))
	}
}

func TestEditCreatesArtistAndAlbum(t *testing.T) {
	env := setupStore(t)
	env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))

	res, err := env.store.Edit([]SongEdit{{
		SongID:   0,
		Metadata: Metadata{Title: "Song", Artist: "New Artist", Album: "Album", TrackNumber: 7},
	}})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	out := res.Edits[0]
	if !out.ArtistCreated || !out.AlbumCreated {
		t.Errorf("expected artist and album to be created: %+v", out)
	}

	v, _ := env.store.View()
	if len(v.Songs) != 1 {
		t.Fatalf("expected one active song, got %d", len(v.Songs))
	}
	s := v.Songs[0]
	if s.Artist != "New Artist" || s.TrackNumber != 7 {
		t.Errorf("unexpected song: %+v", s)
	}
	if v.Albums[s.AlbumID].Year != 2020 {
		t.Errorf("new album should inherit year, got %d", v.Albums[s.AlbumID].Year)
	}
}

func TestEditNotFound(t *testing.T) {
	env := setupStore(t)
	env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))
	if _, err := env.store.Delete([]uint32{0}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	meta := Metadata{Title: "X", Artist: "Y", Album: "Z"}
	res, err := env.store.Edit([]SongEdit{
		{SongID: 5, Metadata: meta},
		{SongID: 0, Metadata: meta},
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if len(res.Edits) != 0 {
		t.Errorf("expected no edits, got %+v", res.Edits)
	}
	if len(res.NotFound) != 1 || res.NotFound[0] != 5 {
		t.Errorf("expected 5 not found, got %v", res.NotFound)
	}
	if len(res.AlreadyDeleted) != 1 || res.AlreadyDeleted[0] != 0 {
		t.Errorf("expected 0 already deleted, got %v", res.AlreadyDeleted)
	}
}

func TestDeleteBlobFailureKeepsResult(t *testing.T) {
	env := setupStore(t)
	env.ingest(t,
		env.item(t, "One", "Artist", "Album", 2020, 1),
		env.item(t, "Two", "Artist", "Album", 2020, 2),
	)

	// A non-empty directory in place of the first blob cannot be removed
	p, err := env.store.Blobs.Path("00/001.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(p, "keep"), 0755); err != nil {
		t.Fatal(err)
	}

	res, err := env.store.Delete([]uint32{0, 1})
	if err == nil {
		t.Fatal("expected blob removal error")
	}
	if res == nil {
		t.Fatal("expected a partial result with the error")
	}
	if res.SongsDeleted != 2 || len(res.DeletedIDs) != 2 || res.FilesDeleted != 0 {
		t.Errorf("unexpected partial result: %+v", res)
	}

	c := env.open(t)
	if !c.Songs[0].Deleted() || !c.Songs[1].Deleted() {
		t.Error("flags were not kept after the blob failure")
	}
}

func TestEditUnchangedKeepsID(t *testing.T) {
	env := setupStore(t)
	env.ingest(t, env.item(t, "Song", "Artist", "Album", 2020, 1))
	before, err := env.store.Fs.Stat(env.store.Path)
	if err != nil {
		t.Fatal(err)
	}

	res, err := env.store.Edit([]SongEdit{{SongID: 0, Metadata: Metadata{Title: "Song", Artist: "Artist", Album: "Album"}}})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if len(res.Edits) != 0 || len(res.Unchanged) != 1 || res.Unchanged[0] != 0 || res.AlbumsUpdated != 0 {
		t.Errorf("unexpected result: %+v", res)
	}

	c := env.open(t)
	if len(c.Songs) != 1 || c.Songs[0].Deleted() {
		t.Errorf("song was rewritten: %+v", c.Songs)
	}
	if c.FileSize != before.Size() {
		t.Errorf("catalogue size changed from %d to %d", before.Size(), c.FileSize)
	}
}

func TestEditYearOnExistingAlbum(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		wantEdits   int
		wantSongs   int
		wantUpdated int
	}{
		{"year only", "One", 0, 2, 1},
		{"year and title", "One (Live)", 1, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupStore(t)
			env.ingest(t,
				env.item(t, "One", "Artist", "Album", 2020, 1),
				env.item(t, "Two", "Artist", "Album", 2020, 2),
			)

			res, err := env.store.Edit([]SongEdit{{
				SongID:   0,
				Metadata: Metadata{Title: tt.title, Artist: "Artist", Album: "Album", Year: 2021},
			}})
			if err != nil {
				t.Fatalf("Edit failed: %v", err)
			}
			if len(res.Edits) != tt.wantEdits || res.AlbumsUpdated != tt.wantUpdated {
				t.Errorf("edits=%d albumsUpdated=%d, want %d and %d", len(res.Edits), res.AlbumsUpdated, tt.wantEdits, tt.wantUpdated)
			}

			c := env.open(t)
			if len(c.Albums) != 1 || c.Albums[0].Year != 2021 {
				t.Errorf("albums = %+v, want one album with year 2021", c.Albums)
			}
			if len(c.Songs) != tt.wantSongs {
				t.Errorf("song rows = %d, want %d", len(c.Songs), tt.wantSongs)
			}
			if c.Songs[1].Deleted() {
				t.Error("other song on the album was tombstoned")
			}
		})
	}
}

func TestStatsShouldCompact(t *testing.T) {
	env := setupStore(t)
	var items []IngestItem
	for i := 1; i <= 5; i++ {
		items = append(items, env.item(t, fmt.Sprintf("Song %d", i), "Artist", "Album", 2020, uint16(i)))
	}
	env.ingest(t, items...)

	tests := []struct {
		deleteID uint32
		percent  float64
		compact  bool
	}{
		{0, 20, false},
		{1, 40, true},
	}

	for _, tt := range tests {
		if _, err := env.store.Delete([]uint32{tt.deleteID}); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		st, err := env.store.Stats()
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if st.DeletedPercentage != tt.percent || st.ShouldCompact != tt.compact {
			t.Errorf("after deleting %d: %.1f%% compact=%v, want %.1f%% compact=%v",
				tt.deleteID, st.DeletedPercentage, st.ShouldCompact, tt.percent, tt.compact)
		}
		if st.FileSizeBytes == 0 {
			t.Error("expected file size to be reported")
		}
	}
}

func TestCompactionIntegrity(t *testing.T) {
	env := setupStore(t)
	env.ingest(t,
		env.item(t, "Keep 1", "Kept", "Kept Album", 2001, 1),
		env.item(t, "Drop 1", "Dropped", "Dropped Album", 2002, 1),
		env.item(t, "Keep 2", "Kept", "Kept Album", 2001, 2),
		env.item(t, "Drop 2", "Dropped", "Other Album", 2003, 1),
		env.item(t, "Edited", "Kept", "Kept Album", 2001, 3),
	)

	edit, err := env.store.Edit([]SongEdit{{SongID: 4, Metadata: Metadata{Title: "Edited v2", Artist: "Kept", Album: "Kept Album"}}})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	editedID := edit.Edits[0].NewID
	if _, err := env.store.Delete([]uint32{1, 3}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	before := env.open(t)
	editedPath := before.str(before.Songs[editedID].PathID)

	plan, err := env.store.PlanCompaction()
	if err != nil {
		t.Fatalf("PlanCompaction failed: %v", err)
	}
	for _, rel := range plan.DiscardedBlobs {
		if rel == editedPath {
			t.Errorf("blob %s is still used by the edited song", rel)
		}
	}
	res, err := plan.Commit()
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := plan.Commit(); err == nil {
		t.Error("second Commit should fail")
	}

	if res.SongsRemoved != 3 || res.ArtistsRemoved != 1 || res.AlbumsRemoved != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.StringsRemoved <= 0 || res.BytesSaved <= 0 {
		t.Errorf("expected strings and bytes to be reclaimed: %+v", res)
	}

	wantMap := map[uint32]uint32{0: 0, 2: 1, editedID: 2}
	if len(plan.IDMap) != len(wantMap) {
		t.Errorf("id map = %v, want %v", plan.IDMap, wantMap)
	}
	for old, want := range wantMap {
		if got, ok := plan.IDMap[old]; !ok || got != want {
			t.Errorf("IDMap[%d] = %d, %v; want %d", old, got, ok, want)
		}
	}

	after := env.open(t)
	usedArtists := make(map[uint32]bool)
	usedAlbums := make(map[uint32]bool)
	for i, s := range after.Songs {
		if s.Deleted() {
			t.Errorf("song %d is still deleted after compaction", i)
		}
		if int(s.ArtistID) >= len(after.Artists) || int(s.AlbumID) >= len(after.Albums) {
			t.Errorf("song %d has dangling references", i)
		}
		usedArtists[s.ArtistID] = true
		usedAlbums[s.AlbumID] = true
	}
	if len(usedArtists) != len(after.Artists) || len(usedAlbums) != len(after.Albums) {
		t.Errorf("unreferenced artists or albums survived: %d/%d artists, %d/%d albums",
			len(usedArtists), len(after.Artists), len(usedAlbums), len(after.Albums))
	}
	if _, ok := after.Strings.Peek("Dropped"); ok {
		t.Error("string of removed artist survived")
	}
	if _, ok := after.Strings.Peek("Edited"); ok {
		t.Error("title of tombstoned row survived")
	}
	if !env.blobExists(editedPath) {
		t.Error("shared blob of the edited song was removed")
	}

	v := after.View()
	titles := []string{"Keep 1", "Keep 2", "Edited v2"}
	for i, s := range v.Songs {
		if s.Title != titles[i] {
			t.Errorf("song %d = %q, want %q", i, s.Title, titles[i])
		}
	}
}

func TestCompactMissingCatalog(t *testing.T) {
	env := setupStore(t)

	plan, err := env.store.PlanCompaction()
	if err != nil {
		t.Fatalf("PlanCompaction failed: %v", err)
	}
	res, err := plan.Commit()
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if res.SongsRemoved != 0 || len(plan.IDMap) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if _, err := os.Stat(env.store.Path); !os.IsNotExist(err) {
		t.Error("compacting a missing catalogue should not create one")
	}
}

func TestSongsByAlbumAndArtist(t *testing.T) {
	env := setupStore(t)
	env.ingest(t,
		env.item(t, "One", "A", "X", 0, 1),
		env.item(t, "Two", "A", "Y", 0, 1),
		env.item(t, "Three", "B", "X", 0, 1),
		env.item(t, "Four", "A", "X", 0, 2),
	)
	if _, err := env.store.Delete([]uint32{3}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	c := env.open(t)
	if got := c.SongsByAlbum(0); len(got) != 1 || got[0] != 0 {
		t.Errorf("SongsByAlbum(0) = %v, want [0]", got)
	}
	// "X" under artist B is a separate album
	if got := c.SongsByAlbum(2); len(got) != 1 || got[0] != 2 {
		t.Errorf("SongsByAlbum(2) = %v, want [2]", got)
	}
	if got := c.SongsByArtist(0); len(got) != 2 {
		t.Errorf("SongsByArtist(0) = %v, want [0 1]", got)
	}
}
