package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/journal"
	"github.com/franz/jp3-organiser/internal/library"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []uint32
		wantErr bool
	}{
		{"separate", []string{"1", "2", "3"}, []uint32{1, 2, 3}, false},
		{"comma list", []string{"4,5", "6"}, []uint32{4, 5, 6}, false},
		{"spaces and empty parts", []string{" 7 ,,8"}, []uint32{7, 8}, false},
		{"zero", []string{"0"}, []uint32{0}, false},
		{"negative", []string{"-1"}, nil, true},
		{"not a number", []string{"abc"}, nil, true},
		{"too large", []string{"4294967296"}, nil, true},
		{"nothing", []string{","}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if tt.wantErr {
				if !errors.Is(err, util.ErrValidation) {
					t.Fatalf("parseIDs(%v) error = %v, want ErrValidation", tt.args, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDs(%v) error = %v", tt.args, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseIDs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestCollectAudioFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{
		"/in/b/02.flac",
		"/in/b/01.MP3",
		"/in/a/cover.jpg",
		"/in/a/song.ogg",
		"/in/.hidden/x.mp3",
		"/loose/notes.txt",
	} {
		if err := afero.WriteFile(fs, p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := collectAudioFiles(fs, []string{"/in", "/loose/notes.txt"})
	if err != nil {
		t.Fatalf("collectAudioFiles failed: %v", err)
	}
	want := []string{"/in/a/song.ogg", "/in/b/01.MP3", "/in/b/02.flac", "/loose/notes.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectAudioFiles = %v, want %v", got, want)
	}

	if _, err := collectAudioFiles(fs, []string{"/missing"}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestOverridesApply(t *testing.T) {
	md := catalog.Metadata{Title: "t", Artist: "a", Album: "b", Year: 1999, TrackNumber: 3, DurationSecs: 200}

	var none overrides
	none.apply(&md)
	if md.Title != "t" || md.Artist != "a" || md.Album != "b" || md.Year != 1999 || md.TrackNumber != 3 {
		t.Errorf("empty overrides changed metadata: %+v", md)
	}

	ov := overrides{catalog.Metadata{Artist: "A2", Year: 2001}}
	ov.apply(&md)
	if md.Artist != "A2" || md.Year != 2001 || md.Title != "t" || md.DurationSecs != 200 {
		t.Errorf("overrides applied wrongly: %+v", md)
	}
}

func TestFormatting(t *testing.T) {
	if got := formatDuration(0); got != "-" {
		t.Errorf("formatDuration(0) = %q", got)
	}
	if got := formatDuration(245); got != "4:05" {
		t.Errorf("formatDuration(245) = %q, want 4:05", got)
	}
	if got := formatYear(0); got != "-" {
		t.Errorf("formatYear(0) = %q", got)
	}
	if !matches("", "anything") || !matches("beat", "The Beatles") || matches("stones", "The Beatles", "Abbey Road") {
		t.Error("matches gave wrong answer")
	}
}

// setupCLI points the global config at a fresh library and journal
func setupCLI(t *testing.T) (base, journalFile string) {
	t.Helper()
	base = t.TempDir()
	journalFile = filepath.Join(t.TempDir(), "journal.db")
	viper.Set("library", base)
	viper.Set("journal", journalFile)
	viper.Set("quiet", true)
	t.Cleanup(func() {
		viper.Set("library", "")
		viper.Set("journal", "")
		viper.Set("quiet", false)
		util.SetLogLevel(util.LevelInfo)
	})
	return base, journalFile
}

func TestInitIngestRecordsJournal(t *testing.T) {
	base, journalFile := setupCLI(t)

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	albumDir := filepath.Join(t.TempDir(), "Blue Train")
	if err := os.MkdirAll(albumDir, 0755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(albumDir, "John Coltrane - Moment's Notice.mp3")
	if err := os.WriteFile(src, make([]byte, 256), 0644); err != nil {
		t.Fatal(err)
	}

	if err := runIngest(ingestCmd, []string{src}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	lib, err := library.Open(base, library.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	view, err := lib.View()
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if len(view.Songs) != 1 {
		t.Fatalf("got %d songs, want 1", len(view.Songs))
	}
	s := view.Songs[0]
	if s.Title != "Moment's Notice" || s.Artist != "John Coltrane" || s.Album != "Blue Train" {
		t.Errorf("song = %+v", s)
	}

	j, err := journal.Open(journalFile)
	if err != nil {
		t.Fatalf("journal.Open failed: %v", err)
	}
	defer j.Close()
	entries, err := j.Recent("", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d journal entries, want 2", len(entries))
	}
	if entries[0].Kind != "ingest" || entries[1].Kind != "init" {
		t.Errorf("kinds = %s, %s; want ingest, init", entries[0].Kind, entries[1].Kind)
	}
	if !entries[0].OK() || entries[0].SummaryJSON == "" {
		t.Errorf("ingest entry = %+v", entries[0])
	}
	if want := journalKey(library.RootPath(base)); entries[0].Library != want {
		t.Errorf("library = %q, want %q", entries[0].Library, want)
	}
}

func TestRecordStoresFailure(t *testing.T) {
	_, journalFile := setupCLI(t)

	opErr := errors.New("boom")
	err := record("compact", "/lib/jp3", nil, func() (interface{}, error) {
		return nil, opErr
	})
	if err != opErr {
		t.Fatalf("record returned %v, want the operation error", err)
	}

	j, err := journal.Open(journalFile)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	entries, err := j.Recent("/lib/jp3", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].OK() || entries[0].Error != "boom" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestOpenLibraryNotInitialized(t *testing.T) {
	setupCLI(t)
	if _, err := openLibrary(); !errors.Is(err, util.ErrNotInitialized) {
		t.Errorf("openLibrary error = %v, want ErrNotInitialized", err)
	}
}

func TestPrintSongsPaths(t *testing.T) {
	base, _ := setupCLI(t)
	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	src := filepath.Join(t.TempDir(), "Artist - Title.mp3")
	if err := os.WriteFile(src, make([]byte, 256), 0644); err != nil {
		t.Fatal(err)
	}
	if err := runIngest(ingestCmd, []string{src}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	lib, err := library.Open(base, library.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	view, err := lib.View()
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if len(view.Songs) != 1 || view.Songs[0].Path != "00/001.mp3" {
		t.Fatalf("songs = %+v, want one song at 00/001.mp3", view.Songs)
	}

	var buf bytes.Buffer
	printSongs(&buf, view.Songs, "", lib.BlobPath)
	want := filepath.Join(library.RootPath(base), "music", "00", "001.mp3")
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output missing %s:\n%s", want, buf.String())
	}

	buf.Reset()
	printSongs(&buf, view.Songs, "", nil)
	if strings.Contains(buf.String(), "PATH") || strings.Contains(buf.String(), "001.mp3") {
		t.Errorf("paths shown without resolver:\n%s", buf.String())
	}
}
