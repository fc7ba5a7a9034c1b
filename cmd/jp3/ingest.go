package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/tags"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// audioExtensions are the file types picked up when walking a directory
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".aiff": true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir>...",
	Short: "Copy audio files into the library and catalogue them",
	Long: `Read tags from the given files (directories are walked for audio files),
copy each file into jp3/music and append it to the catalogue.

A file whose title, artist and album already exist is skipped as a
duplicate. Tags can be overridden with the metadata flags; --title is
only accepted for a single file. With --playlist the ingested songs,
duplicates included, are saved as a new playlist.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("title", "", "override title (single file only)")
	ingestCmd.Flags().String("artist", "", "override artist")
	ingestCmd.Flags().String("album", "", "override album")
	ingestCmd.Flags().Uint16("year", 0, "override year")
	ingestCmd.Flags().Uint16("track", 0, "override track number (single file only)")
	ingestCmd.Flags().String("playlist", "", "save the ingested songs as a playlist with this name")
	ingestCmd.Flags().Int("workers", 0, "concurrent tag readers (default: number of CPUs)")

	viper.BindPFlag("workers", ingestCmd.Flags().Lookup("workers"))
}

// overrides are the metadata flags of the ingest command
type overrides struct {
	catalog.Metadata
}

func (o overrides) apply(md *catalog.Metadata) {
	if o.Title != "" {
		md.Title = o.Title
	}
	if o.Artist != "" {
		md.Artist = o.Artist
	}
	if o.Album != "" {
		md.Album = o.Album
	}
	if o.Year != 0 {
		md.Year = o.Year
	}
	if o.TrackNumber != 0 {
		md.TrackNumber = o.TrackNumber
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	var ov overrides
	ov.Title, _ = cmd.Flags().GetString("title")
	ov.Artist, _ = cmd.Flags().GetString("artist")
	ov.Album, _ = cmd.Flags().GetString("album")
	ov.Year, _ = cmd.Flags().GetUint16("year")
	ov.TrackNumber, _ = cmd.Flags().GetUint16("track")
	playlistName, _ := cmd.Flags().GetString("playlist")
	workers := GetConfigInt("workers", runtime.GOMAXPROCS(0))

	files, err := collectAudioFiles(afero.NewOsFs(), args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		util.WarnLog("No audio files found")
		return nil
	}
	if len(files) > 1 && (ov.Title != "" || ov.TrackNumber != 0) {
		return fmt.Errorf("--title and --track need exactly one file, got %d: %w", len(files), util.ErrValidation)
	}

	util.InfoLog("Reading tags from %d files", len(files))
	items := readItems(files, workers)
	if len(items) == 0 {
		return fmt.Errorf("none of %d files could be read", len(files))
	}
	for i := range items {
		ov.apply(&items[i].Metadata)
	}

	return record("ingest", lib.Root, args, func() (interface{}, error) {
		var (
			res  *catalog.IngestResult
			plID uint32
			err  error
		)
		if playlistName != "" {
			res, plID, err = lib.SaveToPlaylist(playlistName, items)
		} else {
			res, err = lib.Ingest(items)
		}
		if err != nil {
			return res, err
		}

		util.SuccessLog("Ingested %d songs (%d files saved, %d new artists, %d new albums)",
			res.SongsAdded, res.FilesSaved, res.ArtistsAdded, res.AlbumsAdded)
		if res.DuplicatesSkipped > 0 {
			util.InfoLog("Skipped %d duplicates", res.DuplicatesSkipped)
		}
		for _, f := range res.Failures {
			util.WarnLog("Rejected %s: %v", f.SourcePath, f.Err)
		}
		if plID != 0 {
			util.InfoLog("Saved playlist %q (id %d)", playlistName, plID)
		}
		return res, nil
	})
}

// collectAudioFiles expands directories into the audio files below them.
// Files named explicitly are kept whatever their extension.
func collectAudioFiles(fs afero.Fs, args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		var info os.FileInfo
		err := util.Retry(nil, func() (err error) {
			info, err = fs.Stat(arg)
			return err
		}, "stat "+arg)
		if err != nil {
			return nil, util.NewIOError("stat", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		var found []string
		err = afero.Walk(fs, arg, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				util.WarnLog("Cannot read %s: %v", path, err)
				return nil
			}
			if fi.IsDir() {
				if path != arg && strings.HasPrefix(fi.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if audioExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, util.NewIOError("walk", arg, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// readItems reads tags concurrently, keeping the input order. Files that
// cannot be opened are logged and left out.
func readItems(files []string, workers int) []catalog.IngestItem {
	if workers <= 0 {
		workers = 1
	}

	// Debug lines would tear the bar
	var bar *progressbar.ProgressBar
	if util.ShowProgress() && !util.IsVerbose() {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Reading tags"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	type readResult struct {
		item catalog.IngestItem
		ok   bool
	}
	mapper := iter.Mapper[string, readResult]{MaxGoroutines: workers}
	results := mapper.Map(files, func(path *string) readResult {
		item, err := tags.Read(*path)
		if bar != nil {
			bar.Add(1)
		}
		if err != nil {
			util.WarnLog("Skipping %s: %v", *path, err)
			return readResult{}
		}
		return readResult{item: item, ok: true}
	})

	if bar != nil {
		bar.Finish()
	}

	items := make([]catalog.IngestItem, 0, len(results))
	for _, r := range results {
		if r.ok {
			items = append(items, r.item)
		}
	}
	return items
}
