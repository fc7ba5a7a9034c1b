package main

import (
	"github.com/dustin/go-humanize"
	"github.com/franz/jp3-organiser/internal/library"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the jp3 folder structure",
	Long: `Create jp3/music, jp3/metadata and jp3/playlists under the library
directory. Running it on an existing library is harmless.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show whether a library exists and what it holds",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(infoCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	applyLogLevel()
	base := libraryBase()
	return record("init", library.RootPath(base), args, func() (interface{}, error) {
		root, err := library.Initialize(base, library.Options{})
		if err != nil {
			return nil, err
		}
		util.SuccessLog("Library ready at %s", root)
		return map[string]string{"root": root}, nil
	})
}

func runInfo(cmd *cobra.Command, args []string) error {
	applyLogLevel()
	info, err := library.GetInfo(libraryBase(), library.Options{})
	if err != nil {
		return err
	}

	util.InfoLog("Library root: %s", info.Root)
	if !info.Initialized {
		util.WarnLog("Not initialized (run 'jp3 init')")
		return nil
	}
	util.InfoLog("Music buckets: %d", info.MusicBuckets)
	if !info.HasCatalog {
		util.InfoLog("Catalogue: none yet")
		return nil
	}

	lib, err := openLibrary()
	if err != nil {
		return err
	}
	stats, err := lib.Stats()
	if err != nil {
		return err
	}
	playlists, err := lib.ListPlaylists()
	if err != nil {
		return err
	}
	util.InfoLog("Catalogue: %s, %s active songs, %s artists, %s albums",
		humanize.Bytes(uint64(stats.FileSizeBytes)),
		humanize.Comma(int64(stats.ActiveSongs)),
		humanize.Comma(int64(stats.TotalArtists)),
		humanize.Comma(int64(stats.TotalAlbums)))
	util.InfoLog("Playlists: %d", len(playlists))
	return nil
}
