package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalogue statistics and whether compaction is due",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the catalogue without deleted songs",
	Long: `Rewrite library.bin keeping only active songs and the artists, albums
and strings they use. Song ids change: every playlist is rewritten to the
new ids and entries for removed songs are dropped. Audio files no longer
referenced by any song are deleted.

Compaction refuses to start if any playlist is unreadable.`,
	Args: cobra.NoArgs,
	RunE: runCompact,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(compactCmd)

	compactCmd.Flags().Bool("if-needed", false, "only compact when stats recommend it")
}

func runStats(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	stats, err := lib.Stats()
	if err != nil {
		return err
	}
	printStats(stats)
	return nil
}

func printStats(s *catalog.Stats) {
	fmt.Printf("Songs:          %s (%s active, %s deleted)\n",
		humanize.Comma(int64(s.TotalSongs)), humanize.Comma(int64(s.ActiveSongs)), humanize.Comma(int64(s.DeletedSongs)))
	fmt.Printf("Artists:        %s\n", humanize.Comma(int64(s.TotalArtists)))
	fmt.Printf("Albums:         %s\n", humanize.Comma(int64(s.TotalAlbums)))
	fmt.Printf("Strings:        %s\n", humanize.Comma(int64(s.TotalStrings)))
	fmt.Printf("Deleted:        %.1f%%\n", s.DeletedPercentage)
	fmt.Printf("File size:      %s\n", humanize.Bytes(uint64(s.FileSizeBytes)))
	if s.ShouldCompact {
		fmt.Println("Compaction recommended (run 'jp3 compact')")
	}
}

func runCompact(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	ifNeeded, _ := cmd.Flags().GetBool("if-needed")
	if ifNeeded {
		stats, err := lib.Stats()
		if err != nil {
			return err
		}
		if !stats.ShouldCompact {
			util.InfoLog("Compaction not needed (%.1f%% deleted)", stats.DeletedPercentage)
			return nil
		}
	}

	return record("compact", lib.Root, args, func() (interface{}, error) {
		res, err := lib.Compact()
		if err != nil {
			return nil, err
		}
		util.SuccessLog("Compacted: %d songs, %d artists, %d albums, %d strings removed",
			res.SongsRemoved, res.ArtistsRemoved, res.AlbumsRemoved, res.StringsRemoved)
		util.InfoLog("Size: %s -> %s (saved %s)",
			humanize.Bytes(uint64(res.OldSizeBytes)), humanize.Bytes(uint64(res.NewSizeBytes)),
			humanize.Bytes(uint64(res.BytesSaved)))
		if res.BlobsDeleted > 0 {
			util.InfoLog("Deleted %d audio files", res.BlobsDeleted)
		}
		if res.PlaylistsUpdated > 0 {
			util.InfoLog("Rewrote %d playlists", res.PlaylistsUpdated)
		}
		return res, nil
	})
}
