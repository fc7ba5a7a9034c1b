package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [songs|albums|artists]",
	Short: "List the active catalogue",
	Long: `List active songs (the default), albums or artists with their ids.
The ids are the ones delete, edit and playlist commands take.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"songs", "albums", "artists"},
	RunE:      runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("filter", "", "only show rows containing this text (case-insensitive)")
	listCmd.Flags().Bool("paths", false, "show the file path of each song")
}

func runList(cmd *cobra.Command, args []string) error {
	what := "songs"
	if len(args) == 1 {
		what = args[0]
	}
	filter, _ := cmd.Flags().GetString("filter")
	showPaths, _ := cmd.Flags().GetBool("paths")

	lib, err := openLibrary()
	if err != nil {
		return err
	}
	view, err := lib.View()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch what {
	case "songs":
		var resolve func(string) (string, error)
		if showPaths {
			resolve = lib.BlobPath
		}
		printSongs(w, view.Songs, filter, resolve)
	case "albums":
		fmt.Fprintln(w, "ID\tALBUM\tARTIST\tYEAR")
		for _, a := range view.Albums {
			if !matches(filter, a.Name, a.ArtistName) {
				continue
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.Name, a.ArtistName, formatYear(a.Year))
		}
	case "artists":
		fmt.Fprintln(w, "ID\tARTIST")
		for _, a := range view.Artists {
			if !matches(filter, a.Name) {
				continue
			}
			fmt.Fprintf(w, "%d\t%s\n", a.ID, a.Name)
		}
	default:
		return fmt.Errorf("unknown list %q (songs, albums or artists)", what)
	}
	return nil
}

// printSongs writes the song table. With a non-nil resolve an extra column
// shows where each blob lives on disk.
func printSongs(w io.Writer, songs []catalog.SongView, filter string, resolve func(string) (string, error)) {
	header := "ID\tTITLE\tARTIST\tALBUM\tTRACK\tLENGTH"
	if resolve != nil {
		header += "\tPATH"
	}
	fmt.Fprintln(w, header)
	for _, s := range songs {
		if !matches(filter, s.Title, s.Artist, s.Album) {
			continue
		}
		track := "-"
		if s.TrackNumber != 0 {
			track = fmt.Sprint(s.TrackNumber)
		}
		line := fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s", s.ID, s.Title, s.Artist, s.Album, track, formatDuration(s.DurationSecs))
		if resolve != nil {
			p, err := resolve(s.Path)
			if err != nil {
				p = "invalid: " + s.Path
			}
			line += "\t" + p
		}
		fmt.Fprintln(w, line)
	}
}

func matches(filter string, fields ...string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), filter) {
			return true
		}
	}
	return false
}

func formatYear(y uint16) string {
	if y == 0 {
		return "-"
	}
	return fmt.Sprint(y)
}
