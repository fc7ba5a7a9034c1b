package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/cobra"
)

var playlistCmd = &cobra.Command{
	Use:     "playlist",
	Aliases: []string{"pl"},
	Short:   "Manage playlists",
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create <name> [song-id...]",
	Short: "Create a playlist",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlaylistCreate,
}

var playlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playlists",
	Args:  cobra.NoArgs,
	RunE:  runPlaylistList,
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <playlist-id>",
	Short: "Show the songs of a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistShow,
}

var playlistRenameCmd = &cobra.Command{
	Use:   "rename <playlist-id> <new-name>",
	Short: "Rename a playlist",
	Args:  cobra.ExactArgs(2),
	RunE:  runPlaylistRename,
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <playlist-id> <song-id>...",
	Short: "Append songs to a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPlaylistAdd,
}

var playlistRemoveCmd = &cobra.Command{
	Use:   "remove <playlist-id> <song-id>...",
	Short: "Remove songs from a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPlaylistRemove,
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <playlist-id>",
	Short: "Delete a playlist (use --name to delete by name)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlaylistDelete,
}

func init() {
	rootCmd.AddCommand(playlistCmd)
	playlistCmd.AddCommand(playlistCreateCmd, playlistListCmd, playlistShowCmd,
		playlistRenameCmd, playlistAddCmd, playlistRemoveCmd, playlistDeleteCmd)

	playlistDeleteCmd.Flags().String("name", "", "delete the playlist with this exact name")
}

func runPlaylistCreate(cmd *cobra.Command, args []string) error {
	var ids []uint32
	if len(args) > 1 {
		var err error
		if ids, err = parseIDs(args[1:]); err != nil {
			return err
		}
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("playlist-create", lib.Root, args, func() (interface{}, error) {
		id, err := lib.CreatePlaylist(args[0], ids)
		if err != nil {
			return nil, err
		}
		util.SuccessLog("Created playlist %q (id %d, %d songs)", args[0], id, len(ids))
		return map[string]uint32{"id": id}, nil
	})
}

func runPlaylistList(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	summaries, err := lib.ListPlaylists()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tNAME\tSONGS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%d\n", s.ID, s.Name, s.SongCount)
	}
	return nil
}

func runPlaylistShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	pl, err := lib.LoadPlaylist(id)
	if err != nil {
		return err
	}
	view, err := lib.View()
	if err != nil {
		return err
	}

	byID := make(map[uint32]catalog.SongView, len(view.Songs))
	for _, s := range view.Songs {
		byID[s.ID] = s
	}

	fmt.Printf("%s (%d songs)\n", pl.Name, len(pl.SongIDs))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "#\tID\tTITLE\tARTIST\tALBUM")
	for i, sid := range pl.SongIDs {
		s, ok := byID[sid]
		if !ok {
			fmt.Fprintf(w, "%d\t%d\t(deleted)\t\t\n", i+1, sid)
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", i+1, sid, s.Title, s.Artist, s.Album)
	}
	return nil
}

func runPlaylistRename(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("playlist-rename", lib.Root, args, func() (interface{}, error) {
		if err := lib.RenamePlaylist(id, args[1]); err != nil {
			return nil, err
		}
		util.SuccessLog("Renamed playlist %d to %q", id, args[1])
		return nil, nil
	})
}

func runPlaylistAdd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	songs, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("playlist-add", lib.Root, args, func() (interface{}, error) {
		added, err := lib.AddToPlaylist(id, songs)
		if err != nil {
			return nil, err
		}
		util.SuccessLog("Added %d songs to playlist %d", added, id)
		return map[string]int{"added": added}, nil
	})
}

func runPlaylistRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	songs, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("playlist-remove", lib.Root, args, func() (interface{}, error) {
		removed, err := lib.RemoveFromPlaylist(id, songs)
		if err != nil {
			return nil, err
		}
		util.SuccessLog("Removed %d entries from playlist %d", removed, id)
		return map[string]int{"removed": removed}, nil
	})
}

func runPlaylistDelete(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if (name == "") == (len(args) == 0) {
		return fmt.Errorf("give either a playlist id or --name: %w", util.ErrValidation)
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	if name != "" {
		return record("playlist-delete", lib.Root, []string{"--name", name}, func() (interface{}, error) {
			found, err := lib.DeletePlaylistByName(name)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, fmt.Errorf("playlist %q: %w", name, util.ErrNotFound)
			}
			util.SuccessLog("Deleted playlist %q", name)
			return nil, nil
		})
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return record("playlist-delete", lib.Root, args, func() (interface{}, error) {
		if err := lib.DeletePlaylist(id); err != nil {
			return nil, err
		}
		util.SuccessLog("Deleted playlist %d", id)
		return nil, nil
	})
}
