package main

import (
	"fmt"

	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/library"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <song-id>",
	Short: "Change the metadata of a song",
	Long: `Change a song's metadata. Fields not given keep their current value.

The song gets a new id; playlists are updated to point at it. The audio
file is not copied again.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var editAlbumCmd = &cobra.Command{
	Use:   "edit-album <album-id>",
	Short: "Rename an album or move it to another artist",
	Args:  cobra.ExactArgs(1),
	RunE:  runEditAlbum,
}

var editArtistCmd = &cobra.Command{
	Use:   "edit-artist <artist-id> <new-name>",
	Short: "Rename an artist",
	Args:  cobra.ExactArgs(2),
	RunE:  runEditArtist,
}

func init() {
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(editAlbumCmd)
	rootCmd.AddCommand(editArtistCmd)

	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("artist", "", "new artist")
	editCmd.Flags().String("album", "", "new album")
	editCmd.Flags().Uint16("year", 0, "album year (used when the album is new)")
	editCmd.Flags().Uint16("track", 0, "new track number")
	editCmd.Flags().Uint16("duration", 0, "new duration in seconds")

	editAlbumCmd.Flags().String("name", "", "new album name")
	editAlbumCmd.Flags().String("artist", "", "new album artist")
	editAlbumCmd.Flags().Uint16("year", 0, "new year")
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	view, err := lib.View()
	if err != nil {
		return err
	}
	var current *catalog.SongView
	for i := range view.Songs {
		if view.Songs[i].ID == id {
			current = &view.Songs[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("song %d: %w", id, util.ErrNotFound)
	}

	md := catalog.Metadata{
		Title:  current.Title,
		Artist: current.Artist,
		Album:  current.Album,
	}
	var ov overrides
	ov.Title, _ = cmd.Flags().GetString("title")
	ov.Artist, _ = cmd.Flags().GetString("artist")
	ov.Album, _ = cmd.Flags().GetString("album")
	ov.Year, _ = cmd.Flags().GetUint16("year")
	ov.TrackNumber, _ = cmd.Flags().GetUint16("track")
	ov.apply(&md)
	md.DurationSecs, _ = cmd.Flags().GetUint16("duration")

	return record("edit", lib.Root, args, func() (interface{}, error) {
		res, err := lib.Edit([]catalog.SongEdit{{SongID: id, Metadata: md}})
		if res == nil {
			return nil, err
		}
		reportEdit(res)
		return res, err
	})
}

func runEditAlbum(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	var e library.AlbumEdit
	e.Name, _ = cmd.Flags().GetString("name")
	e.Artist, _ = cmd.Flags().GetString("artist")
	e.Year, _ = cmd.Flags().GetUint16("year")

	lib, err := openLibrary()
	if err != nil {
		return err
	}
	if e.Name == "" {
		view, err := lib.View()
		if err != nil {
			return err
		}
		if int(id) >= len(view.Albums) {
			return fmt.Errorf("album %d: %w", id, util.ErrNotFound)
		}
		e.Name = view.Albums[id].Name
	}

	return record("edit-album", lib.Root, args, func() (interface{}, error) {
		res, err := lib.EditAlbum(id, e)
		if res == nil {
			return nil, err
		}
		reportEdit(res)
		return res, err
	})
}

func runEditArtist(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("edit-artist", lib.Root, args, func() (interface{}, error) {
		res, err := lib.EditArtist(id, args[1])
		if res == nil {
			return nil, err
		}
		reportEdit(res)
		return res, err
	})
}

func reportEdit(res *catalog.EditResult) {
	for _, e := range res.Edits {
		util.InfoLog("Song %d is now %d", e.OldID, e.NewID)
	}
	util.SuccessLog("Edited %d songs", len(res.Edits))
	if len(res.Unchanged) > 0 {
		util.InfoLog("Unchanged: %v", res.Unchanged)
	}
	if res.AlbumsUpdated > 0 {
		util.InfoLog("Updated %d albums", res.AlbumsUpdated)
	}
	if res.PlaylistsUpdated > 0 {
		util.InfoLog("Updated %d playlists", res.PlaylistsUpdated)
	}
	if len(res.PlaylistsSkipped) > 0 {
		util.WarnLog("Unreadable playlists not updated: %v", res.PlaylistsSkipped)
	}
	if len(res.NotFound) > 0 {
		util.WarnLog("Not found: %v", res.NotFound)
	}
	if len(res.AlreadyDeleted) > 0 {
		util.WarnLog("Already deleted: %v", res.AlreadyDeleted)
	}
	for _, f := range res.Failures {
		util.WarnLog("Song %d rejected: %v", f.SongID, f.Err)
	}
}
