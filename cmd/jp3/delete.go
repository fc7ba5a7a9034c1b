package main

import (
	"github.com/franz/jp3-organiser/internal/catalog"
	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <song-id>...",
	Short: "Mark songs as deleted and remove their audio files",
	Long: `Flag songs as deleted in the catalogue and remove their audio files.
The catalogue rows stay until 'jp3 compact'. Ids may be given as separate
arguments or comma-separated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

var deleteAlbumCmd = &cobra.Command{
	Use:   "delete-album <album-id>",
	Short: "Delete every active song of an album",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteAlbum,
}

var deleteArtistCmd = &cobra.Command{
	Use:   "delete-artist <artist-id>",
	Short: "Delete every active song of an artist",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteArtist,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(deleteAlbumCmd)
	rootCmd.AddCommand(deleteArtistCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("delete", lib.Root, args, func() (interface{}, error) {
		res, err := lib.Delete(ids)
		if res == nil {
			return nil, err
		}
		reportDelete(res)
		return res, err
	})
}

func runDeleteAlbum(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("delete-album", lib.Root, args, func() (interface{}, error) {
		res, err := lib.DeleteAlbum(id)
		if res == nil {
			return nil, err
		}
		reportDelete(res)
		return res, err
	})
}

func runDeleteArtist(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	return record("delete-artist", lib.Root, args, func() (interface{}, error) {
		res, err := lib.DeleteArtist(id)
		if res == nil {
			return nil, err
		}
		reportDelete(res)
		return res, err
	})
}

func reportDelete(res *catalog.DeleteResult) {
	util.SuccessLog("Deleted %d songs (%d audio files removed)", res.SongsDeleted, res.FilesDeleted)
	if len(res.NotFound) > 0 {
		util.WarnLog("Not found: %v", res.NotFound)
	}
	if len(res.AlreadyDeleted) > 0 {
		util.InfoLog("Already deleted: %v", res.AlreadyDeleted)
	}
}
