package main

import (
	"fmt"
	"strconv"

	"github.com/franz/yarkie/internal/report"
	"github.com/franz/yarkie/internal/util"
	"github.com/spf13/cobra"
)

var playlistCmd = &cobra.Command{
	Use:     "playlist",
	Aliases: []string{"playlists"},
	Short:   "List imported playlists",
	Long: `List imported playlists with their entry counts.

Use the disable and delete subcommands to maintain them.`,
	Args: cobra.NoArgs,
	RunE: runPlaylistList,
}

var playlistDisableCmd = &cobra.Command{
	Use:   "disable <playlist-id>...",
	Short: "Disable playlists; their entries stay in the catalogue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlaylistDisable,
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <playlist-id>...",
	Short: "Delete playlists and their entries; items are kept",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlaylistDelete,
}

func init() {
	rootCmd.AddCommand(playlistCmd)
	playlistCmd.AddCommand(playlistDisableCmd, playlistDeleteCmd)
}

func runPlaylistList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	playlists, err := db.ListPlaylists()
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		util.InfoLog("No playlists imported yet")
		return nil
	}

	rows := make([][]string, len(playlists))
	for i, p := range playlists {
		rows[i] = []string{p.ID, p.Title, strconv.Itoa(p.Items), flag(p.Enabled)}
	}
	fmt.Println(report.RenderTable(
		[]string{"ID", "Title", "Items", "Enabled"},
		rows,
		[]report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignRight},
	))
	return nil
}

func runPlaylistDisable(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	util.InfoLog("Disabling %d playlist(s)...", len(args))
	n, err := db.DisablePlaylists(args)
	if err != nil {
		return err
	}
	if n == 0 {
		util.WarnLog("No playlists were disabled")
		return nil
	}
	util.SuccessLog("Disabled %d playlist(s)", n)
	return nil
}

func runPlaylistDelete(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	util.InfoLog("Deleting %d playlist(s)...", len(args))
	n, err := db.DeletePlaylists(args)
	if err != nil {
		return err
	}
	if n == 0 {
		util.WarnLog("No playlists were deleted")
		return nil
	}
	util.SuccessLog("Deleted %d playlist(s) and their entries", n)
	return nil
}
