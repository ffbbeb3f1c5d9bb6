package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/yarkie/internal/report"
	"github.com/franz/yarkie/internal/store"
	"github.com/franz/yarkie/internal/util"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Inspect and maintain catalogue items",
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items",
	RunE:  runItemList,
}

var itemShowCmd = &cobra.Command{
	Use:   "show <item-id>",
	Short: "Show an item with its Discogs release, artists, track and songs",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemShow,
}

var itemTuneCmd = &cobra.Command{
	Use:   "tune <item-id>",
	Short: "Mark an item as music (enrichment candidate)",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemTune,
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Delete an item and its playlist and song links",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemDelete,
}

var itemAttachCmd = &cobra.Command{
	Use:   "attach <item-id> [video-file] [thumbnail]",
	Short: "Record the downloaded video and thumbnail of an item",
	Long: `Record where the downloaded files of an item live.

The video file is read for embedded tags during enrichment and removed by
"item delete --files". Use --clear to mark the item as not downloaded.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runItemAttach,
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemListCmd, itemShowCmd, itemTuneCmd, itemDeleteCmd, itemAttachCmd)

	itemListCmd.Flags().String("downloaded", "", "Filter by download state (0 or 1)")
	itemListCmd.Flags().String("deleted", "", "Filter by deleted state (0 or 1)")
	itemListCmd.Flags().Bool("unenriched", false, "Only tune items without a Discogs track")
	itemListCmd.Flags().Int("limit", 50, "Maximum number of items (0 = all)")

	itemTuneCmd.Flags().Bool("off", false, "Mark the item as not music instead")

	itemDeleteCmd.Flags().Bool("files", false, "Also remove the local video and thumbnail files")

	itemAttachCmd.Flags().Bool("clear", false, "Forget the local files and mark the item as not downloaded")
}

// parseFlagBool turns "0"/"1"/"true"/"false" into a filter; "" means any
func parseFlagBool(name, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s must be 0 or 1", util.ErrInvalidConfig, name)
	}
	return &b, nil
}

func runItemList(cmd *cobra.Command, args []string) error {
	downloadedFlag, _ := cmd.Flags().GetString("downloaded")
	deletedFlag, _ := cmd.Flags().GetString("deleted")
	unenriched, _ := cmd.Flags().GetBool("unenriched")
	limit, _ := cmd.Flags().GetInt("limit")

	downloaded, err := parseFlagBool("downloaded", downloadedFlag)
	if err != nil {
		return err
	}
	deleted, err := parseFlagBool("deleted", deletedFlag)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := db.ListItems(store.ItemFilter{
		Downloaded: downloaded,
		Deleted:    deleted,
		Unenriched: unenriched,
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		util.InfoLog("No items found")
		return nil
	}

	fmt.Println(renderItems(items))
	return nil
}

func renderItems(items []*store.Item) string {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{
			item.ID,
			item.Title,
			item.Uploader,
			formatDuration(item.Duration),
			flag(item.Downloaded),
			flag(item.IsTune),
			flag(item.CatalogTrackID != 0),
		}
	}
	return report.RenderTable(
		[]string{"ID", "Title", "Uploader", "Length", "Downloaded", "Tune", "Enriched"},
		rows,
		[]report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignLeft, report.AlignRight},
	)
}

func runItemShow(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	e, err := db.GetEnrichment(args[0])
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("item %s: %w", args[0], util.ErrNotFound)
	}

	fmt.Print(renderEnrichment(e))
	return nil
}

func renderEnrichment(e *store.Enrichment) string {
	var b strings.Builder
	item := e.Item

	fmt.Fprintf(&b, "%s\n", item.Title)
	fmt.Fprintf(&b, "  ID:        %s\n", item.ID)
	if item.Uploader != "" {
		fmt.Fprintf(&b, "  Uploader:  %s\n", item.Uploader)
	}
	if item.Duration > 0 {
		fmt.Fprintf(&b, "  Length:    %s\n", formatDuration(item.Duration))
	}
	if item.Width > 0 && item.Height > 0 {
		fmt.Fprintf(&b, "  Video:     %dx%d\n", item.Width, item.Height)
	}
	if item.VideoFile != "" {
		fmt.Fprintf(&b, "  File:      %s\n", item.VideoFile)
	}
	fmt.Fprintf(&b, "  Tune:      %s\n", flag(item.IsTune))
	if !item.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "  Updated:   %s\n", humanize.Time(item.LastUpdated))
	}

	if e.Release == nil || e.Track == nil {
		b.WriteString("\nNot linked to Discogs yet\n")
		return b.String()
	}

	year := ""
	if e.Release.Year > 0 {
		year = fmt.Sprintf(" (%d)", e.Release.Year)
	}
	fmt.Fprintf(&b, "\nRelease %d: %s%s\n", e.Release.ID, e.Release.Title, year)
	if len(e.Release.Formats) > 0 {
		fmt.Fprintf(&b, "  Formats:   %s\n", strings.Join(e.Release.Formats, ", "))
	}
	if len(e.Release.Genres) > 0 {
		fmt.Fprintf(&b, "  Genres:    %s\n", strings.Join(append(e.Release.Genres, e.Release.Styles...), ", "))
	}
	fmt.Fprintf(&b, "  Track:     %s %s", e.Track.Position, e.Track.Title)
	if e.Track.Duration != "" {
		fmt.Fprintf(&b, " [%s]", e.Track.Duration)
	}
	b.WriteString("\n")

	if len(e.Artists) > 0 {
		rows := make([][]string, len(e.Artists))
		for i, a := range e.Artists {
			rows[i] = []string{strconv.FormatInt(a.ID, 10), a.Name, a.Role}
		}
		b.WriteString(report.RenderTable([]string{"Artist ID", "Name", "Role"}, rows, []report.Alignment{report.AlignRight}))
		b.WriteString("\n")
	}

	for _, s := range e.Songs {
		fmt.Fprintf(&b, "Song %d: %s - %s (%s)\n", s.ID, s.ArtistName, s.Title, s.VersionType)
	}
	return b.String()
}

func runItemTune(cmd *cobra.Command, args []string) error {
	off, _ := cmd.Flags().GetBool("off")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetTune(args[0], !off); err != nil {
		return err
	}

	if off {
		util.SuccessLog("Item %s is no longer a tune", args[0])
	} else {
		util.SuccessLog("Item %s marked as tune", args[0])
	}
	return nil
}

func runItemDelete(cmd *cobra.Command, args []string) error {
	removeFiles, _ := cmd.Flags().GetBool("files")
	itemID := args[0]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	item, err := db.GetItem(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item %s: %w", itemID, util.ErrNotFound)
	}

	logger := openEventLogger()
	defer logger.Close()

	removed := 0
	if removeFiles {
		removed, err = removeItemFiles(item)
		if err != nil {
			logger.LogDelete(itemID, removed, err)
			return fmt.Errorf("failed to remove files of %s: %w", itemID, err)
		}
	}

	err = db.DeleteItem(itemID)
	logger.LogDelete(itemID, removed, err)
	if err != nil {
		return err
	}

	util.SuccessLog("Deleted item %s (%d files removed)", itemID, removed)
	return nil
}
func runItemAttach(cmd *cobra.Command, args []string) error {
	detach, _ := cmd.Flags().GetBool("clear")
	if detach && len(args) > 1 {
		return fmt.Errorf("%w: --clear takes only the item id", util.ErrInvalidConfig)
	}
	if !detach && len(args) < 2 {
		return fmt.Errorf("%w: a video file is required", util.ErrInvalidConfig)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if detach {
		if err := db.SetDownloaded(args[0], false, "", ""); err != nil {
			return err
		}
		util.SuccessLog("Item %s marked as not downloaded", args[0])
		return nil
	}

	thumbnail := ""
	if len(args) == 3 {
		thumbnail = args[2]
	}
	video, err := attachItemFiles(db, args[0], args[1], thumbnail)
	if err != nil {
		return err
	}
	util.SuccessLog("Item %s downloaded to %s", args[0], video)
	return nil
}

// attachItemFiles stores absolute paths of existing files as the item's
// download and returns the video path
func attachItemFiles(db *store.Store, itemID, videoFile, thumbnail string) (string, error) {
	video, err := existingFile(videoFile)
	if err != nil {
		return "", err
	}
	if thumbnail != "" {
		if thumbnail, err = existingFile(thumbnail); err != nil {
			return "", err
		}
	}
	if err := db.SetDownloaded(itemID, true, video, thumbnail); err != nil {
		return "", err
	}
	return video, nil
}

func existingFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", util.ErrInvalidConfig, abs)
	}
	return abs, nil
}

// removeItemFiles deletes the downloaded video and thumbnail; missing files
// are not an error
func removeItemFiles(item *store.Item) (int, error) {
	removed := 0
	cfg := util.DefaultRetryConfig()
	for _, path := range []string{item.VideoFile, item.Thumbnail} {
		ok, err := util.RemoveLocalFile(path, cfg)
		if err != nil {
			return removed, err
		}
		if ok {
			util.DebugLog("Removed %s", path)
			removed++
		}
	}
	return removed, nil
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

func flag(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
