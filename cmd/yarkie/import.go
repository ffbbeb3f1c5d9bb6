package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/franz/yarkie/internal/playlist"
	"github.com/franz/yarkie/internal/util"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <playlist.json>...",
	Short: "Import playlist dumps produced by yt-dlp -J",
	Long: `Import one or more playlist dumps (yt-dlp -J --flat-playlist works too).

Playlists and items are upserted by id: titles and descriptions are refreshed,
while download state, the tune flag and Discogs links of known items are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	importer := playlist.NewImporter(db, logger)

	total := 0
	for _, path := range args {
		dump, err := playlist.ReadFile(path)
		if err != nil {
			return err
		}

		result, err := importer.Import(dump)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		total += result.Items

		if result.PlaylistID == "" {
			util.SuccessLog("Imported video %s", dump.ID)
			continue
		}
		util.SuccessLog("Imported playlist %q (%s): %s items", dump.Title, result.PlaylistID, humanize.Comma(int64(result.Items)))
		if result.Skipped > 0 {
			util.WarnLog("Skipped %d unavailable entries", result.Skipped)
		}
	}

	counts, err := db.GetCatalogCounts()
	if err != nil {
		return err
	}
	util.InfoLog("Catalogue: %s items, %s waiting for enrichment",
		humanize.Comma(int64(counts.Items)), humanize.Comma(int64(counts.Unenriched)))
	util.DebugLog("Imported %d items in total", total)
	return nil
}
