package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/franz/yarkie/internal/enrich"
	"github.com/franz/yarkie/internal/report"
	"github.com/franz/yarkie/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var discogsCmd = &cobra.Command{
	Use:   "discogs",
	Short: "Link items to Discogs releases, artists and tracks",
}

var postprocessCmd = &cobra.Command{
	Use:   "postprocess",
	Short: "Enrich every item that has no Discogs track yet",
	Long: `Walk the unenriched tune items and, for each one, pick a search string,
a release, its artists and the matching track.

Interactive by default. With --auto every decision takes the first option,
which suits unattended runs over well-named uploads.

Items left unenriched are skipped for the rest of the run, so a batch never
offers the same item twice unless --random is used.`,
	RunE: runPostprocess,
}

var updateCmd = &cobra.Command{
	Use:   "update <item-id>",
	Short: "Re-enrich a single item, replacing its current Discogs link",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(discogsCmd)
	discogsCmd.AddCommand(postprocessCmd)
	discogsCmd.AddCommand(updateCmd)

	postprocessCmd.Flags().Bool("auto", false, "Answer every prompt with the first option")
	postprocessCmd.Flags().Bool("random", false, "Pick items in random order (ignores --offset)")
	postprocessCmd.Flags().Int("offset", 0, "Skip this many unenriched items")
	postprocessCmd.Flags().Int("limit", 0, "Process at most this many items (0 = all)")
	postprocessCmd.Flags().Bool("no-tags", false, "Do not read embedded tags of downloaded videos")
	postprocessCmd.Flags().Bool("abort-on-error", false, "Stop at the first failed item (with --auto)")

	updateCmd.Flags().Bool("auto", false, "Answer every prompt with the first option")
}

// newStrategy picks scripted answers for --auto, prompts otherwise
func newStrategy(auto, abortOnError bool) enrich.Strategy {
	if auto {
		return &enrich.Scripted{AbortOnError: abortOnError}
	}
	return enrich.NewInteractive(os.Stdin, os.Stdout)
}

// newWorkflow wires the Discogs client, the store and a strategy
func newWorkflow(repo enrich.Repository, strategy enrich.Strategy, logger *report.EventLogger) (*enrich.Workflow, func(), error) {
	client, err := newDiscogsClient()
	if err != nil {
		return nil, nil, err
	}
	util.DebugLog("Searching Discogs by %s", client.SearchType())

	w, err := enrich.NewWorkflow(&enrich.Config{
		Catalog:    client,
		Repo:       repo,
		Strategy:   strategy,
		Policy:     rankPolicy(),
		Logger:     logger,
		MaxRequery: GetConfigInt("enrich.max_requery", enrich.DefaultMaxRequery),
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return w, client.Close, nil
}

func runPostprocess(cmd *cobra.Command, args []string) error {
	auto, _ := cmd.Flags().GetBool("auto")
	random, _ := cmd.Flags().GetBool("random")
	offset, _ := cmd.Flags().GetInt("offset")
	limit, _ := cmd.Flags().GetInt("limit")
	noTags, _ := cmd.Flags().GetBool("no-tags")
	abortOnError, _ := cmd.Flags().GetBool("abort-on-error")

	if offset < 0 || limit < 0 {
		return fmt.Errorf("%w: --offset and --limit must not be negative", util.ErrInvalidConfig)
	}
	if !auto && !util.IsInteractive() {
		return fmt.Errorf("%w: stdin is not a terminal, use --auto", util.ErrInvalidConfig)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	workflow, closeClient, err := newWorkflow(db, newStrategy(auto, abortOnError), logger)
	if err != nil {
		return err
	}
	defer closeClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mode := "interactive"
	if auto {
		mode = "auto"
	}
	util.InfoLog("=== Discogs Enrichment (%s) ===", mode)

	summary, runErr := enrich.NewRunner(workflow, db).Run(ctx, enrich.RunOptions{
		Mode:         mode,
		Offset:       offset,
		Random:       random,
		Limit:        limit,
		Progress:     auto,
		ReadFileTags: !noTags,
	})

	summary.DatabasePath = viper.GetString("db")
	summary.EventLogPath = logger.Path()

	util.InfoLog("")
	fmt.Println(summary.Render())
	writeSummaryReport(summary)

	if runErr != nil {
		return fmt.Errorf("enrichment stopped: %w", runErr)
	}
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	auto, _ := cmd.Flags().GetBool("auto")
	itemID := args[0]

	if !auto && !util.IsInteractive() {
		return fmt.Errorf("%w: stdin is not a terminal, use --auto", util.ErrInvalidConfig)
	}

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

	workflow, closeClient, err := newWorkflow(db, newStrategy(auto, false), logger)
	if err != nil {
		return err
	}
	defer closeClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := workflow.Process(ctx, item, enrich.QueriesFor(item, true))
	switch {
	case result.Success:
		util.SuccessLog("[%s] %s", item.ID, result.Message)
	case result.Err != nil:
		util.ErrorLog("[%s] %s", item.ID, result.Message)
		return result.Err
	default:
		util.InfoLog("[%s] %s", item.ID, result.Message)
	}
	return nil
}

// writeSummaryReport saves the markdown report under artifacts/reports/<timestamp>
func writeSummaryReport(summary *report.Summary) {
	timestamp := time.Now().Format("20060102-150405")
	reportPath := filepath.Join(GetConfigString("artifacts", "artifacts"), "reports", timestamp, "summary.md")

	if err := report.WriteMarkdownReport(summary, reportPath); err != nil {
		util.WarnLog("Failed to write summary report: %v", err)
		return
	}
	util.SuccessLog("Summary report saved to: %s", reportPath)
}
