package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/franz/yarkie/internal/meta"
	"github.com/franz/yarkie/internal/report"
	"github.com/franz/yarkie/internal/store"
	"github.com/franz/yarkie/internal/util"
)

// ItemSource hands out items that have no catalog track yet
type ItemSource interface {
	NextUnenrichedItem(offset int, random bool) (*store.Item, error)
	CountUnenriched() (int, error)
}

// RunOptions controls a batch run
type RunOptions struct {
	Mode   string // recorded in the summary
	Offset int    // skip this many unenriched items (ignored when Random)
	Random bool
	// Limit caps the number of processed items. 0 means until no
	// unenriched item is left, or the unenriched count at start when Random.
	Limit        int
	Progress     bool
	ReadFileTags bool
}

// Runner walks the unenriched items and runs the workflow on each
type Runner struct {
	workflow *Workflow
	items    ItemSource
}

// NewRunner creates a batch runner
func NewRunner(workflow *Workflow, items ItemSource) *Runner {
	return &Runner{
		workflow: workflow,
		items:    items,
	}
}

// resettable strategies keep per-item state that must be cleared between items
type resettable interface {
	Reset()
}

// Run processes items until the pool is exhausted, the limit is reached, the
// strategy declines to continue after a failure, or ctx is cancelled.
// Items that stay unenriched advance the offset so they are not offered again
// in the same run.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*report.Summary, error) {
	summary := report.NewSummary(opts.Mode)
	defer summary.Finish()

	total, err := r.items.CountUnenriched()
	if err != nil {
		return summary, fmt.Errorf("failed to count unenriched items: %w", err)
	}

	limit := opts.Limit
	if opts.Random && limit <= 0 {
		limit = total
		if limit == 0 {
			summary.Remaining = 0
			return summary, nil
		}
	}

	offset := opts.Offset
	if offset < 0 || opts.Random {
		offset = 0
	}

	var bar *progressbar.ProgressBar
	if opts.Progress && !util.IsQuiet() {
		size := total - offset
		if limit > 0 && limit < size {
			size = limit
		}
		if size <= 0 {
			size = -1
		}
		bar = progressbar.NewOptions(size,
			progressbar.OptionSetDescription("Enriching"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("items"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	processed := 0
	for limit <= 0 || processed < limit {
		if err := ctx.Err(); err != nil {
			return r.finish(summary, bar), err
		}

		item, err := r.items.NextUnenrichedItem(offset, opts.Random)
		if err != nil {
			return r.finish(summary, bar), fmt.Errorf("failed to load next item: %w", err)
		}
		if item == nil {
			break
		}

		if s, ok := r.workflow.strategy.(resettable); ok {
			s.Reset()
		}

		result := r.workflow.Process(ctx, item, QueriesFor(item, opts.ReadFileTags))
		processed++
		r.record(summary, result)
		if bar != nil {
			bar.Add(1)
		}

		if err := ctx.Err(); err != nil {
			return r.finish(summary, bar), err
		}

		// a failure after the track upsert still moves the item out of the pool
		if result.TrackID == 0 && !opts.Random {
			offset++
		}

		if result.Err != nil && !r.workflow.strategy.ContinueAfterError(result.Err) {
			util.WarnLog("Stopping after failure on %s", item.ID)
			break
		}
	}

	return r.finish(summary, bar), nil
}

func (r *Runner) finish(summary *report.Summary, bar *progressbar.ProgressBar) *report.Summary {
	if bar != nil {
		bar.Finish()
	}
	if remaining, err := r.items.CountUnenriched(); err == nil {
		summary.Remaining = remaining
	} else {
		util.WarnLog("Failed to count remaining items: %v", err)
	}
	return summary
}

func (r *Runner) record(summary *report.Summary, result *Result) {
	switch {
	case result.Success:
		summary.Record(result.ItemID, report.OutcomePersisted, result.Message)
		util.SuccessLog("[%s] %s", result.ItemID, result.Message)
	case result.Err != nil:
		summary.Record(result.ItemID, report.OutcomeFailed, result.Err.Error())
		util.ErrorLog("[%s] %s", result.ItemID, result.Message)
	default:
		summary.Record(result.ItemID, report.OutcomeAbandoned, result.Message)
		util.InfoLog("[%s] %s", result.ItemID, result.Message)
	}
}

// QueriesFor builds the query menu, adding embedded tags of the local
// video file when asked to
func QueriesFor(item *store.Item, readTags bool) []string {
	var tags *meta.FileTags
	if readTags && item.VideoFile != "" {
		t, err := meta.ReadFileTags(item.VideoFile)
		if err != nil {
			util.DebugLog("No tags in %s: %v", item.VideoFile, err)
		} else {
			tags = t
		}
	}
	return meta.GenerateQueries(item, tags)
}
