package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Outcome is the terminal state of one item in a batch
type Outcome string

const (
	OutcomePersisted Outcome = "persisted"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeFailed    Outcome = "failed"
)

// ItemOutcome records how one item ended
type ItemOutcome struct {
	ItemID  string
	Outcome Outcome
	Message string
}

// Summary collects the outcomes of a batch run
type Summary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []ItemOutcome
	Remaining  int // unenriched items left after the run

	DatabasePath string
	EventLogPath string
	Mode         string
}

// NewSummary starts a summary clock
func NewSummary(mode string) *Summary {
	return &Summary{
		StartedAt: time.Now(),
		Mode:      mode,
	}
}

// Record appends the outcome of one item
func (s *Summary) Record(itemID string, outcome Outcome, message string) {
	s.Items = append(s.Items, ItemOutcome{ItemID: itemID, Outcome: outcome, Message: message})
}

// Count returns how many items ended with the given outcome
func (s *Summary) Count(outcome Outcome) int {
	n := 0
	for _, item := range s.Items {
		if item.Outcome == outcome {
			n++
		}
	}
	return n
}

// Finish stops the clock
func (s *Summary) Finish() {
	s.FinishedAt = time.Now()
}

// Duration returns the elapsed run time
func (s *Summary) Duration() time.Duration {
	end := s.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartedAt)
}

// TopErrors groups failure messages by frequency, most common first
func (s *Summary) TopErrors(limit int) []ErrorSummary {
	counts := make(map[string]int)
	for _, item := range s.Items {
		if item.Outcome == OutcomeFailed {
			counts[item.Message]++
		}
	}

	errors := make([]ErrorSummary, 0, len(counts))
	for msg, count := range counts {
		errors = append(errors, ErrorSummary{Error: msg, Count: count})
	}
	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	if limit > 0 && len(errors) > limit {
		errors = errors[:limit]
	}
	return errors
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// Render returns the summary as a console table
func (s *Summary) Render() string {
	rows := [][]string{
		{"Processed", humanize.Comma(int64(len(s.Items)))},
		{"Persisted", humanize.Comma(int64(s.Count(OutcomePersisted)))},
		{"Abandoned", humanize.Comma(int64(s.Count(OutcomeAbandoned)))},
		{"Failed", humanize.Comma(int64(s.Count(OutcomeFailed)))},
		{"Remaining", humanize.Comma(int64(s.Remaining))},
		{"Duration", s.Duration().Round(time.Second).String()},
	}
	return RenderTable([]string{"Metric", "Value"}, rows, []Alignment{AlignLeft, AlignRight})
}

// WriteMarkdownReport writes the summary as Markdown
func WriteMarkdownReport(s *Summary, outputPath string) error {
	// Create output directory
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# yarkie - Discogs Enrichment Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", s.FinishedAt.Format("2006-01-02 15:04:05")))

	if s.Mode != "" {
		md.WriteString(fmt.Sprintf("**Mode:** %s\n\n", s.Mode))
	}
	if s.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", s.DatabasePath))
	}
	if s.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", s.EventLogPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Items Processed | %d |\n", len(s.Items)))
	md.WriteString(fmt.Sprintf("| Persisted | %d |\n", s.Count(OutcomePersisted)))
	md.WriteString(fmt.Sprintf("| Abandoned | %d |\n", s.Count(OutcomeAbandoned)))
	if failed := s.Count(OutcomeFailed); failed > 0 {
		md.WriteString(fmt.Sprintf("| Failed | %d |\n", failed))
	}
	md.WriteString(fmt.Sprintf("| Remaining Unenriched | %d |\n", s.Remaining))
	md.WriteString(fmt.Sprintf("| Duration | %s |\n", s.Duration().Round(time.Second)))
	md.WriteString("\n")

	if len(s.Items) > 0 {
		md.WriteString("## Items\n\n")
		md.WriteString("| Item | Outcome | Message |\n")
		md.WriteString("|------|---------|---------|\n")
		for _, item := range s.Items {
			md.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n",
				item.ItemID, item.Outcome, truncate(escapePipes(item.Message), 100)))
		}
		md.WriteString("\n")
	}

	if top := s.TopErrors(10); len(top) > 0 {
		md.WriteString("## Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, e := range top {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", e.Count, escapePipes(e.Error)))
		}
		md.WriteString("\n")
	}

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncate shortens s to at most maxLen runes, keeping start and end
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	start := maxLen/2 - 2
	end := len(runes) - (maxLen/2 - 2)
	return string(runes[:start]) + "..." + string(runes[end:])
}
