package userinteraction

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

var (
	_ output.RunReporter   = (*ConsoleReporter)(nil)
	_ output.StageReporter = (*ConsoleReporter)(nil)
)

type ConsoleReporter struct {
	out io.Writer
}

func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	okColor = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
	dim     = color.New(color.Faint)
)

func (c *ConsoleReporter) ShowQueue(ctx context.Context, total int, warnings []entity.QueueWarning) {
	heading.Fprintf(c.out, "\n━━━ Task queue: %d tasks ━━━\n", total)
	for _, w := range warnings {
		warn.Fprintf(c.out, "⚠️  %s\n", w.Message)
	}
}

func (c *ConsoleReporter) ShowTaskStart(ctx context.Context, index, total int, id entity.TaskID) {
	heading.Fprintf(c.out, "\n▶️  Task %d/%d: ", index, total)
	fmt.Fprintln(c.out, id.String())
}

func (c *ConsoleReporter) ShowTaskSkipped(ctx context.Context, index, total int, id entity.TaskID, status entity.TaskStatus) {
	dim.Fprintf(c.out, "⏭️  Skipping (%d/%d): %s [%s]\n", index, total, id.String(), status)
}

func (c *ConsoleReporter) ShowTaskResult(ctx context.Context, result entity.TaskResult) {
	switch result.Outcome {
	case entity.OutcomeSucceeded:
		okColor.Fprintf(c.out, "✅ Task finished: %s", result.ID.String())
		if result.Artifact != "" {
			dim.Fprintf(c.out, " → %s", result.Artifact)
		}
		fmt.Fprintln(c.out)
	case entity.OutcomeInterrupted:
		warn.Fprintf(c.out, "⏸️  Task interrupted: %s\n", result.ID.String())
	default:
		bad.Fprintf(c.out, "❌ Task failed: %s", result.ID.String())
		dim.Fprintf(c.out, " (%s) %s\n", result.Status, truncate(result.Error, 200))
	}
}

func (c *ConsoleReporter) ShowSummary(ctx context.Context, s *entity.RunSummary) {
	heading.Fprintln(c.out, "\n━━━ Scraping completed ━━━")

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.AppendHeader(table.Row{"Run", "Total", "Completed", "Skipped", "Failed"})
	t.AppendRow(table.Row{s.RunID, s.Total, s.Completed(), s.Skipped, len(s.Failed)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if s.Interrupted {
		warn.Fprintln(c.out, "⚠️  Run interrupted by user")
	}
	if s.Aborted != "" {
		bad.Fprintf(c.out, "❌ Unexpected error: %s\n", s.Aborted)
	}
	if len(s.Failed) > 0 {
		bad.Fprintln(c.out, "Failed items:")
		for _, id := range s.Failed {
			fmt.Fprintf(c.out, " - %s\n", id.String())
		}
	}
}

func (c *ConsoleReporter) ShowStage(ctx context.Context, stage, message string) {
	okColor.Fprintf(c.out, "✓ %s: ", stage)
	fmt.Fprintln(c.out, message)
}

func (c *ConsoleReporter) ShowStageWarning(ctx context.Context, stage, message string) {
	warn.Fprintf(c.out, "⚠️  %s: %s\n", stage, message)
}

func (c *ConsoleReporter) ShowStageFailed(ctx context.Context, stage string, err error) {
	bad.Fprintf(c.out, "❌ %s failed: ", stage)
	fmt.Fprintln(c.out, err)
}

// ShowStatus renders progress store counts, most frequent first.
func (c *ConsoleReporter) ShowStatus(counts map[entity.TaskStatus]int) {
	if len(counts) == 0 {
		dim.Fprintln(c.out, "No progress recorded.")
		return
	}

	statuses := make([]entity.TaskStatus, 0, len(counts))
	total := 0
	for s, n := range counts {
		statuses = append(statuses, s)
		total += n
	}
	slices.SortFunc(statuses, func(a, b entity.TaskStatus) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(string(a), string(b))
	})

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.AppendHeader(table.Row{"Status", "Tasks"})
	for _, s := range statuses {
		t.AppendRow(table.Row{s, counts[s]})
	}
	t.AppendFooter(table.Row{"Total", total})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// ShowFailures lists records whose last run ended in a failure status, with
// the recorded error. Nothing is printed when there are none.
func (c *ConsoleReporter) ShowFailures(records []entity.ProgressRecord) {
	var failed []entity.ProgressRecord
	for _, rec := range records {
		switch rec.Status {
		case entity.TaskStatusError, entity.TaskStatusDownloadFailed, entity.TaskStatusVerificationFailed:
			failed = append(failed, rec)
		}
	}
	if len(failed) == 0 {
		return
	}
	slices.SortFunc(failed, func(a, b entity.ProgressRecord) int {
		return strings.Compare(a.TaskID.String(), b.TaskID.String())
	})

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetTitle("Needs attention")
	t.AppendHeader(table.Row{"Task", "Status", "Error"})
	for _, rec := range failed {
		msg := ""
		if rec.Details != nil {
			msg = truncate(rec.Details.ErrorMessage, 60)
		}
		t.AppendRow(table.Row{rec.TaskID.String(), rec.Status, msg})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
