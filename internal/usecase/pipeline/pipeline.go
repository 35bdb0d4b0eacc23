// Package pipeline runs the end-to-end flow: scrape the live years, inject
// archived years, convert exports to CSV, merge them and optionally mail
// the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"vahan-scraper/internal/application/port/input"
	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

const (
	StageScrape  = "scrape"
	StageArchive = "archive"
	StageConvert = "convert"
	StageMerge   = "merge"
	StageEmail   = "email"
	StageClear   = "clear"
)

var ErrNothingConverted = errors.New("no files were converted")

type Config struct {
	DropDir      string
	ProcessedDir string
	OutputFile   string
	// GroupedDir holds the per-state split of the merged output, if any.
	GroupedDir string
	// ArchiveYears are served from archive folders instead of the dashboard.
	ArchiveYears []string
}

type Request struct {
	Selection input.Selection
	// Recipient is optional; empty skips the email stage.
	Recipient string
}

type Result struct {
	Scrape   *entity.RunSummary
	Warnings []entity.QueueWarning
	Archived int
	Convert  *output.ConvertReport
	Merge    *output.MergeReport
	Emailed  bool
	EmailErr error
}

type Pipeline struct {
	queue     input.QueueBuilder
	scraper   input.ScrapeRunner
	archives  output.ArchiveSource
	converter output.Converter
	merger    output.Merger
	notifier  output.Notifier
	progress  output.ProgressStore
	reporter  output.StageReporter
	logger    output.LoggerPort
	cfg       Config
}

func New(
	queue input.QueueBuilder,
	scraper input.ScrapeRunner,
	archives output.ArchiveSource,
	converter output.Converter,
	merger output.Merger,
	notifier output.Notifier,
	progress output.ProgressStore,
	reporter output.StageReporter,
	logger output.LoggerPort,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		queue:     queue,
		scraper:   scraper,
		archives:  archives,
		converter: converter,
		merger:    merger,
		notifier:  notifier,
		progress:  progress,
		reporter:  reporter,
		logger:    logger,
		cfg:       cfg,
	}
}

// SplitYears separates the years served from archives from those scraped
// live. Order of the input is kept.
func SplitYears(years, archiveYears []string) (archived, live []string) {
	for _, y := range years {
		if slices.Contains(archiveYears, y) {
			archived = append(archived, y)
		} else {
			live = append(live, y)
		}
	}
	return archived, live
}

// Run executes every stage in order. A failed convert or merge stops the
// run with an error; an email failure is reported in the result only.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}
	archived, live := SplitYears(req.Selection.Years, p.cfg.ArchiveYears)
	p.logger.Info("Pipeline started", "live_years", live, "archive_years", archived)

	if len(live) > 0 {
		sel := req.Selection
		sel.Years = live
		res.Scrape, res.Warnings = p.Scrape(ctx, sel)
		if err := ctx.Err(); err != nil {
			return res, err
		}
	}

	for _, year := range archived {
		n, err := p.archives.Inject(ctx, year, p.cfg.DropDir)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			p.reporter.ShowStageWarning(ctx, StageArchive, err.Error())
			continue
		}
		res.Archived += n
		p.reporter.ShowStage(ctx, StageArchive, fmt.Sprintf("%d files injected for %s", n, year))
	}

	conv, err := p.Convert(ctx)
	res.Convert = conv
	if err != nil {
		return res, err
	}

	merged, err := p.Merge(ctx)
	res.Merge = merged
	if err != nil {
		return res, err
	}

	if req.Recipient != "" {
		res.EmailErr = p.Email(ctx, req.Recipient, merged.Output)
		res.Emailed = res.EmailErr == nil
	}

	p.logger.Info("Pipeline finished", "archived", res.Archived, "rows", merged.Rows)
	return res, nil
}

// Scrape builds the task queue for sel and walks it.
func (p *Pipeline) Scrape(ctx context.Context, sel input.Selection) (*entity.RunSummary, []entity.QueueWarning) {
	tasks, warnings := p.queue.Build(sel)
	summary := p.scraper.Run(ctx, tasks)
	p.reporter.ShowStage(ctx, StageScrape, fmt.Sprintf("%d/%d tasks completed", summary.Completed(), summary.Total))
	return summary, warnings
}

func (p *Pipeline) Convert(ctx context.Context) (*output.ConvertReport, error) {
	report, err := p.converter.ConvertAll(ctx, p.cfg.DropDir, p.cfg.ProcessedDir)
	if err != nil {
		p.reporter.ShowStageFailed(ctx, StageConvert, err)
		return report, fmt.Errorf("convert: %w", err)
	}
	if report.Converted == 0 {
		p.reporter.ShowStageFailed(ctx, StageConvert, ErrNothingConverted)
		return report, fmt.Errorf("convert: %w", ErrNothingConverted)
	}

	p.reporter.ShowStage(ctx, StageConvert, fmt.Sprintf("%d of %s converted", report.Converted, countOf(report.Total, "file")))
	for _, name := range report.Skipped {
		p.reporter.ShowStageWarning(ctx, StageConvert, "skipped "+name)
	}
	return report, nil
}

func (p *Pipeline) Merge(ctx context.Context) (*output.MergeReport, error) {
	report, err := p.merger.Merge(ctx, p.cfg.ProcessedDir, p.cfg.OutputFile)
	if err != nil {
		p.reporter.ShowStageFailed(ctx, StageMerge, err)
		return nil, fmt.Errorf("merge: %w", err)
	}

	msg := fmt.Sprintf("%s from %s → %s", countOf(report.Rows, "row"), countOf(report.Files, "file"), report.Output)
	if !report.Grouped {
		p.reporter.ShowStageWarning(ctx, StageMerge, "grouping skipped; "+msg)
	} else {
		p.reporter.ShowStage(ctx, StageMerge, msg)
	}
	return report, nil
}

func (p *Pipeline) Email(ctx context.Context, recipient, file string) error {
	if err := p.notifier.Send(ctx, recipient, file); err != nil {
		p.reporter.ShowStageFailed(ctx, StageEmail, err)
		return fmt.Errorf("email: %w", err)
	}
	p.reporter.ShowStage(ctx, StageEmail, "sent to "+recipient)
	return nil
}

// Clear empties the drop, processed and output directories and forgets all
// progress. The directories themselves are kept.
// Clear empties the drop and processed directories and removes the merged
// output. Only the output file and its grouped split are removed; the
// directory around them may be shared with config and catalog files.
func (p *Pipeline) Clear(ctx context.Context) error {
	var errs []error
	for _, dir := range []string{p.cfg.DropDir, p.cfg.ProcessedDir} {
		n, err := emptyDir(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.logger.Info("Directory cleared", "dir", dir, "removed", n)
	}
	for _, path := range []string{p.cfg.OutputFile, p.cfg.GroupedDir} {
		if path == "" {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		p.logger.Info("Output removed", "path", path)
	}
	if err := p.progress.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear progress: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		p.reporter.ShowStageFailed(ctx, StageClear, err)
		return err
	}
	p.reporter.ShowStage(ctx, StageClear, "downloads, processed files, output and progress cleared")
	return nil
}

func emptyDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return 0, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return len(entries), nil
}

func countOf(n int, word string) string {
	return humanize.Comma(int64(n)) + " " + english.PluralWord(n, word, "")
}
