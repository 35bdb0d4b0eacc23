package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vahan-scraper/internal/application/port/input"
	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
	"vahan-scraper/internal/retry"
)

var _ input.ScrapeRunner = (*UseCase)(nil)

// Timings are the fixed settle waits between dashboard steps.
type Timings struct {
	AfterNavigate      time.Duration
	AfterRefresh       time.Duration
	AfterPanel         time.Duration
	BetweenCheckboxes  time.Duration
	BeforeVerify       time.Duration
	AfterFilterRefresh time.Duration
	InterTask          time.Duration
}

type Config struct {
	RunID           string
	Layout          entity.DashboardLayout
	DownloadEnabled bool

	SelectPolicy   entity.RetryPolicy
	ClickPolicy    entity.RetryPolicy
	DownloadPolicy entity.RetryPolicy

	Timings Timings
}

func DefaultConfig() Config {
	return Config{
		Layout:          entity.DefaultDashboardLayout(),
		DownloadEnabled: true,
		SelectPolicy:    entity.RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second},
		ClickPolicy:     entity.RetryPolicy{MaxAttempts: 10, Delay: 2 * time.Second},
		DownloadPolicy:  entity.RetryPolicy{MaxAttempts: 5, Delay: 2 * time.Second},
		Timings: Timings{
			AfterNavigate:      3 * time.Second,
			AfterRefresh:       3 * time.Second,
			AfterPanel:         2 * time.Second,
			BetweenCheckboxes:  time.Second,
			BeforeVerify:       5 * time.Second,
			AfterFilterRefresh: 5 * time.Second,
			InterTask:          5 * time.Second,
		},
	}
}

var singleShot = entity.RetryPolicy{MaxAttempts: 1}

type UseCase struct {
	driver      output.UIDriver
	verifier    input.FilterVerifier
	filters     *entity.FilterTable
	progress    output.ProgressStore
	finalizer   output.ArtifactFinalizer
	diagnostics output.Diagnostics
	reporter    output.RunReporter
	logger      output.LoggerPort
	cfg         Config

	sleep func(ctx context.Context, d time.Duration) error
}

// New wires the orchestrator. diagnostics may be nil.
func New(
	driver output.UIDriver,
	verifier input.FilterVerifier,
	filters *entity.FilterTable,
	progress output.ProgressStore,
	finalizer output.ArtifactFinalizer,
	diagnostics output.Diagnostics,
	reporter output.RunReporter,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	return &UseCase{
		driver:      driver,
		verifier:    verifier,
		filters:     filters,
		progress:    progress,
		finalizer:   finalizer,
		diagnostics: diagnostics,
		reporter:    reporter,
		logger:      logger,
		cfg:         cfg,
		sleep:       retry.Sleep,
	}
}

// Run walks the queue one task at a time. Tasks already done in the progress
// store are skipped. A cancelled ctx stops the loop after the in-flight task;
// the summary is always returned and reported.
func (uc *UseCase) Run(ctx context.Context, tasks []entity.Task) *entity.RunSummary {
	summary := &entity.RunSummary{RunID: uc.cfg.RunID, Total: len(tasks)}
	uc.logger.Info("Scrape run starting", "run_id", uc.cfg.RunID, "tasks", len(tasks))

	uc.walk(ctx, tasks, summary)

	uc.logger.Info("Scrape run finished",
		"run_id", uc.cfg.RunID,
		"completed", summary.Completed(),
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
		"interrupted", summary.Interrupted,
	)
	uc.reporter.ShowSummary(ctx, summary)
	return summary
}

func (uc *UseCase) walk(ctx context.Context, tasks []entity.Task, summary *entity.RunSummary) {
	defer func() {
		if r := recover(); r != nil {
			summary.Aborted = fmt.Sprint(r)
			uc.logger.Error("Unexpected error in run loop", "error", summary.Aborted)
		}
	}()

	for i, task := range tasks {
		if ctx.Err() != nil {
			summary.Interrupted = true
			uc.logger.Warn("Run interrupted", "remaining", len(tasks)-i)
			return
		}

		if status := uc.progress.Status(task.ID); status.IsDone() {
			uc.reporter.ShowTaskSkipped(ctx, i+1, len(tasks), task.ID, status)
			summary.Skipped++
			summary.Results = append(summary.Results, entity.TaskResult{
				ID:      task.ID,
				Outcome: entity.OutcomeSkipped,
				Status:  status,
			})
			continue
		}

		uc.reporter.ShowTaskStart(ctx, i+1, len(tasks), task.ID)
		res := uc.runTask(ctx, task)
		summary.Results = append(summary.Results, res)
		uc.reporter.ShowTaskResult(ctx, res)

		switch res.Outcome {
		case entity.OutcomeSucceeded:
			summary.Succeeded++
		case entity.OutcomeFailed:
			summary.Failed = append(summary.Failed, task.ID)
		case entity.OutcomeInterrupted:
			summary.Interrupted = true
			return
		}

		if i < len(tasks)-1 {
			uc.logger.Debug("Waiting before next task", "delay", uc.cfg.Timings.InterTask)
			if err := uc.sleep(ctx, uc.cfg.Timings.InterTask); err != nil {
				summary.Interrupted = true
				return
			}
		}
	}
}

// attempt carries what one task run has learned so far.
type attempt struct {
	task   entity.Task
	log    output.LoggerPort
	report *entity.VerificationReport
	status entity.TaskStatus
}

func (uc *UseCase) runTask(ctx context.Context, task entity.Task) (res entity.TaskResult) {
	a := &attempt{
		task: task,
		log:  uc.logger.WithField("task", task.ID.String()),
	}
	res = entity.TaskResult{ID: task.ID}

	defer func() {
		if r := recover(); r != nil {
			res = uc.fail(ctx, a, fmt.Errorf("panic: %v", r))
		}
	}()

	uc.record(a, entity.TaskStatusStarted, nil)

	artifact, err := uc.scrape(ctx, a)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		a.log.Warn("Task interrupted", "status", a.status)
		res.Outcome = entity.OutcomeInterrupted
		res.Status = a.status
		res.Error = ctx.Err().Error()
		return res
	case errors.Is(err, entity.ErrDownloadFailed), errors.Is(err, entity.ErrFinalizeFailed):
		a.log.Error("Download failed", "error", err)
		uc.record(a, entity.TaskStatusDownloadFailed, &entity.RecordDetails{
			Verification: a.report,
			ErrorMessage: err.Error(),
		})
		res.Outcome = entity.OutcomeFailed
		res.Status = entity.TaskStatusDownloadFailed
		res.Error = err.Error()
		return res
	default:
		return uc.fail(ctx, a, err)
	}

	final := entity.TaskStatusCompleted
	if !uc.cfg.DownloadEnabled {
		final = a.status
	}
	uc.record(a, final, &entity.RecordDetails{Verification: a.report, Artifact: artifact})

	a.log.Info("Task finished", "status", final, "artifact", artifact)
	res.Outcome = entity.OutcomeSucceeded
	res.Status = final
	res.Artifact = artifact
	return res
}

func (uc *UseCase) fail(ctx context.Context, a *attempt, err error) entity.TaskResult {
	a.log.Error("Task failed", "error", err)

	if uc.diagnostics != nil {
		if path, derr := uc.diagnostics.Capture(ctx, a.task.ID); derr != nil {
			a.log.Debug("No diagnostics captured", "error", derr)
		} else {
			a.log.Info("Saved failure screenshot", "path", path)
		}
	}

	uc.record(a, entity.TaskStatusError, &entity.RecordDetails{
		Verification: a.report,
		ErrorMessage: err.Error(),
	})
	return entity.TaskResult{
		ID:      a.task.ID,
		Outcome: entity.OutcomeFailed,
		Status:  entity.TaskStatusError,
		Error:   err.Error(),
	}
}

// record updates the store. A persistence failure is logged by the store and
// does not stop the task.
func (uc *UseCase) record(a *attempt, status entity.TaskStatus, details *entity.RecordDetails) {
	a.status = status
	if err := uc.progress.Update(a.task.ID, status, details); err != nil {
		a.log.Warn("Progress not persisted", "status", status, "error", err)
	}
}

func (uc *UseCase) scrape(ctx context.Context, a *attempt) (string, error) {
	layout := uc.cfg.Layout
	task := a.task
	a.log.Info("Scraping", "state", task.ID.State, "rto", task.ID.RTO, "year", task.ID.Year, "product", task.ID.Product)

	if err := uc.driver.Navigate(ctx, layout.URL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := uc.sleep(ctx, uc.cfg.Timings.AfterNavigate); err != nil {
		return "", err
	}

	steps := []struct {
		dropdown, option, name string
		required               bool
	}{
		{layout.StateDropdown, task.StateLocator, "State", true},
		{layout.RTODropdown, task.RTOLocator, "RTO", true},
		{layout.YAxisDropdown, layout.YAxisOption, "Y-axis", false},
		{layout.XAxisDropdown, layout.XAxisOption, "X-axis", false},
		{layout.YearDropdown, task.YearLocator, "Year", true},
	}
	for _, s := range steps {
		if uc.driver.Select(ctx, s.dropdown, s.option, s.name, uc.cfg.SelectPolicy) {
			continue
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if s.required {
			return "", fmt.Errorf("%w: %s", entity.ErrSelectionFailed, s.name)
		}
		a.log.Warn("Optional selection failed, continuing", "target", s.name)
	}

	uc.clickBestEffort(ctx, a, layout.RefreshButton, "Refresh")
	if err := uc.sleep(ctx, uc.cfg.Timings.AfterRefresh); err != nil {
		return "", err
	}
	uc.clickBestEffort(ctx, a, layout.FilterPanelToggle, "Expand filter panel")
	if err := uc.sleep(ctx, uc.cfg.Timings.AfterPanel); err != nil {
		return "", err
	}

	if err := uc.selectFilters(ctx, a); err != nil {
		return "", err
	}
	if err := uc.sleep(ctx, uc.cfg.Timings.BeforeVerify); err != nil {
		return "", err
	}

	passed, report := uc.verifier.Verify(ctx, task.ID.Product)
	a.report = report
	if passed {
		uc.record(a, entity.TaskStatusVerificationPassed, &entity.RecordDetails{Verification: report})
	} else {
		a.log.Warn("Filter verification failed, downloading anyway")
		uc.record(a, entity.TaskStatusVerificationFailed, &entity.RecordDetails{Verification: report})
	}

	uc.clickBestEffort(ctx, a, layout.FilterRefreshButton, "Refresh filters")
	if err := uc.sleep(ctx, uc.cfg.Timings.AfterFilterRefresh); err != nil {
		return "", err
	}

	if !uc.cfg.DownloadEnabled {
		return "", nil
	}
	return uc.download(ctx, a)
}

func (uc *UseCase) clickBestEffort(ctx context.Context, a *attempt, locator, name string) {
	if !uc.driver.Click(ctx, locator, name, uc.cfg.ClickPolicy) {
		a.log.Warn("Click failed, continuing", "target", name)
	}
}

func (uc *UseCase) selectFilters(ctx context.Context, a *attempt) error {
	sel, err := uc.filters.Selection(a.task.ID.Product)
	if err != nil {
		return err
	}

	groups := []struct {
		table string
		kind  string
		items []entity.FilterItem
	}{
		{uc.filters.CategoryTable(), "Vehicle category", sel.Categories},
		{uc.filters.FuelTable(), "Fuel", sel.Fuels},
		{uc.filters.ClassTable(), "Vehicle class", sel.Classes},
	}

	for _, g := range groups {
		a.log.Info("Selecting filters", "kind", g.kind, "count", len(g.items))
		for _, item := range g.items {
			desc := fmt.Sprintf("%s: %s", g.kind, item.Label)
			if !uc.driver.SelectCheckbox(ctx, entity.CheckboxLocator(g.table, item.Row), entity.LabelLocator(g.table, item.Row), desc) {
				a.log.Warn("Checkbox not selected", "target", desc)
			}
			if err := uc.sleep(ctx, uc.cfg.Timings.BetweenCheckboxes); err != nil {
				return err
			}
		}
	}
	return nil
}

// download clicks the export control and files the result. A click that
// never lands is retried under the download policy; a landed click whose
// file cannot be finalized is not.
func (uc *UseCase) download(ctx context.Context, a *attempt) (string, error) {
	var artifact string

	err := retry.Do(ctx, uc.cfg.DownloadPolicy, func(n int) error {
		a.log.Info("Download attempt", "attempt", n)
		since := time.Now()
		if !uc.driver.Click(ctx, uc.cfg.Layout.DownloadButton, "Download", singleShot) {
			return errors.New("download control not clickable")
		}

		path, err := uc.finalizer.Finalize(ctx, a.task.ID, since)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return retry.Permanent(fmt.Errorf("%w: %v", entity.ErrFinalizeFailed, err))
		}
		artifact = path
		return nil
	})

	switch {
	case err == nil:
		return artifact, nil
	case ctx.Err() != nil, errors.Is(err, entity.ErrFinalizeFailed):
		return "", err
	default:
		return "", fmt.Errorf("%w after %d attempts: %v", entity.ErrDownloadFailed, uc.cfg.DownloadPolicy.Attempts(), err)
	}
}
