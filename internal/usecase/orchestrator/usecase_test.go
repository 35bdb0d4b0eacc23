package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahan-scraper/internal/domain/entity"
	"vahan-scraper/internal/infrastructure/browser/driver"
	"vahan-scraper/internal/infrastructure/finalizer"
	"vahan-scraper/internal/infrastructure/logger"
	"vahan-scraper/internal/usecase/verifier"
)

// fakeDriver succeeds at everything unless told otherwise.
type fakeDriver struct {
	mu    sync.Mutex
	calls int

	current      string
	onNavigate   func()
	onClick      func(locator string)
	failSelect   map[string]bool
	panicOnState string
	clickFails   map[string]bool
	clicks       map[string]int
	clickedAt    map[string]time.Time
	probedAt     time.Time
	checked      bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		failSelect: map[string]bool{},
		clickFails: map[string]bool{},
		clicks:     map[string]int{},
		clickedAt:  map[string]time.Time{},
		checked:    true,
	}
}

func (d *fakeDriver) touch() {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
}

func (d *fakeDriver) Navigate(context.Context, string) error {
	d.touch()
	if d.onNavigate != nil {
		d.onNavigate()
	}
	return nil
}

func (d *fakeDriver) Click(_ context.Context, locator, _ string, _ entity.RetryPolicy) bool {
	d.touch()
	d.clicks[locator]++
	d.clickedAt[locator] = time.Now()
	if d.onClick != nil {
		d.onClick(locator)
	}
	return !d.clickFails[locator]
}

func (d *fakeDriver) Select(_ context.Context, _, option, description string, _ entity.RetryPolicy) bool {
	d.touch()
	if description == "State" {
		d.current = option
	}
	return !d.failSelect[description]
}

func (d *fakeDriver) SelectCheckbox(context.Context, string, string, string) bool {
	d.touch()
	if d.panicOnState != "" && d.current == d.panicOnState {
		panic("stale element reference")
	}
	return true
}

func (d *fakeDriver) CheckCheckboxState(context.Context, string, int, string) bool {
	d.touch()
	if d.probedAt.IsZero() {
		d.probedAt = time.Now()
	}
	return d.checked
}

func (d *fakeDriver) RowLabel(context.Context, string, int) string {
	return ""
}

type memStore struct {
	records map[entity.TaskID]entity.ProgressRecord
	history map[entity.TaskID][]entity.TaskStatus
	failing bool
}

func newMemStore() *memStore {
	return &memStore{
		records: map[entity.TaskID]entity.ProgressRecord{},
		history: map[entity.TaskID][]entity.TaskStatus{},
	}
}

func (s *memStore) Status(id entity.TaskID) entity.TaskStatus {
	if r, ok := s.records[id]; ok {
		return r.Status
	}
	return entity.TaskStatusNotStarted
}

func (s *memStore) Record(id entity.TaskID) (entity.ProgressRecord, bool) {
	r, ok := s.records[id]
	return r, ok
}

func (s *memStore) Update(id entity.TaskID, status entity.TaskStatus, details *entity.RecordDetails) error {
	r := s.records[id]
	r.TaskID, r.Status = id, status
	if details != nil {
		r.Details = details
	}
	s.records[id] = r
	s.history[id] = append(s.history[id], status)
	if s.failing {
		return errors.New("disk full")
	}
	return nil
}

func (s *memStore) Summary() map[entity.TaskStatus]int { return nil }
func (s *memStore) Clear() error                       { return nil }

type fakeFinalizer struct {
	err   error
	calls int
	since []time.Time
}

func (f *fakeFinalizer) Finalize(_ context.Context, id entity.TaskID, since time.Time) (string, error) {
	f.calls++
	f.since = append(f.since, since)
	if f.err != nil {
		return "", f.err
	}
	return "downloads/" + id.String() + ".xlsx", nil
}

type fakeDiagnostics struct{ captured []entity.TaskID }

func (f *fakeDiagnostics) Capture(_ context.Context, id entity.TaskID) (string, error) {
	f.captured = append(f.captured, id)
	return "debug/" + id.String() + ".jpg", nil
}

type fakeReporter struct {
	started, skipped int
	summary          *entity.RunSummary
	panicOnStart     bool
}

func (r *fakeReporter) ShowQueue(context.Context, int, []entity.QueueWarning) {}
func (r *fakeReporter) ShowTaskStart(context.Context, int, int, entity.TaskID) {
	r.started++
	if r.panicOnStart {
		panic("terminal gone")
	}
}
func (r *fakeReporter) ShowTaskSkipped(context.Context, int, int, entity.TaskID, entity.TaskStatus) {
	r.skipped++
}
func (r *fakeReporter) ShowTaskResult(context.Context, entity.TaskResult) {}
func (r *fakeReporter) ShowSummary(_ context.Context, s *entity.RunSummary) {
	r.summary = s
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RunID = "test-run"
	cfg.SelectPolicy = entity.RetryPolicy{MaxAttempts: 1}
	cfg.ClickPolicy = entity.RetryPolicy{MaxAttempts: 1}
	cfg.DownloadPolicy = entity.RetryPolicy{MaxAttempts: 5}
	cfg.Timings = Timings{}
	return cfg
}

func newTask(state, rto string, product entity.ProductType) entity.Task {
	return entity.Task{
		ID:           entity.TaskID{State: state, RTO: rto, Year: "2025", Product: product},
		StateLocator: "//*[@id='state_" + state + "']",
		RTOLocator:   "//*[@id='rto_" + rto + "']",
		YearLocator:  "//*[@id='selectedYear_1']",
	}
}

var (
	taskDelhi = newTask("Delhi", "DL4", entity.ProductE2W)
	taskGoa   = newTask("Goa", "GA01", entity.ProductL3G)
)

type harness struct {
	driver    *fakeDriver
	store     *memStore
	finalizer *fakeFinalizer
	diag      *fakeDiagnostics
	reporter  *fakeReporter
	uc        *UseCase
}

func newHarness(cfg Config) *harness {
	h := &harness{
		driver:    newFakeDriver(),
		store:     newMemStore(),
		finalizer: &fakeFinalizer{},
		diag:      &fakeDiagnostics{},
		reporter:  &fakeReporter{},
	}
	table := entity.DefaultFilterTable()
	h.uc = New(
		h.driver,
		verifier.New(table, h.driver, logger.NewNop()),
		table,
		h.store,
		h.finalizer,
		h.diag,
		h.reporter,
		logger.NewNop(),
		cfg,
	)
	return h
}

func TestRun_SkipsDoneTasks(t *testing.T) {
	h := newHarness(testConfig())
	require.NoError(t, h.store.Update(taskDelhi.ID, entity.TaskStatusCompleted, nil))
	require.NoError(t, h.store.Update(taskGoa.ID, entity.TaskStatusVerificationPassed, nil))

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi, taskGoa})

	assert.Zero(t, h.driver.calls)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 2, summary.Completed())
	assert.Empty(t, summary.Failed)
	assert.Equal(t, 2, h.reporter.skipped)
	assert.Same(t, summary, h.reporter.summary)
}

// A task whose verification passed but whose download never happened is
// still skipped on resume. This mirrors the long-standing resume rule; see
// TaskStatus.IsDone.
func TestRun_VerificationPassedWithoutDownloadIsSkipped(t *testing.T) {
	h := newHarness(testConfig())
	require.NoError(t, h.store.Update(taskDelhi.ID, entity.TaskStatusVerificationPassed, nil))

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	assert.Zero(t, h.finalizer.calls)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, entity.TaskStatusVerificationPassed, h.store.Status(taskDelhi.ID))
}

func TestRun_RerunsFailedTasks(t *testing.T) {
	h := newHarness(testConfig())
	for _, status := range []entity.TaskStatus{
		entity.TaskStatusStarted,
		entity.TaskStatusVerificationFailed,
		entity.TaskStatusDownloadFailed,
		entity.TaskStatusError,
	} {
		require.NoError(t, h.store.Update(taskDelhi.ID, status, nil))
		summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})
		assert.Equal(t, 1, summary.Succeeded, status)
	}
}

func TestRun_TaskPanicIsIsolated(t *testing.T) {
	h := newHarness(testConfig())
	h.driver.panicOnState = taskDelhi.StateLocator

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi, taskGoa})

	rec, ok := h.store.Record(taskDelhi.ID)
	require.True(t, ok)
	assert.Equal(t, entity.TaskStatusError, rec.Status)
	require.NotNil(t, rec.Details)
	assert.Contains(t, rec.Details.ErrorMessage, "stale element reference")

	assert.Equal(t, entity.TaskStatusCompleted, h.store.Status(taskGoa.ID))
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, []entity.TaskID{taskDelhi.ID}, summary.Failed)
	assert.Equal(t, []entity.TaskID{taskDelhi.ID}, h.diag.captured)
	assert.Empty(t, summary.Aborted)
}

func TestRun_StatusSequence(t *testing.T) {
	h := newHarness(testConfig())

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	require.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, []entity.TaskStatus{
		entity.TaskStatusStarted,
		entity.TaskStatusVerificationPassed,
		entity.TaskStatusCompleted,
	}, h.store.history[taskDelhi.ID])

	rec, _ := h.store.Record(taskDelhi.ID)
	require.NotNil(t, rec.Details)
	require.NotNil(t, rec.Details.Verification)
	assert.True(t, rec.Details.Verification.Passed)
	assert.Equal(t, "downloads/"+taskDelhi.ID.String()+".xlsx", rec.Details.Artifact)
	assert.Equal(t, rec.Details.Artifact, summary.Results[0].Artifact)
}

func TestRun_VerificationFailureStillDownloads(t *testing.T) {
	h := newHarness(testConfig())
	h.driver.checked = false

	summary := h.uc.Run(context.Background(), []entity.Task{taskGoa})

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, h.finalizer.calls)
	assert.Equal(t, []entity.TaskStatus{
		entity.TaskStatusStarted,
		entity.TaskStatusVerificationFailed,
		entity.TaskStatusCompleted,
	}, h.store.history[taskGoa.ID])
}

func TestRun_RequiredSelectionFails(t *testing.T) {
	h := newHarness(testConfig())
	h.driver.failSelect["RTO"] = true

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	assert.Equal(t, []entity.TaskID{taskDelhi.ID}, summary.Failed)
	rec, _ := h.store.Record(taskDelhi.ID)
	assert.Equal(t, entity.TaskStatusError, rec.Status)
	assert.Contains(t, rec.Details.ErrorMessage, "RTO")
}

func TestRun_OptionalSelectionFailsContinues(t *testing.T) {
	h := newHarness(testConfig())
	h.driver.failSelect["X-axis"] = true

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	assert.Equal(t, 1, summary.Succeeded)
}

func TestRun_DownloadRetriesThenFails(t *testing.T) {
	cfg := testConfig()
	h := newHarness(cfg)
	h.driver.clickFails[cfg.Layout.DownloadButton] = true

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	assert.Equal(t, 5, h.driver.clicks[cfg.Layout.DownloadButton])
	assert.Zero(t, h.finalizer.calls)
	assert.Equal(t, []entity.TaskID{taskDelhi.ID}, summary.Failed)
	assert.Equal(t, entity.TaskStatusDownloadFailed, h.store.Status(taskDelhi.ID))
	assert.Contains(t, summary.Results[0].Error, entity.ErrDownloadFailed.Error())
}

func TestRun_FinalizeFailureIsNotRetried(t *testing.T) {
	cfg := testConfig()
	h := newHarness(cfg)
	h.finalizer.err = finalizer.ErrNoArtifact

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	assert.Equal(t, 1, h.driver.clicks[cfg.Layout.DownloadButton])
	assert.Equal(t, entity.TaskStatusDownloadFailed, h.store.Status(taskDelhi.ID))
	assert.Contains(t, summary.Results[0].Error, "download succeeded, finalize failed")

	rec, _ := h.store.Record(taskDelhi.ID)
	require.NotNil(t, rec.Details.Verification)
}

func TestRun_FinalizeBaselinePrecedesClick(t *testing.T) {
	cfg := testConfig()
	h := newHarness(cfg)
	before := time.Now()

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	require.Equal(t, 1, summary.Succeeded)
	require.Len(t, h.finalizer.since, 1)
	since := h.finalizer.since[0]
	assert.False(t, since.Before(before))
	assert.False(t, since.After(h.driver.clickedAt[cfg.Layout.DownloadButton]))
}

// A stale export already sitting in the drop dir is not filed for the task;
// the download that lands after the click is.
func TestRun_StaleExportIsNotFiled(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "Delhi_DL4_2024_E2W.xlsx")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))
	old := time.Now().Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	cfg := testConfig()
	h := newHarness(cfg)
	h.uc.finalizer = finalizer.New(finalizer.Config{DropDir: dir, Wait: 5 * time.Second, Interval: 10 * time.Millisecond}, logger.NewNop())
	h.driver.onClick = func(locator string) {
		if locator != cfg.Layout.DownloadButton {
			return
		}
		go func() {
			time.Sleep(300 * time.Millisecond)
			_ = os.WriteFile(filepath.Join(dir, "reportTable.xlsx"), []byte("fresh"), 0o644)
		}()
	}

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	require.Equal(t, 1, summary.Succeeded)
	got, err := os.ReadFile(summary.Results[0].Artifact)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
	assert.FileExists(t, stale)
}

func TestRun_SettlesBeforeVerification(t *testing.T) {
	cfg := testConfig()
	cfg.Timings.BeforeVerify = 11 * time.Millisecond
	h := newHarness(cfg)

	var settled time.Time
	h.uc.sleep = func(_ context.Context, d time.Duration) error {
		if d == cfg.Timings.BeforeVerify {
			settled = time.Now()
		}
		return nil
	}

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	require.Equal(t, 1, summary.Succeeded)
	require.False(t, settled.IsZero())
	require.False(t, h.driver.probedAt.IsZero())
	assert.False(t, h.driver.probedAt.Before(settled))
	assert.Equal(t, 5*time.Second, DefaultConfig().Timings.BeforeVerify)
}

func TestRun_DownloadsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.DownloadEnabled = false
	h := newHarness(cfg)

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi})

	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, h.finalizer.calls)
	assert.Equal(t, entity.TaskStatusVerificationPassed, h.store.Status(taskDelhi.ID))
}

func TestRun_PersistenceFailureIsNotFatal(t *testing.T) {
	h := newHarness(testConfig())
	h.store.failing = true

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi, taskGoa})

	assert.Equal(t, 2, summary.Succeeded)
}

func TestRun_InterruptMidTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(testConfig())
	h.driver.onNavigate = cancel

	summary := h.uc.Run(ctx, []entity.Task{taskDelhi, taskGoa})

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 1, h.reporter.started)
	assert.Equal(t, entity.TaskStatusStarted, h.store.Status(taskDelhi.ID))
	assert.Equal(t, entity.TaskStatusNotStarted, h.store.Status(taskGoa.ID))
	assert.Empty(t, summary.Failed)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, entity.OutcomeInterrupted, summary.Results[0].Outcome)
	assert.NotNil(t, h.reporter.summary)
}

func TestRun_InterTaskDelay(t *testing.T) {
	cfg := testConfig()
	cfg.Timings.InterTask = 7 * time.Millisecond
	h := newHarness(cfg)

	var waits int
	h.uc.sleep = func(_ context.Context, d time.Duration) error {
		if d == cfg.Timings.InterTask {
			waits++
		}
		return nil
	}

	third := newTask("Kerala", "KL01", entity.ProductICE)
	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi, taskGoa, third})

	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, waits)
}

func TestRun_LoopErrorStillSummarises(t *testing.T) {
	h := newHarness(testConfig())
	h.reporter.panicOnStart = true

	summary := h.uc.Run(context.Background(), []entity.Task{taskDelhi, taskGoa})

	assert.Contains(t, summary.Aborted, "terminal gone")
	assert.Same(t, summary, h.reporter.summary)
	assert.Equal(t, 2, summary.Total)
}

func TestRun_DryRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()

	dcfg := driver.DefaultConfig()
	dcfg.DryRun = true
	dcfg.AfterClick, dcfg.DropdownSettle, dcfg.CheckboxSettle = 0, 0, 0
	dry := driver.New(nil, nil, logger.NewNop(), dcfg)

	table := entity.DefaultFilterTable()
	store := newMemStore()
	reporter := &fakeReporter{}
	uc := New(
		dry,
		verifier.New(table, dry, logger.NewNop()),
		table,
		store,
		finalizer.New(finalizer.Config{DropDir: dir, DryRun: true}, logger.NewNop()),
		nil,
		reporter,
		logger.NewNop(),
		cfg,
	)

	var tasks []entity.Task
	for _, p := range entity.AllProducts() {
		tasks = append(tasks, newTask("Uttar Pradesh", "AGRA/UP80", p))
	}

	summary := uc.Run(context.Background(), tasks)

	assert.Equal(t, len(tasks), summary.Succeeded)
	assert.Empty(t, summary.Failed)
	for _, task := range tasks {
		rec, ok := store.Record(task.ID)
		require.True(t, ok)
		assert.Equal(t, entity.TaskStatusCompleted, rec.Status)
		assert.True(t, rec.Details.Verification.Passed)
		assert.True(t, strings.HasPrefix(rec.Details.Artifact, filepath.Join(dir, "Uttar_Pradesh")))
	}
}
