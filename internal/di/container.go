package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
	"vahan-scraper/internal/infrastructure/archive"
	"vahan-scraper/internal/infrastructure/browser/driver"
	"vahan-scraper/internal/infrastructure/browser/probe"
	"vahan-scraper/internal/infrastructure/browser/rod"
	"vahan-scraper/internal/infrastructure/catalog"
	"vahan-scraper/internal/infrastructure/converter"
	"vahan-scraper/internal/infrastructure/diagnostics"
	"vahan-scraper/internal/infrastructure/env"
	"vahan-scraper/internal/infrastructure/finalizer"
	"vahan-scraper/internal/infrastructure/logger"
	"vahan-scraper/internal/infrastructure/merger"
	"vahan-scraper/internal/infrastructure/notifier"
	"vahan-scraper/internal/infrastructure/progress"
	"vahan-scraper/internal/infrastructure/settings"
	"vahan-scraper/internal/infrastructure/userinteraction"
	"vahan-scraper/internal/usecase/orchestrator"
	"vahan-scraper/internal/usecase/pipeline"
	"vahan-scraper/internal/usecase/queue"
	"vahan-scraper/internal/usecase/verifier"
)

type Container struct {
	RunID    string
	Settings *settings.Settings
	Catalog  *entity.Catalog
	Browser  output.BrowserPort
	Logger   output.LoggerPort
	logFile  *logger.LoggerAdapter
	Progress *progress.JSONStore
	Reporter *userinteraction.ConsoleReporter
	Pipeline *pipeline.Pipeline
}

type Config struct {
	// Dir holds vahan.yaml, .env and the lookup JSON files.
	Dir     string
	RunName string
	// Scrape requires the lookup tables and launches a real browser unless
	// DryRun is set. Without it the UI driver only logs.
	Scrape bool
	DryRun bool
	// Download overrides the settings value when non-nil.
	Download *bool
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	envService := env.NewEnvServiceIn(cfg.Dir)

	s, err := settings.Load(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if s.Paths.Base == "." {
		s.Paths.Base = cfg.Dir
	}
	dryRun := cfg.DryRun || s.Scrape.DryRun

	runID := uuid.NewString()
	base, err := logger.NewLoggerAdapter(logger.Config{
		Dir:     s.Resolve(s.Paths.Logs),
		RunName: cfg.RunName,
		Level:   s.LogLevel,
		Console: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log := base.WithField("run", runID)
	log.Info("Environment loaded", "app_env", envService.AppEnv(), "files", envService.Loaded())

	cat, err := catalog.Load(cfg.Dir)
	if err != nil {
		if cfg.Scrape {
			base.Close()
			return nil, fmt.Errorf("failed to load lookup tables: %w", err)
		}
		log.Warn("Lookup tables unavailable", "error", err)
		cat = &entity.Catalog{}
	}

	dropDir := s.Resolve(s.Paths.Downloads)

	var browser output.BrowserPort
	var stateProbe output.StateProbe
	if cfg.Scrape && !dryRun {
		browserCfg := rod.DefaultConfig()
		browserCfg.Headless = s.Browser.Headless
		browserCfg.NoSandbox = s.Browser.NoSandbox
		browserCfg.SlowMotion = s.Browser.SlowMotion
		browserCfg.Timeout = s.Browser.Timeout
		browserCfg.Bin = s.Browser.Bin
		browserCfg.DownloadDir = dropDir
		b, err := rod.NewBrowserAdapter(ctx, browserCfg)
		if err != nil {
			base.Close()
			return nil, fmt.Errorf("failed to create browser: %w", err)
		}
		browser = b
		stateProbe = newStateProbe(s.Browser, b)
	}

	driverCfg := driver.DefaultConfig()
	driverCfg.DryRun = dryRun || browser == nil
	driverCfg.CheckboxPolicy = entity.RetryPolicy{MaxAttempts: s.Retry.SelectAttempts, Delay: s.Retry.Delay}
	ui := driver.New(browser, stateProbe, log, driverCfg)

	filters := entity.DefaultFilterTable()
	store := progress.Open(s.Resolve(s.Paths.Progress), log)
	reporter := userinteraction.NewConsoleReporter()

	var diag output.Diagnostics
	if browser != nil && s.Paths.Debug != "" {
		diag = diagnostics.New(browser, s.Resolve(s.Paths.Debug))
	}

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.RunID = runID
	orchCfg.Layout.URL = s.Scrape.URL
	orchCfg.DownloadEnabled = s.Scrape.Download
	if cfg.Download != nil {
		orchCfg.DownloadEnabled = *cfg.Download
	}
	orchCfg.SelectPolicy = entity.RetryPolicy{MaxAttempts: s.Retry.SelectAttempts, Delay: s.Retry.Delay}
	orchCfg.ClickPolicy = entity.RetryPolicy{MaxAttempts: s.Retry.ClickAttempts, Delay: s.Retry.Delay}
	orchCfg.DownloadPolicy = entity.RetryPolicy{MaxAttempts: s.Retry.DownloadAttempts, Delay: s.Retry.Delay}
	orchCfg.Timings.InterTask = s.Scrape.InterTaskDelay

	scraper := orchestrator.New(
		ui,
		verifier.New(filters, ui, log),
		filters,
		store,
		finalizer.New(finalizer.Config{DropDir: dropDir, Wait: s.Scrape.FinalizeWait, DryRun: driverCfg.DryRun}, log),
		diag,
		reporter,
		log,
		orchCfg,
	)

	mailCfg := notifier.DefaultConfig()
	mailCfg.Host = s.SMTPHost
	mailCfg.Port = s.SMTPPort
	sender := envService.Sender()
	mailCfg.Sender = sender.Email
	mailCfg.Password = sender.Password

	pipe := pipeline.New(
		queue.New(cat, log),
		scraper,
		archive.New(s.Resolve(s.Paths.Archive), log),
		converter.New(converter.Config{Workers: s.Workers}, log),
		merger.New(log),
		notifier.New(mailCfg, log),
		store,
		reporter,
		log,
		pipeline.Config{
			DropDir:      dropDir,
			ProcessedDir: s.Resolve(s.Paths.Processed),
			OutputFile:   s.Resolve(s.Paths.Output),
			GroupedDir:   filepath.Join(filepath.Dir(s.Resolve(s.Paths.Output)), merger.StateWiseDir),
			ArchiveYears: s.ArchiveYears,
		},
	)

	log.Info("Container ready",
		"dry_run", driverCfg.DryRun,
		"download", orchCfg.DownloadEnabled,
		"probe", s.Browser.Probe,
		"base", filepath.Clean(s.Paths.Base),
	)

	return &Container{
		RunID:    runID,
		Settings: s,
		Catalog:  cat,
		Browser:  browser,
		Logger:   log,
		logFile:  base,
		Progress: store,
		Reporter: reporter,
		Pipeline: pipe,
	}, nil
}

func newStateProbe(cfg settings.Browser, browser output.BrowserPort) output.StateProbe {
	if cfg.Probe == "snapshot" {
		return probe.NewSnapshot(browser, cfg.SnapshotTTL)
	}
	return probe.NewStructural(browser)
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.logFile != nil {
		c.logFile.Close()
	}
}
