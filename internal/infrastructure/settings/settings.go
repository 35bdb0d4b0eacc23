// Package settings loads runtime settings from vahan.yaml and VAHAN_*
// environment variables.
package settings

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Paths struct {
	Base      string `validate:"required"`
	Downloads string `validate:"required"`
	Processed string `validate:"required"`
	Output    string `validate:"required"`
	Progress  string `validate:"required"`
	Logs      string `validate:"required"`
	Debug     string
	Archive   string
}

type Browser struct {
	Headless   bool
	NoSandbox  bool
	SlowMotion time.Duration `validate:"min=0"`
	Timeout    time.Duration `validate:"gt=0"`
	Bin        string
	// Probe picks how checkbox state is read: "structural" asks the page per
	// row, "snapshot" parses each filter table's HTML once.
	Probe       string        `validate:"oneof=structural snapshot"`
	SnapshotTTL time.Duration `validate:"min=0"`
}

type Scrape struct {
	URL            string `validate:"required,url"`
	DryRun         bool
	Download       bool
	InterTaskDelay time.Duration `validate:"min=0"`
	FinalizeWait   time.Duration `validate:"min=0"`
}

type Retry struct {
	SelectAttempts   int           `validate:"min=1"`
	ClickAttempts    int           `validate:"min=1"`
	DownloadAttempts int           `validate:"min=1"`
	Delay            time.Duration `validate:"min=0"`
}

type Settings struct {
	Paths        Paths
	Browser      Browser
	Scrape       Scrape
	Retry        Retry
	ArchiveYears []string `validate:"dive,len=4,numeric"`
	Workers      int      `validate:"min=1"`
	SMTPHost     string   `validate:"required,hostname"`
	SMTPPort     int      `validate:"min=1,max=65535"`
	LogLevel     string   `validate:"oneof=debug info warn error"`
}

const FileName = "vahan"

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.base", ".")
	v.SetDefault("paths.downloads", "downloads")
	v.SetDefault("paths.processed", "processed_csv")
	v.SetDefault("paths.output", filepath.Join("final_output", "FINAL_MERGED_OUTPUT.csv"))
	v.SetDefault("paths.progress", "progress.json")
	v.SetDefault("paths.logs", "log")
	v.SetDefault("paths.debug", "debug")
	v.SetDefault("paths.archive", ".")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.slow_motion", "0s")
	v.SetDefault("browser.timeout", "20s")
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.probe", "structural")
	v.SetDefault("browser.snapshot_ttl", "1s")

	v.SetDefault("scrape.url", "https://vahan.parivahan.gov.in/vahan4dashboard/vahan/view/reportview.xhtml")
	v.SetDefault("scrape.dry_run", false)
	v.SetDefault("scrape.download", true)
	v.SetDefault("scrape.inter_task_delay", "5s")
	v.SetDefault("scrape.finalize_wait", "6s")

	v.SetDefault("retry.select_attempts", 3)
	v.SetDefault("retry.click_attempts", 10)
	v.SetDefault("retry.download_attempts", 5)
	v.SetDefault("retry.delay", "2s")

	v.SetDefault("archive.years", []string{"2024"})
	v.SetDefault("convert.workers", 4)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 465)
	v.SetDefault("log.level", "info")
}

// Load reads vahan.yaml from dir if present. Environment variables such as
// VAHAN_SCRAPE_DRY_RUN override file values.
func Load(dir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("VAHAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s.yaml: %w", FileName, err)
		}
	}

	s := &Settings{
		Paths: Paths{
			Base:      v.GetString("paths.base"),
			Downloads: v.GetString("paths.downloads"),
			Processed: v.GetString("paths.processed"),
			Output:    v.GetString("paths.output"),
			Progress:  v.GetString("paths.progress"),
			Logs:      v.GetString("paths.logs"),
			Debug:     v.GetString("paths.debug"),
			Archive:   v.GetString("paths.archive"),
		},
		Browser: Browser{
			Headless:    v.GetBool("browser.headless"),
			NoSandbox:   v.GetBool("browser.no_sandbox"),
			SlowMotion:  v.GetDuration("browser.slow_motion"),
			Timeout:     v.GetDuration("browser.timeout"),
			Bin:         v.GetString("browser.bin"),
			Probe:       strings.ToLower(v.GetString("browser.probe")),
			SnapshotTTL: v.GetDuration("browser.snapshot_ttl"),
		},
		Scrape: Scrape{
			URL:            v.GetString("scrape.url"),
			DryRun:         v.GetBool("scrape.dry_run"),
			Download:       v.GetBool("scrape.download"),
			InterTaskDelay: v.GetDuration("scrape.inter_task_delay"),
			FinalizeWait:   v.GetDuration("scrape.finalize_wait"),
		},
		Retry: Retry{
			SelectAttempts:   v.GetInt("retry.select_attempts"),
			ClickAttempts:    v.GetInt("retry.click_attempts"),
			DownloadAttempts: v.GetInt("retry.download_attempts"),
			Delay:            v.GetDuration("retry.delay"),
		},
		ArchiveYears: v.GetStringSlice("archive.years"),
		Workers:      v.GetInt("convert.workers"),
		SMTPHost:     v.GetString("smtp.host"),
		SMTPPort:     v.GetInt("smtp.port"),
		LogLevel:     strings.ToLower(v.GetString("log.level")),
	}

	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Resolve joins a relative path onto Paths.Base.
func (s *Settings) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Paths.Base, p)
}
