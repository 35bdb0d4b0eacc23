// Package finalizer files a freshly downloaded export under its task's name.
package finalizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

var ErrNoArtifact = errors.New("no downloaded artifact found")

var _ output.ArtifactFinalizer = (*Finalizer)(nil)

type Config struct {
	DropDir string
	// Wait bounds how long to poll for the download to land.
	Wait     time.Duration
	Interval time.Duration
	DryRun   bool
}

type Finalizer struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Finalizer {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	return &Finalizer{cfg: cfg, logger: logger}
}

// Destination is where the artifact for id ends up.
func Destination(dropDir string, id entity.TaskID) string {
	stateDir := strings.ReplaceAll(id.State, " ", "_")
	name := fmt.Sprintf("%s_%s_%s_%s.xlsx", id.State, strings.ReplaceAll(id.RTO, "/", "_"), id.Year, id.Product)
	return filepath.Join(dropDir, stateDir, name)
}

// Finalize waits for an export modified at or after since and moves it to
// id's destination. Older files in the drop directory are never picked.
func (f *Finalizer) Finalize(ctx context.Context, id entity.TaskID, since time.Time) (string, error) {
	dest := Destination(f.cfg.DropDir, id)
	if f.cfg.DryRun {
		f.logger.Info("[dry-run] finalize", "task", id.String(), "dest", dest)
		return dest, nil
	}

	latest, err := f.await(ctx, since)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create state folder: %w", err)
	}
	if err := os.Rename(latest, dest); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(latest), err)
	}

	rel, _ := filepath.Rel(f.cfg.DropDir, dest)
	f.logger.Info("File saved", "task", id.String(), "path", rel)
	return dest, nil
}

// await returns the newest export in the drop directory not older than since,
// waiting up to Wait for one to land. Directory events wake it early; the poll interval covers
// platforms where watching fails.
func (f *Finalizer) await(ctx context.Context, since time.Time) (string, error) {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer w.Close()
		if err := w.Add(f.cfg.DropDir); err == nil {
			events, errs = w.Events, w.Errors
		} else {
			f.logger.Debug("Drop dir not watched, polling", "error", err)
		}
	}

	deadline := time.Now().Add(f.cfg.Wait)
	timeout := time.NewTimer(f.cfg.Wait)
	defer timeout.Stop()
	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		latest, err := Newest(f.cfg.DropDir, since)
		if err == nil {
			return latest, nil
		}
		if !errors.Is(err, ErrNoArtifact) || !time.Now().Before(deadline) {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			f.logger.Debug("Drop dir changed", "file", filepath.Base(ev.Name), "op", ev.Op.String())
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			f.logger.Debug("Watch error", "error", err)
		case <-timeout.C:
		case <-ticker.C:
		}
	}
}

// Newest returns the most recently modified .xlsx directly inside dir whose
// modification time is not before since. In-progress browser downloads are
// ignored. A zero since accepts any file.
func Newest(dir string, since time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read drop dir: %w", err)
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().Before(since) {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, e.Name())
			bestTime = info.ModTime()
		}
	}

	if best == "" {
		return "", ErrNoArtifact
	}
	return best, nil
}
