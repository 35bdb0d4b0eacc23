// Package diagnostics saves page screenshots for tasks that errored.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

var _ output.Diagnostics = (*ScreenshotCapturer)(nil)

var ErrNoSession = errors.New("no browser session")

// readiness is implemented by browsers that know when their page is gone.
type readiness interface {
	IsReady() bool
}

type ScreenshotCapturer struct {
	browser output.BrowserPort
	dir     string
}

// New returns a capturer writing into dir. A nil browser captures nothing.
func New(browser output.BrowserPort, dir string) *ScreenshotCapturer {
	return &ScreenshotCapturer{browser: browser, dir: dir}
}

func (c *ScreenshotCapturer) Capture(ctx context.Context, id entity.TaskID) (string, error) {
	if c.browser == nil {
		return "", ErrNoSession
	}
	if r, ok := c.browser.(readiness); ok && !r.IsReady() {
		return "", ErrNoSession
	}

	shot, err := c.browser.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("take screenshot: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	ext := shot.Format
	if ext == "" || ext == "jpeg" {
		ext = "jpg"
	}
	path := filepath.Join(c.dir, FileName(id)+"."+ext)
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	return path, nil
}

// FileName flattens a task id into something safe for any filesystem.
func FileName(id entity.TaskID) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, id.String())
}
