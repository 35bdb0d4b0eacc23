// Package archive supplies historical exports that are no longer scraped
// from the live dashboard.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vahan-scraper/internal/application/port/output"
)

var ErrArchiveMissing = errors.New("archive folder not found")

var _ output.ArchiveSource = (*Folder)(nil)

// Folder reads archives laid out as <root>/archive_<year>/**.xlsx.
type Folder struct {
	root   string
	logger output.LoggerPort
}

func New(root string, logger output.LoggerPort) *Folder {
	return &Folder{root: root, logger: logger}
}

func (f *Folder) Dir(year string) string {
	return filepath.Join(f.root, "archive_"+year)
}

// Inject copies every spreadsheet found anywhere under the year's archive
// folder into dropDir, flattened. Files that fail to copy are logged and
// skipped. It returns how many files were copied.
func (f *Folder) Inject(ctx context.Context, year, dropDir string) (int, error) {
	src := f.Dir(year)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrArchiveMissing, src)
	}
	if err := os.MkdirAll(dropDir, 0o755); err != nil {
		return 0, fmt.Errorf("create drop dir: %w", err)
	}

	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".xlsx", ".xls":
		default:
			return nil
		}

		if err := copyFile(path, filepath.Join(dropDir, d.Name())); err != nil {
			f.logger.Warn("Could not copy archive file", "file", d.Name(), "error", err)
			return nil
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("walk %s: %w", src, err)
	}

	f.logger.Info("Archive injected", "year", year, "files", copied)
	return copied, nil
}

// copyFile copies contents and modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
