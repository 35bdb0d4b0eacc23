package output

import (
	"context"
	"time"

	"vahan-scraper/internal/domain/entity"
)

// ArtifactFinalizer moves the freshest downloaded export to its canonical
// per-task location and returns that path. Only exports modified at or after
// since qualify.
type ArtifactFinalizer interface {
	Finalize(ctx context.Context, id entity.TaskID, since time.Time) (string, error)
}

// Diagnostics captures page state for a failed task. Best-effort.
type Diagnostics interface {
	Capture(ctx context.Context, id entity.TaskID) (string, error)
}

type ConvertReport struct {
	Total     int
	Converted int
	Skipped   []string
}

type Converter interface {
	ConvertAll(ctx context.Context, inputDir, outputDir string) (*ConvertReport, error)
}

type MergeReport struct {
	Files   int
	Rows    int
	Grouped bool
	Output  string
}

type Merger interface {
	Merge(ctx context.Context, inputDir, outputFile string) (*MergeReport, error)
}

type Notifier interface {
	Send(ctx context.Context, recipient, attachment string) error
}

// ArchiveSource copies historical exports for a year into the drop directory.
type ArchiveSource interface {
	Inject(ctx context.Context, year, dropDir string) (int, error)
}
