package output

import (
	"context"

	"vahan-scraper/internal/domain/entity"
)

// RunReporter is the operator-facing progress feed of a scrape run.
type RunReporter interface {
	ShowQueue(ctx context.Context, total int, warnings []entity.QueueWarning)
	ShowTaskStart(ctx context.Context, index, total int, id entity.TaskID)
	ShowTaskSkipped(ctx context.Context, index, total int, id entity.TaskID, status entity.TaskStatus)
	ShowTaskResult(ctx context.Context, result entity.TaskResult)
	ShowSummary(ctx context.Context, summary *entity.RunSummary)
}

// StageReporter reports progress of the convert/merge/email pipeline.
type StageReporter interface {
	ShowStage(ctx context.Context, stage, message string)
	ShowStageWarning(ctx context.Context, stage, message string)
	ShowStageFailed(ctx context.Context, stage string, err error)
}
