package input

import (
	"context"

	"vahan-scraper/internal/domain/entity"
)

// ScrapeRunner walks a task queue against the dashboard.
type ScrapeRunner interface {
	Run(ctx context.Context, tasks []entity.Task) *entity.RunSummary
}

// FilterVerifier checks the active dashboard filters against a product's
// expected selection.
type FilterVerifier interface {
	Verify(ctx context.Context, product entity.ProductType) (bool, *entity.VerificationReport)
}

// Selection is what the operator asked to scrape.
type Selection struct {
	States    []string
	Years     []string
	Products  []entity.ProductType
	RTOFilter []string
}

type QueueBuilder interface {
	Build(sel Selection) ([]entity.Task, []entity.QueueWarning)
}
