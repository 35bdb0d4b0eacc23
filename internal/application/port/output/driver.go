package output

import (
	"context"

	"vahan-scraper/internal/domain/entity"
)

// UIDriver is the only thing the orchestrator uses to touch the dashboard.
// Primitives report failure as false after exhausting their retry policy.
type UIDriver interface {
	CheckboxProber

	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, locator, description string, policy entity.RetryPolicy) bool
	Select(ctx context.Context, dropdown, option, description string, policy entity.RetryPolicy) bool
	SelectCheckbox(ctx context.Context, checkbox, label, description string) bool
}

// CheckboxProber answers whether a filter row reads as selected. Probe errors
// read as false.
type CheckboxProber interface {
	CheckCheckboxState(ctx context.Context, table string, row int, label string) bool
	// RowLabel returns the row's label text, or "" when the row does not exist.
	RowLabel(ctx context.Context, table string, row int) string
}

// StateProbe is a swappable strategy for reading checkbox state off the page.
type StateProbe interface {
	IsChecked(ctx context.Context, table string, row int) (bool, error)
	RowLabel(ctx context.Context, table string, row int) (string, error)
}
