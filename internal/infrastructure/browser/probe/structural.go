package probe

import (
	"context"
	"fmt"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

var _ output.StateProbe = (*Structural)(nil)

// Structural locates the checkbox through a list of XPath shapes and reads
// the first one that exists.
type Structural struct {
	browser output.BrowserPort
}

func NewStructural(browser output.BrowserPort) *Structural {
	return &Structural{browser: browser}
}

func (p *Structural) IsChecked(ctx context.Context, table string, row int) (bool, error) {
	var lastErr error
	for _, xp := range checkboxXPaths(table, row) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		state, err := p.browser.Inspect(ctx, xp)
		if err != nil {
			lastErr = err
			continue
		}
		return Selected(state), nil
	}
	return false, fmt.Errorf("%w: %s row %d: %v", ErrCheckboxNotFound, table, row, lastErr)
}

func (p *Structural) RowLabel(ctx context.Context, table string, row int) (string, error) {
	state, err := p.browser.Inspect(ctx, entity.LabelLocator(table, row))
	if err != nil {
		return "", err
	}
	return state.Text, nil
}
