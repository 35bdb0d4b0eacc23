package output

import (
	"context"

	"vahan-scraper/internal/domain/entity"
)

// BrowserPort is the low-level live page. Selectors starting with "/" or "("
// are XPath, everything else is CSS.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Inspect(ctx context.Context, selector string) (*entity.ElementState, error)
	OuterHTML(ctx context.Context, selector string) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}
