package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/net/html"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

var _ output.StateProbe = (*Snapshot)(nil)

// Snapshot reads a whole filter table in one round trip and answers row
// queries from the parsed HTML. Snapshots are reused for TTL; zero TTL
// fetches on every call.
type Snapshot struct {
	browser output.BrowserPort
	// cache is nil when snapshots are not reused.
	cache *expirable.LRU[string, *goquery.Document]
}

const maxCachedTables = 16

func NewSnapshot(browser output.BrowserPort, ttl time.Duration) *Snapshot {
	p := &Snapshot{browser: browser}
	if ttl > 0 {
		p.cache = expirable.NewLRU[string, *goquery.Document](maxCachedTables, nil, ttl)
	}
	return p
}

// Reset drops cached tables.
func (p *Snapshot) Reset() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

func (p *Snapshot) IsChecked(ctx context.Context, table string, row int) (bool, error) {
	tr, err := p.row(ctx, table, row)
	if err != nil {
		return false, err
	}

	box := tr.Find("span.ui-chkbox-box").First()
	if box.Length() == 0 {
		box = tr.Find("div.ui-chkbox span").First()
	}
	input := tr.Find("input[type=checkbox]").First()
	if box.Length() == 0 && input.Length() == 0 {
		return false, fmt.Errorf("%w: %s row %d", ErrCheckboxNotFound, table, row)
	}

	state := &entity.ElementState{}
	if box.Length() > 0 {
		state.Class = box.AttrOr("class", "")
		state.ParentClass = box.Parent().AttrOr("class", "")
		state.AriaChecked = box.AttrOr("aria-checked", "")
	}
	if input.Length() > 0 {
		_, state.Checked = input.Attr("checked")
		if state.AriaChecked == "" {
			state.AriaChecked = input.AttrOr("aria-checked", "")
		}
	}
	return Selected(state), nil
}

func (p *Snapshot) RowLabel(ctx context.Context, table string, row int) (string, error) {
	tr, err := p.row(ctx, table, row)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tr.Find("td label").First().Text()), nil
}

func (p *Snapshot) row(ctx context.Context, table string, row int) (*goquery.Selection, error) {
	doc, err := p.document(ctx, table)
	if err != nil {
		return nil, err
	}
	rows := doc.Find("tbody > tr")
	if row < 1 || row > rows.Length() {
		return nil, fmt.Errorf("%w: %s row %d of %d", ErrCheckboxNotFound, table, row, rows.Length())
	}
	return rows.Eq(row - 1), nil
}

func (p *Snapshot) document(ctx context.Context, table string) (*goquery.Document, error) {
	if p.cache != nil {
		if doc, ok := p.cache.Get(table); ok {
			return doc, nil
		}
	}

	raw, err := p.browser.OuterHTML(ctx, "#"+table)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", table, err)
	}

	doc, err := ParseTable(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", table, err)
	}

	if p.cache != nil {
		p.cache.Add(table, doc)
	}
	return doc, nil
}

// ParseTable parses a table fragment into a queryable document.
func ParseTable(raw string) (*goquery.Document, error) {
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(node), nil
}
