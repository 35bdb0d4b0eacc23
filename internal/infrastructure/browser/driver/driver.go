// Package driver implements output.UIDriver on top of a BrowserPort and a
// swappable checkbox StateProbe.
package driver

import (
	"context"
	"time"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
	"vahan-scraper/internal/infrastructure/browser/probe"
	"vahan-scraper/internal/retry"
)

var _ output.UIDriver = (*Driver)(nil)

type Config struct {
	// DryRun logs every operation and reports success without a browser.
	DryRun bool

	AfterClick     time.Duration
	DropdownSettle time.Duration
	CheckboxSettle time.Duration
	CheckboxPolicy entity.RetryPolicy
}

func DefaultConfig() Config {
	return Config{
		AfterClick:     time.Second,
		DropdownSettle: time.Second,
		CheckboxSettle: time.Second,
		CheckboxPolicy: entity.RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second},
	}
}

type Driver struct {
	browser output.BrowserPort
	probe   output.StateProbe
	logger  output.LoggerPort
	cfg     Config
}

// New builds a driver. browser and stateProbe may be nil in dry-run mode.
func New(browser output.BrowserPort, stateProbe output.StateProbe, logger output.LoggerPort, cfg Config) *Driver {
	return &Driver{
		browser: browser,
		probe:   stateProbe,
		logger:  logger,
		cfg:     cfg,
	}
}

// cachingProbe is a probe that holds page content between calls.
type cachingProbe interface {
	Reset()
}

// invalidate drops whatever the probe cached; the page just changed.
func (d *Driver) invalidate() {
	if c, ok := d.probe.(cachingProbe); ok {
		c.Reset()
	}
}

func (d *Driver) DryRun() bool {
	return d.cfg.DryRun
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if d.cfg.DryRun {
		d.logger.Info("[dry-run] navigate", "url", url)
		return nil
	}
	d.logger.Info("Navigating", "url", url)
	defer d.invalidate()
	return d.browser.Navigate(ctx, url)
}

func (d *Driver) Click(ctx context.Context, locator, description string, policy entity.RetryPolicy) bool {
	if d.cfg.DryRun {
		d.logger.Info("[dry-run] click", "target", description, "locator", locator)
		return true
	}

	err := retry.Do(ctx, policy, func(attempt int) error {
		if err := d.browser.Click(ctx, locator); err != nil {
			d.logger.Warn("Click attempt failed", "target", description, "attempt", attempt, "error", err)
			return err
		}
		d.logger.Debug("Clicked", "target", description, "attempt", attempt)
		return nil
	})
	if err != nil {
		d.logger.Warn("All click attempts failed", "target", description, "attempts", policy.Attempts(), "error", err)
		return false
	}

	d.invalidate()
	_ = retry.Sleep(ctx, d.cfg.AfterClick)
	return true
}

// Select opens a dropdown and picks an option. One attempt is both clicks;
// the policy retries the pair.
func (d *Driver) Select(ctx context.Context, dropdown, option, description string, policy entity.RetryPolicy) bool {
	if d.cfg.DryRun {
		d.logger.Info("[dry-run] select", "target", description, "dropdown", dropdown, "option", option)
		return true
	}

	err := retry.Do(ctx, policy, func(attempt int) error {
		if err := d.browser.Click(ctx, dropdown); err != nil {
			d.logger.Warn("Dropdown did not open", "target", description, "attempt", attempt, "error", err)
			return err
		}
		if err := retry.Sleep(ctx, d.cfg.DropdownSettle); err != nil {
			return retry.Permanent(err)
		}
		if err := d.browser.Click(ctx, option); err != nil {
			d.logger.Warn("Option not selectable", "target", description, "attempt", attempt, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		d.logger.Warn("All select attempts failed", "target", description, "error", err)
		return false
	}

	d.logger.Info("Selected", "target", description)
	d.invalidate()
	_ = retry.Sleep(ctx, d.cfg.AfterClick)
	return true
}

// SelectCheckbox ticks a filter checkbox unless it already reads as active.
// The label is clicked when the box itself cannot be. A selection that cannot
// be read back afterwards still counts as done.
func (d *Driver) SelectCheckbox(ctx context.Context, checkbox, label, description string) bool {
	if d.cfg.DryRun {
		d.logger.Info("[dry-run] select checkbox", "target", description)
		return true
	}

	state, err := d.browser.Inspect(ctx, checkbox)
	if err != nil {
		d.logger.Error("Checkbox not found", "target", description, "error", err)
		return false
	}
	if probe.Selected(state) {
		d.logger.Info("Already selected", "target", description)
		return true
	}

	if !d.Click(ctx, checkbox, description+" checkbox", d.cfg.CheckboxPolicy) {
		d.logger.Info("Trying label click", "target", description)
		if !d.Click(ctx, label, description+" label", d.cfg.CheckboxPolicy) {
			return false
		}
	}

	_ = retry.Sleep(ctx, d.cfg.CheckboxSettle)

	after, err := d.browser.Inspect(ctx, checkbox)
	switch {
	case err == nil && probe.Selected(after):
		d.logger.Info("Selected checkbox", "target", description)
	default:
		d.logger.Info("Clicked checkbox, state unconfirmed", "target", description)
	}
	return true
}

func (d *Driver) CheckCheckboxState(ctx context.Context, table string, row int, label string) bool {
	if d.cfg.DryRun {
		return true
	}

	ok, err := d.probe.IsChecked(ctx, table, row)
	if err != nil {
		d.logger.Debug("Checkbox probe failed", "table", table, "row", row, "label", label, "error", err)
		return false
	}
	d.logger.Debug("Checkbox probed", "table", table, "row", row, "label", label, "selected", ok)
	return ok
}

func (d *Driver) RowLabel(ctx context.Context, table string, row int) string {
	if d.cfg.DryRun {
		return ""
	}

	label, err := d.probe.RowLabel(ctx, table, row)
	if err != nil {
		return ""
	}
	return label
}
