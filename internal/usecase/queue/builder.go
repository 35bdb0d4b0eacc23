package queue

import (
	"fmt"
	"strings"

	"vahan-scraper/internal/application/port/input"
	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

var _ input.QueueBuilder = (*Builder)(nil)

type Builder struct {
	catalog *entity.Catalog
	logger  output.LoggerPort
}

func New(catalog *entity.Catalog, logger output.LoggerPort) *Builder {
	return &Builder{
		catalog: catalog,
		logger:  logger,
	}
}

// Build expands the selection into state x RTO x year x product tasks.
// States, years and products keep selection order; RTOs are taken in name
// order. Selections that cannot be resolved are skipped with a warning.
func (b *Builder) Build(sel input.Selection) ([]entity.Task, []entity.QueueWarning) {
	var (
		tasks    []entity.Task
		warnings []entity.QueueWarning
	)

	warn := func(state, year, msg string) {
		b.logger.Warn(msg, "state", state, "year", year)
		warnings = append(warnings, entity.QueueWarning{State: state, Year: year, Message: msg})
	}

	years := make([]string, 0, len(sel.Years))
	for _, year := range sel.Years {
		if _, ok := b.catalog.Years[year]; !ok {
			warn("", year, fmt.Sprintf("No locator for year %s", year))
			continue
		}
		years = append(years, year)
	}

	for _, state := range sel.States {
		stateLocator, ok := b.catalog.States[state]
		if !ok {
			warn(state, "", fmt.Sprintf("No locator for state %s", state))
			continue
		}

		rtos := b.matchRTOs(state, sel.RTOFilter)
		if len(rtos) == 0 {
			warn(state, "", fmt.Sprintf("No RTOs found for %s (check RTO.json or filters)", state))
			continue
		}

		for _, rto := range rtos {
			for _, year := range years {
				for _, product := range sel.Products {
					tasks = append(tasks, entity.Task{
						ID: entity.TaskID{
							State:   state,
							RTO:     rto,
							Year:    year,
							Product: product,
						},
						StateLocator: stateLocator,
						RTOLocator:   b.catalog.RTOs[state][rto],
						YearLocator:  b.catalog.Years[year],
					})
				}
			}
		}
	}

	b.logger.Info("Task queue built", "tasks", len(tasks), "warnings", len(warnings))
	return tasks, warnings
}

func (b *Builder) matchRTOs(state string, filters []string) []string {
	all := b.catalog.RTONames(state)
	if len(filters) == 0 {
		return all
	}

	var kept []string
	for _, rto := range all {
		if matchesAny(rto, filters) {
			kept = append(kept, rto)
		}
	}
	return kept
}

func matchesAny(name string, filters []string) bool {
	name = strings.ToLower(name)
	for _, f := range filters {
		if strings.Contains(name, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
