package entity

import (
	"maps"
	"slices"
)

// Catalog is the dashboard's lookup tables: state name to dropdown locator,
// year to locator, and per state the RTO name to locator.
type Catalog struct {
	States map[string]string            `json:"states"`
	Years  map[string]string            `json:"years"`
	RTOs   map[string]map[string]string `json:"-"`
}

func (c *Catalog) StateNames() []string {
	return slices.Sorted(maps.Keys(c.States))
}

func (c *Catalog) YearNames() []string {
	return slices.Sorted(maps.Keys(c.Years))
}

// RTONames lists the RTOs known for state in name order.
func (c *Catalog) RTONames(state string) []string {
	return slices.Sorted(maps.Keys(c.RTOs[state]))
}
