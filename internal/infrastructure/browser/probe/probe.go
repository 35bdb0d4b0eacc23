// Package probe reads filter checkbox state off the dashboard page.
//
// Two strategies implement output.StateProbe: Structural asks the live page
// element by element; Snapshot pulls a table's HTML once and reads every row
// from the parsed copy.
package probe

import (
	"errors"
	"fmt"
	"strings"

	"vahan-scraper/internal/domain/entity"
)

var ErrCheckboxNotFound = errors.New("checkbox not found")

// activeMarkers are class fragments the widget library uses for a ticked box.
var activeMarkers = []string{"ui-state-active", "ui-state-checked", "ui-state-highlight"}

// Selected applies the positive signals in order: box class marker, parent
// class marker, explicit checked flags.
func Selected(state *entity.ElementState) bool {
	if state == nil {
		return false
	}
	for _, m := range activeMarkers {
		if strings.Contains(state.Class, m) {
			return true
		}
	}
	if strings.Contains(state.ParentClass, "ui-state-active") {
		return true
	}
	return state.AriaChecked == "true" || state.Checked
}

func checkboxXPaths(table string, row int) []string {
	prefix := fmt.Sprintf("//*[@id='%s']/tbody/tr[%d]", table, row)
	return []string{
		entity.CheckboxLocator(table, row),
		prefix + "/td//span[contains(@class,'ui-chkbox-box')]",
		prefix + "//span[contains(@class,'ui-state')]",
		prefix + "/td//div[contains(@class,'ui-chkbox')]//span",
	}
}
