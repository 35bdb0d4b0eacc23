package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahan-scraper/internal/domain/entity"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, filepath.Join("cfg", "RTO.local.json"), LocalPath(filepath.Join("cfg", "RTO.json")))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, StatesFile, `{
		// dashboard dropdown ids
		states: {"Delhi": "//*[@id='selectedState_5']", "Goa": "//*[@id='selectedState_9']"},
		years: {"2025": "//*[@id='selectedYear_1']"},
	}`)
	write(t, dir, "states_and_year.local.json", `{"years": {"2025": "//*[@id='selectedYear_0']", "2026": "//*[@id='selectedYear_x']"}}`)
	write(t, dir, RTOFile, `{"Delhi": {"JANAKPURI - DL4": "//*[@id='selectedRto_4']"}}`)
	write(t, dir, "RTO.local.json", `{"Goa": {"PANAJI - GA01": "//*[@id='selectedRto_1']"}}`)

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Delhi", "Goa"}, c.StateNames())
	assert.Equal(t, "//*[@id='selectedYear_0']", c.Years["2025"])
	assert.Equal(t, []string{"2025", "2026"}, c.YearNames())
	assert.Equal(t, []string{"JANAKPURI - DL4"}, c.RTONames("Delhi"))
	assert.Equal(t, []string{"PANAJI - GA01"}, c.RTONames("Goa"))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, StatesFile, `{states: [`)

	_, err := Load(dir)
	assert.ErrorContains(t, err, StatesFile)
}

func TestLoadSelection(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, SelectionFile, `{
		"states_to_scrape": ["Delhi"],
		"years_to_scrape": ["2025"],
		"products_to_scrape": ["E2W", "ICE"],
		"rto_filter_list": ["DL4"]
	}`)

	cfg, err := LoadSelection(dir)
	require.NoError(t, err)

	sel := cfg.Selection()
	assert.Equal(t, []string{"Delhi"}, sel.States)
	assert.Equal(t, []entity.ProductType{entity.ProductE2W, entity.ProductICE}, sel.Products)
	assert.Equal(t, []string{"DL4"}, sel.RTOFilter)
}

func TestLoadSelection_MissingIsEmpty(t *testing.T) {
	cfg, err := LoadSelection(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.States)
}

func TestValidateSelection(t *testing.T) {
	assert.NoError(t, ValidateSelection(UserConfig{States: []string{"Goa"}, Years: []string{"2024"}, Products: []entity.ProductType{"L5P"}}))
	assert.Error(t, ValidateSelection(UserConfig{Products: []entity.ProductType{"EV4W"}}))
	assert.Error(t, ValidateSelection(UserConfig{Years: []string{"25"}}))
	assert.Error(t, ValidateSelection(UserConfig{States: []string{""}}))
}

func TestSaveSelection(t *testing.T) {
	dir := t.TempDir()
	in := UserConfig{States: []string{"Delhi"}, Years: []string{"2025"}, Products: []entity.ProductType{entity.ProductL3G}}
	require.NoError(t, SaveSelection(dir, in))

	out, err := LoadSelection(dir)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Error(t, SaveSelection(dir, UserConfig{Products: []entity.ProductType{"bogus"}}))
}
