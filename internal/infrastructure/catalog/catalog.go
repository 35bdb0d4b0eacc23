// Package catalog loads the dashboard lookup tables and the operator's
// scrape selection.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"vahan-scraper/internal/application/port/input"
	"vahan-scraper/internal/domain/entity"
)

const (
	StatesFile    = "states_and_year.json"
	RTOFile       = "RTO.json"
	SelectionFile = "user_config.json"
)

type statesAndYears struct {
	States map[string]string `json:"states"`
	Years  map[string]string `json:"years"`
}

// UserConfig is the on-disk scrape selection.
type UserConfig struct {
	States    []string             `json:"states_to_scrape" validate:"dive,required"`
	Years     []string             `json:"years_to_scrape" validate:"dive,len=4,numeric"`
	Products  []entity.ProductType `json:"products_to_scrape" validate:"dive,oneof=E2W L3G L3P L5G L5P ICE"`
	RTOFilter []string             `json:"rto_filter_list"`
}

func (u UserConfig) Selection() input.Selection {
	return input.Selection{
		States:    u.States,
		Years:     u.Years,
		Products:  u.Products,
		RTOFilter: u.RTOFilter,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the state/year and RTO tables from dir.
func Load(dir string) (*entity.Catalog, error) {
	sy, err := ReadConfig[statesAndYears](filepath.Join(dir, StatesFile))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", StatesFile, err)
	}
	rtos, err := ReadConfig[map[string]map[string]string](filepath.Join(dir, RTOFile))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", RTOFile, err)
	}

	return &entity.Catalog{
		States: sy.States,
		Years:  sy.Years,
		RTOs:   rtos,
	}, nil
}

// LoadSelection reads and validates user_config.json in dir. A missing file
// is an empty selection.
func LoadSelection(dir string) (UserConfig, error) {
	cfg, err := ReadConfig[UserConfig](filepath.Join(dir, SelectionFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", SelectionFile, err)
	}
	if err := ValidateSelection(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateSelection(cfg UserConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}
	return nil
}

// SaveSelection writes cfg to user_config.json in dir.
func SaveSelection(dir string, cfg UserConfig) error {
	if err := ValidateSelection(cfg); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SelectionFile), data, 0o644)
}
