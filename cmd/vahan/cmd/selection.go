package cmd

import (
	"github.com/spf13/cobra"

	"vahan-scraper/internal/application/port/input"
	"vahan-scraper/internal/domain/entity"
	"vahan-scraper/internal/infrastructure/catalog"
)

// selectionFlags override user_config.json field by field.
type selectionFlags struct {
	states     []string
	years      []string
	products   []string
	rtos       []string
	save       bool
	noDownload bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.states, "state", "s", nil, "states to scrape")
	cmd.Flags().StringSliceVarP(&f.years, "year", "y", nil, "years to scrape")
	cmd.Flags().StringSliceVarP(&f.products, "product", "p", nil, "products to scrape (E2W, L3G, L3P, L5G, L5P, ICE)")
	cmd.Flags().StringSliceVar(&f.rtos, "rto", nil, "only RTOs whose name contains one of these")
	cmd.Flags().BoolVar(&f.save, "save", false, "write the resulting selection back to user_config.json")
	cmd.Flags().BoolVar(&f.noDownload, "no-download", false, "verify filters without downloading")
}

func (f *selectionFlags) download() *bool {
	if !f.noDownload {
		return nil
	}
	off := false
	return &off
}

func (f *selectionFlags) selection(dir string) (input.Selection, error) {
	cfg, err := catalog.LoadSelection(dir)
	if err != nil {
		return input.Selection{}, err
	}

	if len(f.states) > 0 {
		cfg.States = f.states
	}
	if len(f.years) > 0 {
		cfg.Years = f.years
	}
	if len(f.products) > 0 {
		cfg.Products = make([]entity.ProductType, 0, len(f.products))
		for _, p := range f.products {
			cfg.Products = append(cfg.Products, entity.ProductType(p))
		}
	}
	if len(f.rtos) > 0 {
		cfg.RTOFilter = f.rtos
	}

	if f.save {
		if err := catalog.SaveSelection(dir, cfg); err != nil {
			return input.Selection{}, err
		}
	} else if err := catalog.ValidateSelection(cfg); err != nil {
		return input.Selection{}, err
	}
	return cfg.Selection(), nil
}
