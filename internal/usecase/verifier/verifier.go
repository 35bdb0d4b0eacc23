package verifier

import (
	"context"
	"slices"

	"vahan-scraper/internal/application/port/input"
	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"
)

const (
	MinSuccessRate = 0.70
	MaxUnwanted    = 2
)

var _ input.FilterVerifier = (*Verifier)(nil)

type Verifier struct {
	table  *entity.FilterTable
	prober output.CheckboxProber
	logger output.LoggerPort
}

func New(table *entity.FilterTable, prober output.CheckboxProber, logger output.LoggerPort) *Verifier {
	return &Verifier{
		table:  table,
		prober: prober,
		logger: logger,
	}
}

// Verdict applies the acceptance rule to raw counts.
func Verdict(verified, expected, unwanted int) (float64, bool) {
	rate := 0.0
	if expected > 0 {
		rate = float64(verified) / float64(expected)
	}
	return rate, rate >= MinSuccessRate && unwanted <= MaxUnwanted
}

// Verify reads back the fuel and vehicle class tables and checks that the
// product's filters, and only those, are active. An unknown product yields a
// failed report.
func (v *Verifier) Verify(ctx context.Context, product entity.ProductType) (bool, *entity.VerificationReport) {
	report := &entity.VerificationReport{Product: product}

	sel, err := v.table.Selection(product)
	if err != nil {
		v.logger.Error("No filter selection for product", "product", product, "error", err)
		return false, report
	}

	report.Fuel = v.checkTable(ctx, v.table.FuelTable(), v.table.FuelRows(), sel.Fuels)
	report.VehicleClasses = v.checkTable(ctx, v.table.ClassTable(), v.table.ClassRows(), sel.Classes)
	report.UnwantedCount = len(report.Fuel.Unwanted) + len(report.VehicleClasses.Unwanted)
	report.SuccessRate, report.Passed = Verdict(report.VerifiedTotal(), report.ExpectedTotal(), report.UnwantedCount)

	log := v.logger.WithFields(map[string]any{
		"product":      product,
		"verified":     report.VerifiedTotal(),
		"expected":     report.ExpectedTotal(),
		"unwanted":     report.UnwantedCount,
		"success_rate": report.SuccessRate,
	})
	if report.Passed {
		log.Info("Filter verification passed")
	} else {
		log.Warn("Filter verification failed",
			"failed_fuels", report.Fuel.Failed,
			"failed_classes", report.VehicleClasses.Failed,
			"unwanted_fuels", report.Fuel.Unwanted,
			"unwanted_classes", report.VehicleClasses.Unwanted,
		)
	}

	return report.Passed, report
}

func (v *Verifier) checkTable(ctx context.Context, table string, rows int, expected []entity.FilterItem) entity.CategoryResult {
	res := entity.CategoryResult{
		Expected: []string{},
		Verified: []string{},
		Failed:   []string{},
		Unwanted: []string{},
	}

	wanted := make([]int, 0, len(expected))
	for _, item := range expected {
		wanted = append(wanted, item.Row)
		res.Expected = append(res.Expected, item.Label)
		if v.prober.CheckCheckboxState(ctx, table, item.Row, item.Label) {
			res.Verified = append(res.Verified, item.Label)
		} else {
			res.Failed = append(res.Failed, item.Label)
		}
	}

	for row := 1; row <= rows; row++ {
		if ctx.Err() != nil {
			break
		}
		if slices.Contains(wanted, row) {
			continue
		}
		label := v.prober.RowLabel(ctx, table, row)
		if label == "" {
			continue
		}
		if v.prober.CheckCheckboxState(ctx, table, row, label) {
			res.Unwanted = append(res.Unwanted, label)
		}
	}

	return res
}
