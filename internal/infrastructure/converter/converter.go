// Package converter turns raw dashboard exports into per-file CSV tables
// keyed by State, RTO, Variant and OEM with one column per month end.
package converter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"vahan-scraper/internal/application/port/output"
)

const (
	dataStartRow = 4
	oemColumn    = 1
	firstMonth   = 2
	maxMonths    = 12
)

var (
	ErrTooFewRows     = errors.New("sheet has no data rows")
	ErrLegacyXLS      = errors.New("legacy .xls workbooks are not supported")
	ErrNotSpreadsheet = errors.New("not a spreadsheet")
)

var _ output.Converter = (*ExcelConverter)(nil)

type Config struct {
	Workers     int
	KnownStates map[string]string
}

type ExcelConverter struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *ExcelConverter {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.KnownStates == nil {
		cfg.KnownStates = DefaultKnownStates()
	}
	return &ExcelConverter{cfg: cfg, logger: logger}
}

// Header is the CSV header written for a given year.
func Header(year int) []string {
	return append([]string{"State", "RTO", "Variant", "OEM"}, MonthEnds(year)...)
}

// ConvertAll converts every spreadsheet under inputDir. Files that cannot be
// converted are reported as skipped; only cancellation or an unreadable
// inputDir fail the whole call.
func (c *ExcelConverter) ConvertAll(ctx context.Context, inputDir, outputDir string) (*output.ConvertReport, error) {
	files, err := findSpreadsheets(inputDir)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Scanning for files", "dir", inputDir, "found", len(files))

	report := &output.ConvertReport{Total: len(files)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dest, err := c.convertFile(path, outputDir)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("Conversion failed", "file", filepath.Base(path), "error", err)
				report.Skipped = append(report.Skipped, filepath.Base(path))
				return nil
			}
			c.logger.Debug("Converted", "file", filepath.Base(path), "output", dest)
			report.Converted++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	c.logger.Info("Conversion finished", "total", report.Total, "converted", report.Converted)
	return report, nil
}

func findSpreadsheets(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".xlsx", ".xls", ".xlxs":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return files, nil
}

func (c *ExcelConverter) convertFile(path, outputDir string) (string, error) {
	info, err := ParseFileName(filepath.Base(path), c.cfg.KnownStates)
	if err != nil {
		return "", err
	}
	year, _ := strconv.Atoi(info.Year)

	rows, err := readRows(path)
	if err != nil {
		return "", err
	}
	if len(rows) <= dataStartRow {
		return "", ErrTooFewRows
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	months := min(maxMonths, max(0, width-firstMonth))

	records := make([][]string, 0, len(rows)-dataStartRow+1)
	records = append(records, Header(year))
	for _, r := range rows[dataStartRow:] {
		rec := []string{info.State, info.RTO, info.Variant, cell(r, oemColumn)}
		for i := range maxMonths {
			if i < months {
				rec = append(rec, cell(r, firstMonth+i))
			} else {
				rec = append(rec, "0")
			}
		}
		records = append(records, rec)
	}

	dir := filepath.Join(outputDir, strings.ReplaceAll(info.State, " ", "_"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	dest := filepath.Join(dir, info.Base+".csv")
	if err := writeCSV(dest, records); err != nil {
		return "", err
	}
	return dest, nil
}

// sniff checks the file content rather than its extension: exports are
// sometimes saved with the wrong one.
func sniff(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect type: %w", err)
	}
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/zip"):
			return nil
		case m.Is("application/x-ole-storage"):
			return ErrLegacyXLS
		}
	}
	return fmt.Errorf("%w: %s", ErrNotSpreadsheet, mt.String())
}

func readRows(path string) ([][]string, error) {
	if err := sniff(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrTooFewRows
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
