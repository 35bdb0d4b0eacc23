// Package merger folds the converted per-file tables into one combined table.
package merger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"vahan-scraper/internal/application/port/output"
)

const StateWiseDir = "state_wise_combined"

var (
	ErrNoInput    = errors.New("no CSV files found to merge")
	ErrUnreadable = errors.New("all CSV files were empty or unreadable")
)

// IdentityColumns are grouped on, in this order, when present.
var IdentityColumns = []string{"State", "RTO", "Variant", "OEM"}

var _ output.Merger = (*CSVMerger)(nil)

type CSVMerger struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *CSVMerger {
	return &CSVMerger{logger: logger}
}

// table is a set of rows over a union of columns.
type table struct {
	columns []string
	rows    []map[string]string
}

func (t *table) add(header []string, records [][]string) {
	for _, col := range header {
		if !slices.Contains(t.columns, col) {
			t.columns = append(t.columns, col)
		}
	}
	for _, rec := range records {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.rows = append(t.rows, row)
	}
}

// Merge concatenates every CSV under inputDir. When identity and month
// columns (headers starting with "20") are present the rows are grouped by
// identity and months summed, non-numeric values counting as zero; otherwise
// the raw concatenation is written. Grouped output is also split per state.
func (m *CSVMerger) Merge(ctx context.Context, inputDir, outputFile string) (*output.MergeReport, error) {
	files, err := findCSVs(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInput
	}
	m.logger.Info("Merging files", "count", len(files))

	combined := &table{}
	read := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header, records, err := readCSV(path)
		if err != nil {
			m.logger.Warn("Skipping file", "file", path, "error", err)
			continue
		}
		combined.add(header, records)
		read++
	}
	if read == 0 {
		return nil, ErrUnreadable
	}

	report := &output.MergeReport{Files: read, Output: outputFile}

	ids, months := splitColumns(combined.columns)
	if len(ids) == 0 || len(months) == 0 {
		m.logger.Warn("Grouping skipped, writing raw data", "columns", len(combined.columns))
		report.Rows = len(combined.rows)
		return report, writeTable(outputFile, combined.columns, rowsToRecords(combined.columns, combined.rows))
	}

	header := append(slices.Clone(ids), months...)
	grouped := group(combined.rows, ids, months)
	report.Rows = len(grouped)
	report.Grouped = true

	if err := writeTable(outputFile, header, grouped); err != nil {
		return nil, err
	}

	if slices.Contains(ids, "State") {
		if err := writeStateWise(filepath.Join(filepath.Dir(outputFile), StateWiseDir), header, grouped); err != nil {
			return nil, err
		}
	}

	m.logger.Info("Merge finished", "files", read, "rows", report.Rows, "output", outputFile)
	return report, nil
}

func findCSVs(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}

// readCSV parses a comma separated file, falling back to tabs when the
// header does not split on commas.
func readCSV(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	records, err := parse(string(data), ',')
	if err == nil && len(records) > 0 && len(records[0]) == 1 && strings.Contains(records[0][0], "\t") {
		records, err = parse(string(data), '\t')
	}
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	return records[0], records[1:], nil
}

func parse(data string, comma rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func splitColumns(columns []string) (ids, months []string) {
	for _, id := range IdentityColumns {
		if slices.Contains(columns, id) {
			ids = append(ids, id)
		}
	}
	for _, col := range columns {
		if strings.HasPrefix(col, "20") {
			months = append(months, col)
		}
	}
	slices.Sort(months)
	return ids, months
}

func group(rows []map[string]string, ids, months []string) [][]string {
	type bucket struct {
		key  []string
		sums []float64
	}

	buckets := map[string]*bucket{}
	for _, row := range rows {
		key := make([]string, len(ids))
		for i, id := range ids {
			key[i] = row[id]
		}
		k := strings.Join(key, "\x00")
		b, ok := buckets[k]
		if !ok {
			b = &bucket{key: key, sums: make([]float64, len(months))}
			buckets[k] = b
		}
		for i, col := range months {
			b.sums[i] += number(row[col])
		}
	}

	out := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rec := slices.Clone(b.key)
		for _, v := range b.sums {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b []string) int {
		return slices.Compare(a[:len(ids)], b[:len(ids)])
	})
	return out
}

func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func rowsToRecords(columns []string, rows []map[string]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := make([]string, len(columns))
		for i, col := range columns {
			rec[i] = row[col]
		}
		out = append(out, rec)
	}
	return out
}

func writeStateWise(dir string, header []string, records [][]string) error {
	col := slices.Index(header, "State")
	byState := map[string][][]string{}
	for _, rec := range records {
		byState[rec[col]] = append(byState[rec[col]], rec)
	}
	for state, recs := range byState {
		path := filepath.Join(dir, strings.ReplaceAll(state, " ", "_")+".csv")
		if err := writeTable(path, header, recs); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
