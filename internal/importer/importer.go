// Package importer loads catalog items from a spreadsheet into a catalog store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/catalog"
)

// Summary counts the outcome of an import.
type Summary struct {
	Read    int
	Saved   int
	Skipped int
}

type Importer struct {
	writer  catalog.Writer
	chooser Chooser
	logger  *zap.Logger
}

func New(writer catalog.Writer, chooser Chooser, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Importer{writer: writer, chooser: chooser, logger: logger}
}

// ImportFile reads the first sheet of the xlsx file at path and saves its valid rows.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %q has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	return i.Import(ctx, rows)
}

// Import maps the header row of rows, validates each data row and saves the valid ones.
// Rows with a missing or non-positive cost price are skipped.
func (i *Importer) Import(ctx context.Context, rows [][]string) (*Summary, error) {
	if len(rows) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}

	headers := rows[0]
	i.logger.Info("spreadsheet columns found", zap.Strings("columns", headers))

	mapping, err := ResolveColumns(headers, i.chooser)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	items := &catalog.Items{}
	for idx, row := range rows[1:] {
		// Row numbers follow the spreadsheet: the header is row 1.
		rowNumber := idx + 2
		summary.Read++

		raw := cell(row, mapping[ColumnCostPrice])
		cost, ok := parseCost(raw)
		if !ok {
			i.logger.Warn("invalid cost price, skipping row",
				zap.Int("row", rowNumber),
				zap.String("cost_price", raw),
			)
			summary.Skipped++
			continue
		}

		items.Items = append(items.Items, catalog.NewItem(
			cell(row, mapping[ColumnItemName]),
			cell(row, mapping[ColumnDescription]),
			cost,
		))
	}

	if items.Len() == 0 {
		i.logger.Warn("no valid rows to insert into the catalog")
		return summary, nil
	}

	if err := i.writer.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := i.writer.Save(ctx, items); err != nil {
		return nil, err
	}

	summary.Saved = items.Len()
	i.logger.Info("imported catalog items",
		zap.Int("read", summary.Read),
		zap.Int("saved", summary.Saved),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCost(raw string) (float64, bool) {
	cost, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) || cost <= 0 {
		return 0, false
	}
	return cost, true
}
