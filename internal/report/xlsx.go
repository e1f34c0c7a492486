// Package report renders recommendations as a tender spreadsheet, a terminal table or a JSON dump.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/recommend"
)

const (
	sheetName             = "Sheet1"
	timestampLayout       = "2006-01-02 15:04:05"
	DefaultCurrencyFormat = `"₹"#,##0.00`
	columnWidth           = 20
	priceColumnWidth      = 15
)

// Columns is the header row of the tender spreadsheet.
var Columns = []string{"Item Name", "Description", "Cost Price", "Selling Price", "Profit Margin", "Timestamp"}

// ErrNothingToReport is returned when there are no records; no file is written in that case.
var ErrNothingToReport = errors.New("no recommended items to generate the tender")

type Config struct {
	Output         string `mapstructure:"output"`
	CurrencyFormat string `mapstructure:"currency-format"`
}

// Writer produces the tender spreadsheet.
type Writer struct {
	currencyFormat string
	now            func() time.Time
	logger         *zap.Logger
}

func NewWriter(cfg Config, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	format := cfg.CurrencyFormat
	if format == "" {
		format = DefaultCurrencyFormat
	}

	return &Writer{currencyFormat: format, now: time.Now, logger: logger}
}

// WriteTender writes records to an xlsx file at path, one row per record, stamped with the generation time.
func (w *Writer) WriteTender(records []recommend.Record, path string) error {
	if len(records) == 0 {
		w.logger.Warn("no recommended items to generate the tender")
		return ErrNothingToReport
	}

	w.logger.Info("generating tender spreadsheet", zap.String("path", path), zap.Int("rows", len(records)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheetName, "A1", &Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	timestamp := w.now().Format(timestampLayout)
	for idx, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return err
		}
		row := []any{r.ItemName, r.Description, r.CostPrice, r.SuggestedSellingPrice, r.ProfitMarginPercent, timestamp}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", idx+2, err)
		}
	}

	if err := w.format(f); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving tender spreadsheet %q: %w", path, err)
	}

	w.logger.Info("tender spreadsheet generated", zap.String("path", path))
	return nil
}

func (w *Writer) format(f *excelize.File) error {
	if err := f.SetColWidth(sheetName, "A", "F", columnWidth); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &w.currencyFormat})
	if err != nil {
		return fmt.Errorf("creating currency style: %w", err)
	}
	if err := f.SetColStyle(sheetName, "C:D", currency); err != nil {
		return fmt.Errorf("styling price columns: %w", err)
	}
	if err := f.SetColWidth(sheetName, "C", "D", priceColumnWidth); err != nil {
		return fmt.Errorf("setting price column width: %w", err)
	}

	return nil
}
