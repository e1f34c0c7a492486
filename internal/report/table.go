package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/spigell/tender-recommender/internal/recommend"
	"github.com/spigell/tender-recommender/internal/utils"
)

const descriptionWidth = 40

// RenderTable prints records as a ranked table followed by a total line.
func RenderTable(w io.Writer, records []recommend.Record) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Item Name", "Description", "Cost Price", "Selling Price", "Profit", "Margin %"})

	for i, r := range records {
		err := table.Append([]string{
			strconv.Itoa(i + 1),
			r.ItemName,
			utils.TruncateForLog(r.Description, descriptionWidth),
			formatMoney(r.CostPrice),
			formatMoney(r.SuggestedSellingPrice),
			colorizeProfit(r.Profit()),
			strconv.FormatFloat(r.ProfitMarginPercent, 'f', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("appending table row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	_, err := fmt.Fprintf(w, "\nTotal recommended: %d\n", len(records))
	return err
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func colorizeProfit(profit float64) string {
	s := formatMoney(profit)
	switch {
	case profit > 0:
		return color.GreenString(s)
	case profit < 0:
		return color.RedString(s)
	default:
		return color.YellowString(s)
	}
}

// DumpToTmpFile writes records as indented JSON to a new temp file and returns its name.
func DumpToTmpFile(records []recommend.Record) (string, error) {
	file, err := os.CreateTemp("", "recommendations_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", err
	}
	return file.Name(), nil
}
