package recommend

import "sort"

// Record is a priced recommendation for one catalog item.
type Record struct {
	ItemName              string  `json:"item_name"`
	Description           string  `json:"description"`
	CostPrice             float64 `json:"cost_price"`
	SuggestedSellingPrice float64 `json:"suggested_selling_price"`
	ProfitMarginPercent   float64 `json:"profit_margin_percent"`
}

// Profit is the absolute profit amount of the record.
func (r Record) Profit() float64 {
	return r.SuggestedSellingPrice - r.CostPrice
}

// rank orders records by descending profit. Equal profits keep their input order.
func rank(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Profit() > records[j].Profit()
	})
}
