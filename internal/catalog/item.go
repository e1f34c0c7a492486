package catalog

import (
	"encoding/json"
	"math"
	"os"

	"github.com/google/uuid"
)

// Item is a single catalog row. CostPrice is nil when the stored value is null or not numeric.
type Item struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"item_name"`
	Description string   `json:"description"`
	CostPrice   *float64 `json:"cost_price"`
}

// Items is an ordered catalog snapshot. Order is the retrieval order of the store.
type Items struct {
	Items []*Item
}

// NewItem creates an item with a fresh identity.
func NewItem(name, description string, cost float64) *Item {
	return &Item{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CostPrice:   Cost(cost),
	}
}

// Cost returns a pointer to v.
func Cost(v float64) *float64 {
	return &v
}

// HasValidCost reports whether the cost price is a positive finite number.
func (i *Item) HasValidCost() bool {
	if i.CostPrice == nil {
		return false
	}
	c := *i.CostPrice
	return !math.IsNaN(c) && !math.IsInf(c, 0) && c > 0
}

func (v *Items) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

func (v *Items) Names() []string {
	names := make([]string, 0, v.Len())
	if v == nil {
		return names
	}
	for _, item := range v.Items {
		names = append(names, item.Name)
	}
	return names
}

func (v *Items) FindByName(name string) *Item {
	for _, item := range v.Items {
		if item.Name == name {
			return item
		}
	}
	return nil
}

// Keep retains the items for which keep returns true, preserving order.
// It returns the names of the removed items.
func (v *Items) Keep(keep func(*Item) bool) []string {
	var removed []string
	kept := make([]*Item, 0, len(v.Items))
	for _, item := range v.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		removed = append(removed, item.Name)
	}
	v.Items = kept
	return removed
}

// ensureIDs assigns identities to items loaded without one.
func (v *Items) ensureIDs() {
	for _, item := range v.Items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
	}
}

// ReadFile loads an items snapshot written by WriteFile.
func ReadFile(path string) (*Items, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Items{}, nil
	}

	var items []*Item
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, err
	}
	return &Items{Items: items}, nil
}

// WriteFile stores the snapshot as an indented JSON array, replacing the file.
func (v *Items) WriteFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v.Items)
}
