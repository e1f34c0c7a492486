// Package recommend matches tender requirements against the catalog and prices the matches.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/catalog"
	"github.com/spigell/tender-recommender/internal/logger"
	"github.com/spigell/tender-recommender/internal/pricing"
	"github.com/spigell/tender-recommender/internal/utils"
)

const requirementsLogLength = 120

var (
	// ErrEmptyRequirements is returned when no requirement text is supplied.
	ErrEmptyRequirements = errors.New("no requirements provided")
	// ErrCatalogUnavailable is returned when the catalog cannot be read.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

type Config struct {
	// Workers > 1 enables sharded keyword matching.
	Workers int `mapstructure:"workers"`
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	store      catalog.Store
	calculator *pricing.Calculator
	workers    int
	logger     *zap.Logger
}

func New(store catalog.Store, cfg Config, log *zap.Logger) *Engine {
	log = logger.WithFields(log)

	return &Engine{
		store:      store,
		calculator: pricing.NewCalculator(log),
		workers:    cfg.Workers,
		logger:     log,
	}
}

// Recommend returns priced catalog items matching requirements, highest absolute profit first.
// An empty result with a nil error means the catalog was read but nothing matched.
func (e *Engine) Recommend(ctx context.Context, requirements string, margin float64) ([]Record, error) {
	if strings.TrimSpace(requirements) == "" {
		e.logger.Warn("no requirements provided, cannot proceed with item recommendation")
		return nil, ErrEmptyRequirements
	}

	keywords := Keywords(requirements)
	e.logger.Info("extracted keywords for matching",
		zap.String("requirements", utils.TruncateForLog(requirements, requirementsLogLength)),
		zap.Strings("keywords", keywords),
	)

	items, err := e.store.FetchAll(ctx)
	if err != nil {
		e.logger.Error("fetching items from the catalog", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if items == nil {
		items = &catalog.Items{}
	}
	// Filters narrow the snapshot in place; the store's copy stays untouched.
	items = &catalog.Items{Items: slices.Clone(items.Items)}
	total := items.Len()

	steps := []Filter{
		NewKeywords(keywords, e.workers),
		NewCostPrice(),
	}
	for _, status := range Describe(steps) {
		e.logger.Debug("filter status", zap.String("name", status.Name), zap.Any("details", status.Details))
	}

	candidates, err := RunFilters(ctx, Deps{Logger: e.logger}, steps, items)
	if err != nil {
		return nil, err
	}

	records := e.price(candidates, margin)
	rank(records)

	e.logger.Info("matched items for requirements",
		zap.Int("catalog_items", total),
		zap.Int("recommended", len(records)),
	)

	return records, nil
}

// price converts candidates into records. Items the calculator rejects are skipped.
func (e *Engine) price(candidates *catalog.Items, margin float64) []Record {
	records := make([]Record, 0, candidates.Len())
	for _, item := range candidates.Items {
		fields := logger.ItemFields(item.ID, item.Name)

		selling, err := e.calculator.SellingPrice(*item.CostPrice, margin)
		if err != nil {
			e.logger.Error("calculating selling price", append(fields, zap.Error(err))...)
			continue
		}

		records = append(records, Record{
			ItemName:              item.Name,
			Description:           item.Description,
			CostPrice:             *item.CostPrice,
			SuggestedSellingPrice: selling,
			ProfitMarginPercent:   margin,
		})

		e.logger.Debug("recommended item", append(fields,
			zap.Float64("cost_price", *item.CostPrice),
			zap.Float64("selling_price", selling),
		)...)
	}
	return records
}
