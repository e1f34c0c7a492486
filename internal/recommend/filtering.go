package recommend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/tender-recommender/internal/catalog"
	"github.com/spigell/tender-recommender/internal/logger"
)

// Filter is a single step narrowing the catalog snapshot.
type Filter interface {
	Name() string
	Apply(ctx context.Context, deps Deps, items *catalog.Items) (*catalog.Items, Step, error)
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// RunFilters executes the steps sequentially over items.
func RunFilters(ctx context.Context, deps Deps, steps []Filter, items *catalog.Items) (*catalog.Items, error) {
	for _, step := range steps {
		next, info, err := step.Apply(ctx, deps, items)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		items = next
	}

	return items, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: step.Name()})
	}
	return statuses
}

type keywordFilter struct {
	keywords []string
	workers  int
}

// NewKeywords creates a filter keeping items whose name or description contains any keyword.
// With workers > 1 the snapshot is split into contiguous shards matched concurrently.
func NewKeywords(keywords []string, workers int) Filter {
	if workers < 1 {
		workers = 1
	}
	return &keywordFilter{keywords: keywords, workers: workers}
}

func (f *keywordFilter) Name() string { return "keywords" }

func (f *keywordFilter) Apply(ctx context.Context, deps Deps, items *catalog.Items) (*catalog.Items, Step, error) {
	initial := items.Len()

	matched, err := f.match(ctx, items.Items)
	if err != nil {
		return items, Step{}, err
	}

	idx := 0
	removed := items.Keep(func(*catalog.Item) bool {
		ok := matched[idx]
		idx++
		return ok
	})

	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Debug("excluding items without keyword matches",
			zap.Strings("excluded_items", removed),
			zap.Int("items_left", items.Len()),
		)
	}

	return items, Step{Initial: initial, Dropped: len(removed), Left: items.Len()}, nil
}

// match returns a mask aligned with list. Shards write disjoint ranges of the mask,
// so the merged result equals the sequential one.
func (f *keywordFilter) match(ctx context.Context, list []*catalog.Item) ([]bool, error) {
	mask := make([]bool, len(list))
	if len(f.keywords) == 0 {
		return mask, nil
	}

	if f.workers == 1 || len(list) < f.workers {
		for i, item := range list {
			mask[i] = containsAny(f.keywords, item.Name, item.Description)
		}
		return mask, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	size := (len(list) + f.workers - 1) / f.workers
	for start := 0; start < len(list); start += size {
		end := min(start+size, len(list))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				mask[i] = containsAny(f.keywords, list[i].Name, list[i].Description)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mask, nil
}

func (f *keywordFilter) Status() Status {
	return Status{Name: f.Name(), Details: map[string]string{
		"keywords": strings.Join(f.keywords, ","),
		"workers":  strconv.Itoa(f.workers),
	}}
}

type costPriceFilter struct{}

// NewCostPrice creates a filter dropping items whose cost price is missing, not finite or not positive.
func NewCostPrice() Filter {
	return &costPriceFilter{}
}

func (f *costPriceFilter) Name() string { return "cost_price" }

func (f *costPriceFilter) Apply(_ context.Context, deps Deps, items *catalog.Items) (*catalog.Items, Step, error) {
	initial := items.Len()

	removed := items.Keep(func(item *catalog.Item) bool {
		if item.HasValidCost() {
			return true
		}
		if deps.Logger != nil {
			fields := logger.ItemFields(item.ID, item.Name)
			fields = append(fields, zap.String("cost_price", formatCost(item.CostPrice)))
			deps.Logger.Warn("skipping item due to invalid cost price", fields...)
		}
		return false
	})

	return items, Step{Initial: initial, Dropped: len(removed), Left: items.Len()}, nil
}

func formatCost(cost *float64) string {
	if cost == nil {
		return "null"
	}
	return strconv.FormatFloat(*cost, 'g', -1, 64)
}
