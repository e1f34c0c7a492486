package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/tender-recommender/internal/catalog"
)

type stubStore struct {
	items []*catalog.Item
	err   error
	calls int
}

func (s *stubStore) FetchAll(_ context.Context) (*catalog.Items, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	// Hand out a fresh snapshot so filters never mutate the fixture.
	items := make([]*catalog.Item, len(s.items))
	copy(items, s.items)
	return &catalog.Items{Items: items}, nil
}

func item(name, description string, cost *float64) *catalog.Item {
	return &catalog.Item{Name: name, Description: description, CostPrice: cost}
}

func sampleCatalog() []*catalog.Item {
	return []*catalog.Item{
		item("Security Camera", "HD night vision security camera", catalog.Cost(120.0)),
		item("Motion Detector", "Infrared motion sensor for indoor/outdoor use", catalog.Cost(45.5)),
		item("Alarm Panel", "Touchscreen alarm control panel", catalog.Cost(200.0)),
	}
}

func names(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ItemName)
	}
	return out
}

func TestRecommendRejectsEmptyRequirements(t *testing.T) {
	t.Parallel()

	for _, requirements := range []string{"", "   ", "\t\n"} {
		store := &stubStore{items: sampleCatalog()}
		engine := New(store, Config{}, zap.NewNop())

		records, err := engine.Recommend(context.Background(), requirements, 10)
		if !errors.Is(err, ErrEmptyRequirements) {
			t.Fatalf("requirements %q: expected ErrEmptyRequirements, got %v", requirements, err)
		}
		if records != nil {
			t.Fatalf("expected no records, got %v", records)
		}
		if store.calls != 0 {
			t.Fatalf("expected catalog not to be queried, got %d calls", store.calls)
		}
	}

	// An empty catalog changes nothing.
	engine := New(&stubStore{}, Config{}, nil)
	if _, err := engine.Recommend(context.Background(), "", 10); !errors.Is(err, ErrEmptyRequirements) {
		t.Fatalf("expected ErrEmptyRequirements, got %v", err)
	}
}

func TestRecommendMatchesAndRanks(t *testing.T) {
	t.Parallel()

	engine := New(&stubStore{items: sampleCatalog()}, Config{}, zap.NewNop())

	records, err := engine.Recommend(context.Background(), "security camera motion detector", 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := names(records), []string{"Security Camera", "Motion Detector"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	camera := records[0]
	if camera.CostPrice != 120.0 || camera.SuggestedSellingPrice != 120.0*(1+15.0/100) {
		t.Fatalf("unexpected camera pricing: %+v", camera)
	}
	if camera.ProfitMarginPercent != 15 {
		t.Fatalf("expected margin 15, got %v", camera.ProfitMarginPercent)
	}
	if camera.Description != "HD night vision security camera" {
		t.Fatalf("unexpected description: %q", camera.Description)
	}
	if math.Abs(camera.Profit()-18.0) > 1e-9 {
		t.Fatalf("expected profit 18, got %v", camera.Profit())
	}
	if math.Abs(records[1].Profit()-6.825) > 1e-9 {
		t.Fatalf("expected profit 6.825, got %v", records[1].Profit())
	}
}

func TestRecommendUsesSubstringMatching(t *testing.T) {
	t.Parallel()

	engine := New(&stubStore{items: sampleCatalog()}, Config{}, zap.NewNop())

	records, err := engine.Recommend(context.Background(), "cam", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(records); !reflect.DeepEqual(got, []string{"Security Camera"}) {
		t.Fatalf("expected only the camera, got %v", got)
	}

	// Description matches count as well, and case is ignored.
	records, err = engine.Recommend(context.Background(), "TOUCHSCREEN", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(records); !reflect.DeepEqual(got, []string{"Alarm Panel"}) {
		t.Fatalf("expected only the alarm panel, got %v", got)
	}
}

func TestRecommendReturnsEmptyOnNoMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		requirements string
		items        []*catalog.Item
	}{
		{name: "no keyword matches", requirements: "forklift", items: sampleCatalog()},
		{name: "punctuation only", requirements: "?!... ---", items: sampleCatalog()},
		{name: "empty catalog", requirements: "camera", items: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &stubStore{items: tt.items}
			records, err := New(store, Config{}, zap.NewNop()).Recommend(context.Background(), tt.requirements, 20)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if records == nil || len(records) != 0 {
				t.Fatalf("expected empty non-nil result, got %#v", records)
			}
			if store.calls != 1 {
				t.Fatalf("expected one catalog query, got %d", store.calls)
			}
		})
	}
}

func TestRecommendCatalogUnavailable(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	engine := New(&stubStore{err: cause}, Config{}, zap.NewNop())

	records, err := engine.Recommend(context.Background(), "camera", 10)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the store error to be wrapped, got %v", err)
	}
	if records != nil {
		t.Fatalf("expected no partial results, got %v", records)
	}
}

func TestRecommendAcceptsStoreFunc(t *testing.T) {
	t.Parallel()

	query := catalog.StoreFunc(func(context.Context) (*catalog.Items, error) {
		return nil, nil
	})

	records, err := New(query, Config{}, nil).Recommend(context.Background(), "camera", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %v", records)
	}
}

func TestRecommendSkipsInvalidCostPrices(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	store := &stubStore{items: []*catalog.Item{
		item("Camera Zero", "camera", catalog.Cost(0)),
		item("Camera Null", "camera", nil),
		item("Camera Negative", "camera", catalog.Cost(-3)),
		item("Camera NaN", "camera", catalog.Cost(math.NaN())),
		item("Camera Inf", "camera", catalog.Cost(math.Inf(1))),
		item("Camera Good", "camera", catalog.Cost(10)),
	}}

	records, err := New(store, Config{}, zap.New(core)).Recommend(context.Background(), "camera", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(records); !reflect.DeepEqual(got, []string{"Camera Good"}) {
		t.Fatalf("expected only the valid item, got %v", got)
	}

	skipped := observed.FilterMessage("skipping item due to invalid cost price").All()
	if len(skipped) != 5 {
		t.Fatalf("expected 5 skip warnings, got %d", len(skipped))
	}
	if skipped[1].ContextMap()["cost_price"] != "null" {
		t.Fatalf("expected null cost in log, got %v", skipped[1].ContextMap()["cost_price"])
	}
}

func TestRecommendRanksByAbsoluteProfit(t *testing.T) {
	t.Parallel()

	store := &stubStore{items: []*catalog.Item{
		item("Cheap Sensor", "sensor", catalog.Cost(50)),
		item("Expensive Sensor", "sensor", catalog.Cost(100)),
		item("Middle Sensor", "sensor", catalog.Cost(75)),
	}}
	engine := New(store, Config{}, zap.NewNop())

	records, err := engine.Recommend(context.Background(), "sensor", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Expensive Sensor", "Middle Sensor", "Cheap Sensor"}
	if got := names(records); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// A discount makes the largest cost the largest loss.
	records, err = engine.Recommend(context.Background(), "sensor", -10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []string{"Cheap Sensor", "Middle Sensor", "Expensive Sensor"}
	if got := names(records); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRecommendKeepsRetrievalOrderOnTies(t *testing.T) {
	t.Parallel()

	store := &stubStore{items: []*catalog.Item{
		item("Door Sensor B", "door", catalog.Cost(18.75)),
		item("Door Sensor A", "door", catalog.Cost(18.75)),
		item("Door Sensor C", "door", catalog.Cost(18.75)),
		item("Door Lock", "door", catalog.Cost(40)),
	}}

	records, err := New(store, Config{}, zap.NewNop()).Recommend(context.Background(), "door", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Door Lock", "Door Sensor B", "Door Sensor A", "Door Sensor C"}
	if got := names(records); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRecommendIsIdempotent(t *testing.T) {
	t.Parallel()

	store := &stubStore{items: sampleCatalog()}
	engine := New(store, Config{}, zap.NewNop())

	first, err := engine.Recommend(context.Background(), "security camera motion detector alarm", 12.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Recommend(context.Background(), "security camera motion detector alarm", 12.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %v and %v", first, second)
	}
	if store.calls != 2 {
		t.Fatalf("expected no caching between calls, got %d queries", store.calls)
	}
}

func TestRecommendShardedMatchingIsEquivalent(t *testing.T) {
	t.Parallel()

	items := make([]*catalog.Item, 0, 1000)
	for i := range 1000 {
		description := "generic part"
		switch i % 7 {
		case 0:
			description = "security camera housing"
		case 3:
			description = "motion relay"
		}
		items = append(items, item(fmt.Sprintf("Part %04d", i), description, catalog.Cost(float64(i%13+1))))
	}

	sequential, err := New(&stubStore{items: items}, Config{Workers: 1}, nil).Recommend(context.Background(), "camera motion", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, workers := range []int{2, 3, 8, 64} {
		sharded, err := New(&stubStore{items: items}, Config{Workers: workers}, nil).Recommend(context.Background(), "camera motion", 25)
		if err != nil {
			t.Fatalf("workers %d: unexpected error: %v", workers, err)
		}
		if !reflect.DeepEqual(sequential, sharded) {
			t.Fatalf("workers %d: output differs from sequential matching", workers)
		}
	}
}

func TestRecommendLogsFilterSteps(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	store := &stubStore{items: append(sampleCatalog(), item("Camera Mount", "camera bracket", nil))}

	if _, err := New(store, Config{}, zap.New(core)).Recommend(context.Background(), "camera", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	steps := observed.FilterMessage("filter step").All()
	if len(steps) != 2 {
		t.Fatalf("expected 2 filter steps, got %d", len(steps))
	}

	keywords := steps[0].ContextMap()
	if keywords["name"] != "keywords" || keywords["initial"] != int64(4) || keywords["left"] != int64(2) {
		t.Fatalf("unexpected keyword step: %v", keywords)
	}
	cost := steps[1].ContextMap()
	if cost["name"] != "cost_price" || cost["dropped"] != int64(1) || cost["left"] != int64(1) {
		t.Fatalf("unexpected cost step: %v", cost)
	}
}

func TestRecommendLogsFilterStatus(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	engine := New(&stubStore{items: sampleCatalog()}, Config{Workers: 4}, zap.New(core))

	if _, err := engine.Recommend(context.Background(), "Door sensor", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	statuses := observed.FilterMessage("filter status").All()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 filter statuses, got %d", len(statuses))
	}

	keywords := statuses[0].ContextMap()
	want := map[string]string{"keywords": "door,sensor", "workers": "4"}
	if keywords["name"] != "keywords" || !reflect.DeepEqual(keywords["details"], want) {
		t.Fatalf("unexpected keyword status: %v", keywords)
	}
	if statuses[1].ContextMap()["name"] != "cost_price" {
		t.Fatalf("unexpected cost status: %v", statuses[1].ContextMap())
	}
}
