// Package reconcile compares loaded batch records against the expectation catalog.
package reconcile

import (
	"sort"

	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/contracts"
)

// Engine derives group summaries and scenario details for one batch date.
// It is pure: the same records always produce the same, identically ordered output.
type Engine struct {
	catalog *catalog.Catalog
}

// New creates a new Engine over cat
func New(cat *catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

// GroupSummaries counts loaded records per group and classifies each group.
// Every catalog group appears, plus any group seen only in records (as UNKNOWN).
// Counts are raw row counts: duplicate rows inflate LoadedCount.
func (e *Engine) GroupSummaries(records []contracts.LoadedRecord) []contracts.GroupSummary {
	loaded := make(map[contracts.GroupKey]int)
	var loadedOrder []contracts.GroupKey
	for _, r := range records {
		g := r.GroupKey()
		if _, seen := loaded[g]; !seen {
			loadedOrder = append(loadedOrder, g)
		}
		loaded[g]++
	}

	summaries := make([]contracts.GroupSummary, 0, len(loaded)+len(e.catalog.GroupKeys()))
	covered := make(map[contracts.GroupKey]struct{})

	for _, g := range e.catalog.GroupKeys() {
		expected := e.catalog.ExpectedCount(g)
		count := loaded[g]
		summaries = append(summaries, newSummary(g, count, expected))
		covered[g] = struct{}{}
	}

	for _, g := range loadedOrder {
		if _, ok := covered[g]; ok {
			continue
		}
		summaries = append(summaries, newSummary(g, loaded[g], 0))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].GroupKey().Less(summaries[j].GroupKey())
	})
	return summaries
}

func newSummary(g contracts.GroupKey, loaded, expected int) contracts.GroupSummary {
	return contracts.GroupSummary{
		AssetClass:    g.AssetClass,
		Product:       g.Product,
		Entity:        g.Entity,
		LoadedCount:   loaded,
		ExpectedCount: expected,
		Status:        contracts.CompletionStatusFromCounts(loaded, expected),
	}
}

// ScenarioDetails emits one detail per catalog entry and one per distinct
// unexpected loaded scenario, sorted by asset class, product, entity, scenario.
func (e *Engine) ScenarioDetails(records []contracts.LoadedRecord) []contracts.ScenarioDetail {
	loaded := make(map[contracts.ScenarioKey]struct{}, len(records))
	for _, r := range records {
		loaded[r.FullKey()] = struct{}{}
	}

	all := e.catalog.All()
	details := make([]contracts.ScenarioDetail, 0, len(all))
	for _, s := range all {
		_, isLoaded := loaded[s.FullKey()]
		details = append(details, contracts.ScenarioDetail{
			AssetClass: s.AssetClass,
			Product:    s.Product,
			Entity:     s.Entity,
			Scenario:   s.Scenario,
			IsLoaded:   isLoaded,
			IsExpected: true,
		})
	}

	emitted := make(map[contracts.ScenarioKey]struct{})
	for _, r := range records {
		if e.catalog.IsExpected(r.AssetClass, r.Product, r.Entity, r.Scenario) {
			continue
		}
		key := r.FullKey()
		if _, dup := emitted[key]; dup {
			continue
		}
		emitted[key] = struct{}{}
		details = append(details, contracts.ScenarioDetail{
			AssetClass: r.AssetClass,
			Product:    r.Product,
			Entity:     r.Entity,
			Scenario:   r.Scenario,
			IsLoaded:   true,
			IsExpected: false,
		})
	}

	sort.SliceStable(details, func(i, j int) bool {
		return details[i].FullKey().Less(details[j].FullKey())
	})
	return details
}

// Overview aggregates the headline numbers of a report
func Overview(summaries []contracts.GroupSummary, details []contracts.ScenarioDetail) contracts.Overview {
	var o contracts.Overview
	assetClasses := make(map[string]struct{})
	products := make(map[string]struct{})
	entities := make(map[string]struct{})

	for _, s := range summaries {
		o.TotalLoaded += s.LoadedCount
		o.TotalExpected += s.ExpectedCount
		if s.IsComplete() {
			o.CompleteGroups++
		}
		assetClasses[s.AssetClass] = struct{}{}
		products[s.Product] = struct{}{}
		entities[s.Entity] = struct{}{}
	}

	for _, d := range details {
		switch d.Status() {
		case contracts.ScenarioLoaded:
			o.LoadedScenarios++
		case contracts.ScenarioMissing:
			o.MissingScenarios++
		case contracts.ScenarioUnexpected:
			o.LoadedScenarios++
			o.UnexpectedScenarios++
		}
	}

	if o.TotalExpected > 0 {
		o.CompletionRate = float64(o.TotalLoaded) / float64(o.TotalExpected) * 100
	}
	o.AssetClasses = len(assetClasses)
	o.Products = len(products)
	o.Entities = len(entities)
	return o
}
