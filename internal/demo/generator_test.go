package demo

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/contracts"
)

var (
	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

func TestGenerateIsDeterministic(t *testing.T) {
	cat := catalog.MustDefault()
	a := Generate(cat, start, end, DefaultOptions())
	b := Generate(cat, start, end, DefaultOptions())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("generation not deterministic:\n%s", diff)
	}
	require.NotEmpty(t, a)
}

func TestGenerateShape(t *testing.T) {
	cat := catalog.MustDefault()
	records := Generate(cat, start, end, DefaultOptions())

	for _, r := range records {
		assert.False(t, contracts.Day(r.BatchDate).Before(start))
		assert.False(t, contracts.Day(r.BatchDate).After(end))
		wd := r.BatchDate.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		assert.False(t, contracts.Day(r.LoadedAt).Before(contracts.Day(r.BatchDate)), "never loaded before its batch date")
	}
}

func TestGenerateRates(t *testing.T) {
	cat := catalog.MustDefault()

	none := Generate(cat, start, end, Options{MissingDayRate: 1})
	assert.Empty(t, none)

	opts := Options{MinLoadRate: 1, MaxLoadRate: 1}
	one := Generate(cat, start, start, opts)
	assert.Len(t, one, cat.Len())
	for _, r := range one {
		assert.True(t, cat.IsExpected(r.AssetClass, r.Product, r.Entity, r.Scenario))
		assert.Equal(t, start, contracts.Day(r.LoadedAt))
	}

	late := Generate(cat, start, start, Options{MinLoadRate: 1, MaxLoadRate: 1, LateRate: 1})
	for _, r := range late {
		days := contracts.DaysBetween(r.BatchDate, r.LoadedAt)
		assert.GreaterOrEqual(t, days, 1)
		assert.LessOrEqual(t, days, 8)
	}
}
