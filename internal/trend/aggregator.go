// Package trend builds the daily load series behind the status chart.
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/storage"
)

// DefaultWindowDays is the length of the trend series
const DefaultWindowDays = 120

// Aggregator produces per-day loaded counts over a fixed window
type Aggregator struct {
	store      storage.RangeReader
	windowDays int
}

// NewAggregator creates a new Aggregator. A non-positive window falls back to the default.
func NewAggregator(store storage.RangeReader, windowDays int) *Aggregator {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Aggregator{store: store, windowDays: windowDays}
}

// WindowDays returns the configured window length
func (a *Aggregator) WindowDays() int {
	return a.windowDays
}

// DailyCounts returns exactly WindowDays entries ending at endDate, oldest first
func (a *Aggregator) DailyCounts(ctx context.Context, endDate time.Time) ([]contracts.DailyStatusCount, error) {
	end := contracts.Day(endDate)
	start := end.AddDate(0, 0, -(a.windowDays - 1))

	records, err := a.store.FindByBatchDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("find trend records: %w", err)
	}

	return Aggregate(records, end, a.windowDays), nil
}

// Aggregate counts records per batch date over [end-(days-1), end] with no gaps.
// Records outside the window are ignored. A non-positive days falls back to the default.
func Aggregate(records []contracts.LoadedRecord, endDate time.Time, days int) []contracts.DailyStatusCount {
	if days <= 0 {
		days = DefaultWindowDays
	}
	end := contracts.Day(endDate)

	counts := make(map[time.Time]int)
	for _, r := range records {
		counts[contracts.Day(r.BatchDate)]++
	}

	series := make([]contracts.DailyStatusCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := end.AddDate(0, 0, -i)
		loaded := counts[date]
		missing := 0
		if loaded == 0 {
			missing = 1
		}
		series = append(series, contracts.DailyStatusCount{
			Date:         date,
			LoadedCount:  loaded,
			MissingCount: missing,
		})
	}
	return series
}
