// Package backdated finds records that arrived after their batch date had passed.
package backdated

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/storage"
	"github.com/joefrost01/batch-report/pkg/logger"
)

// Defaults for the late-arrival window
const (
	DefaultLookbackDays = 7
	DefaultLimit        = 50
)

// Finder lists recently loaded backdated scenarios
type Finder struct {
	store        storage.RangeReader
	lookbackDays int
	limit        int
	log          *logger.Logger
}

// Option configures a Finder
type Option func(*Finder)

// WithLookbackDays overrides the 7 day window
func WithLookbackDays(days int) Option {
	return func(f *Finder) { f.lookbackDays = days }
}

// WithLimit overrides the 50 row cap
func WithLimit(limit int) Option {
	return func(f *Finder) { f.limit = limit }
}

// WithLogger attaches a logger for skipped-record diagnostics
func WithLogger(log *logger.Logger) Option {
	return func(f *Finder) { f.log = log }
}

// NewFinder creates a new Finder
func NewFinder(store storage.RangeReader, opts ...Option) *Finder {
	f := &Finder{
		store:        store,
		lookbackDays: DefaultLookbackDays,
		limit:        DefaultLimit,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns records with batch dates in [current-lookback, current-2],
// most recently loaded first, capped at the limit.
// Records without a load timestamp, or loaded before their batch date, are skipped.
func (f *Finder) Find(ctx context.Context, currentBatchDate time.Time) ([]contracts.BackdatedScenario, error) {
	current := contracts.Day(currentBatchDate)
	start := current.AddDate(0, 0, -f.lookbackDays)
	end := current.AddDate(0, 0, -1)

	records, err := f.store.FindByBatchDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("find backdated records: %w", err)
	}

	// strictly older than the previous batch date
	cutoff := end
	result := make([]contracts.BackdatedScenario, 0)
	skipped := 0

	for _, r := range records {
		batch := contracts.Day(r.BatchDate)
		if !batch.Before(cutoff) {
			continue
		}
		if r.LoadedAt.IsZero() {
			skipped++
			continue
		}
		loadedDate := contracts.Day(r.LoadedAt)
		if loadedDate.Before(batch) {
			skipped++
			continue
		}

		result = append(result, contracts.BackdatedScenario{
			AssetClass: r.AssetClass,
			Product:    r.Product,
			Entity:     r.Entity,
			Scenario:   r.Scenario,
			BatchDate:  batch,
			LoadedDate: loadedDate,
		})
	}

	if skipped > 0 {
		f.log.WithFields(map[string]interface{}{
			"batch_date": current.Format(contracts.DateLayout),
			"skipped":    skipped,
		}).Debug("Skipped records without a usable load timestamp")
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LoadedDate.After(result[j].LoadedDate)
	})

	if len(result) > f.limit {
		result = result[:f.limit]
	}
	return result, nil
}
