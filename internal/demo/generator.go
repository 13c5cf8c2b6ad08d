// Package demo generates plausible batch loads for local development.
// It is reachable from the seed command and tests only, never from report generation.
package demo

import (
	"math/rand"
	"time"

	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/contracts"
)

// Options shape the generated history
type Options struct {
	MinLoadRate    float64 // per day, share of catalog entries loaded
	MaxLoadRate    float64
	MissingDayRate float64 // chance a whole day has no loads
	LateRate       float64 // chance a record arrives 1-8 days after its batch date
	UnexpectedRate float64 // chance per day of one scenario outside the catalog
	SkipWeekends   bool
}

// DefaultOptions mirror a busy but imperfect feed
func DefaultOptions() Options {
	return Options{
		MinLoadRate:    0.75,
		MaxLoadRate:    0.90,
		MissingDayRate: 0.15,
		LateRate:       0.05,
		UnexpectedRate: 0.10,
		SkipWeekends:   true,
	}
}

// Generate returns records for every day in [start, end].
// Each day is seeded by its date, so regenerating a day yields the same rows.
func Generate(cat *catalog.Catalog, start, end time.Time, opts Options) []contracts.LoadedRecord {
	expected := cat.All()
	out := make([]contracts.LoadedRecord, 0)

	for d := contracts.Day(start); !d.After(contracts.Day(end)); d = d.AddDate(0, 0, 1) {
		if opts.SkipWeekends && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		out = append(out, generateDay(expected, d, opts)...)
	}
	return out
}

func generateDay(expected []contracts.ExpectedScenario, day time.Time, opts Options) []contracts.LoadedRecord {
	rng := rand.New(rand.NewSource(day.Unix() / 86400))

	if rng.Float64() < opts.MissingDayRate {
		return nil
	}

	loadRate := opts.MinLoadRate + rng.Float64()*(opts.MaxLoadRate-opts.MinLoadRate)
	records := make([]contracts.LoadedRecord, 0, len(expected))

	for _, e := range expected {
		if rng.Float64() >= loadRate {
			continue
		}
		records = append(records, contracts.LoadedRecord{
			AssetClass: e.AssetClass,
			Product:    e.Product,
			Entity:     e.Entity,
			Scenario:   e.Scenario,
			BatchDate:  day,
			LoadedAt:   loadedAt(rng, day, opts.LateRate),
		})
	}

	if len(expected) > 0 && rng.Float64() < opts.UnexpectedRate {
		e := expected[rng.Intn(len(expected))]
		records = append(records, contracts.LoadedRecord{
			AssetClass: e.AssetClass,
			Product:    e.Product,
			Entity:     e.Entity,
			Scenario:   "Ad Hoc",
			BatchDate:  day,
			LoadedAt:   loadedAt(rng, day, 0),
		})
	}

	return records
}

// loadedAt lands between 18:00 and 23:59 of the batch day, or 1-8 days later when late
func loadedAt(rng *rand.Rand, day time.Time, lateRate float64) time.Time {
	t := day.Add(18*time.Hour + time.Duration(rng.Intn(6*60))*time.Minute)
	if rng.Float64() < lateRate {
		t = t.AddDate(0, 0, 1+rng.Intn(8))
	}
	return t
}
