package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joefrost01/batch-report/internal/contracts"
)

// Storage errors shared by every record store backend.
var (
	// ErrInvalidInput is returned when a record fails validation before insert.
	ErrInvalidInput = errors.New("invalid input")
)

// RangeReader reads loaded records for an inclusive batch date range.
type RangeReader interface {
	FindByBatchDateRange(ctx context.Context, start, end time.Time) ([]contracts.LoadedRecord, error)
}

// RecordStore is the source of loaded batch records.
// ⭐ SSOT: reports read pipeline state only through this interface
type RecordStore interface {
	RangeReader

	// FindByBatchDate returns every record whose batch date equals date.
	FindByBatchDate(ctx context.Context, date time.Time) ([]contracts.LoadedRecord, error)

	// Insert appends records. A zero LoadedAt is stamped with the insert time.
	Insert(ctx context.Context, records []contracts.LoadedRecord) error
}

// ValidateRecord checks the fields every backend requires.
func ValidateRecord(r contracts.LoadedRecord) error {
	switch {
	case r.AssetClass == "":
		return fmt.Errorf("%w: asset class is empty", ErrInvalidInput)
	case r.Product == "":
		return fmt.Errorf("%w: product is empty", ErrInvalidInput)
	case r.Entity == "":
		return fmt.Errorf("%w: entity is empty", ErrInvalidInput)
	case r.Scenario == "":
		return fmt.Errorf("%w: scenario is empty", ErrInvalidInput)
	case r.BatchDate.IsZero():
		return fmt.Errorf("%w: batch date is zero", ErrInvalidInput)
	}
	return nil
}

// ValidateRange rejects a range whose end precedes its start.
func ValidateRange(start, end time.Time) error {
	if contracts.Day(end).Before(contracts.Day(start)) {
		return fmt.Errorf("%w: range end %s before start %s", ErrInvalidInput,
			end.Format(contracts.DateLayout), start.Format(contracts.DateLayout))
	}
	return nil
}

// Normalize puts a scanned record into the form every backend returns:
// BatchDate at UTC midnight and LoadedAt in UTC.
func Normalize(r contracts.LoadedRecord) contracts.LoadedRecord {
	r.BatchDate = contracts.Day(r.BatchDate)
	r.LoadedAt = r.LoadedAt.UTC()
	return r
}
