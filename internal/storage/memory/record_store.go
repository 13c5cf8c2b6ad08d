package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/storage"
)

// RecordStore is an in-memory implementation of storage.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records []contracts.LoadedRecord
	nextID  int64
	now     func() time.Time
}

// NewRecordStore creates a new in-memory RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{nextID: 1, now: time.Now}
}

// Compile-time interface check.
var _ storage.RecordStore = (*RecordStore)(nil)

// Insert validates and appends records. The batch is rejected as a whole on any invalid record.
func (s *RecordStore) Insert(_ context.Context, records []contracts.LoadedRecord) error {
	for _, r := range records {
		if err := storage.ValidateRecord(r); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now()
	for _, r := range records {
		r.ID = s.nextID
		s.nextID++
		r.BatchDate = contracts.Day(r.BatchDate)
		if r.LoadedAt.IsZero() {
			r.LoadedAt = stamp
		}
		s.records = append(s.records, r)
	}
	return nil
}

// FindByBatchDate returns copies of records for one batch date, in insertion order.
func (s *RecordStore) FindByBatchDate(_ context.Context, date time.Time) ([]contracts.LoadedRecord, error) {
	day := contracts.Day(date)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]contracts.LoadedRecord, 0)
	for _, r := range s.records {
		if r.BatchDate.Equal(day) {
			result = append(result, r)
		}
	}
	return result, nil
}

// FindByBatchDateRange returns copies of records in [start, end], ordered by batch date then id.
func (s *RecordStore) FindByBatchDateRange(_ context.Context, start, end time.Time) ([]contracts.LoadedRecord, error) {
	if err := storage.ValidateRange(start, end); err != nil {
		return nil, err
	}
	from, to := contracts.Day(start), contracts.Day(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]contracts.LoadedRecord, 0)
	for _, r := range s.records {
		if !r.BatchDate.Before(from) && !r.BatchDate.After(to) {
			result = append(result, r)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].BatchDate.Equal(result[j].BatchDate) {
			return result[i].BatchDate.Before(result[j].BatchDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
