package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/storage"
)

// RecordStore implements storage.RecordStore on the batch_records table.
type RecordStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.RecordStore = (*RecordStore)(nil)

var recordColumns = []string{"asset_class", "product", "entity", "scenario", "batch_date", "loaded_at"}

// Insert copies records into batch_records in one round trip.
func (s *RecordStore) Insert(ctx context.Context, records []contracts.LoadedRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := storage.ValidateRecord(r); err != nil {
			return err
		}
	}

	stamp := s.now()
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"batch_records"},
		recordColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			loadedAt := r.LoadedAt
			if loadedAt.IsZero() {
				loadedAt = stamp
			}
			return []any{r.AssetClass, r.Product, r.Entity, r.Scenario, contracts.Day(r.BatchDate), loadedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy batch records: %w", err)
	}
	return nil
}

// FindByBatchDate returns records for one batch date ordered by id.
func (s *RecordStore) FindByBatchDate(ctx context.Context, date time.Time) ([]contracts.LoadedRecord, error) {
	query := `
		SELECT id, asset_class, product, entity, scenario, batch_date, loaded_at
		FROM batch_records
		WHERE batch_date = $1
		ORDER BY id
	`

	rows, err := s.pool.Query(ctx, query, contracts.Day(date))
	if err != nil {
		return nil, fmt.Errorf("query batch records by date: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindByBatchDateRange returns records in [start, end] ordered by batch date then id.
func (s *RecordStore) FindByBatchDateRange(ctx context.Context, start, end time.Time) ([]contracts.LoadedRecord, error) {
	if err := storage.ValidateRange(start, end); err != nil {
		return nil, err
	}

	query := `
		SELECT id, asset_class, product, entity, scenario, batch_date, loaded_at
		FROM batch_records
		WHERE batch_date BETWEEN $1 AND $2
		ORDER BY batch_date, id
	`

	rows, err := s.pool.Query(ctx, query, contracts.Day(start), contracts.Day(end))
	if err != nil {
		return nil, fmt.Errorf("query batch records by range: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]contracts.LoadedRecord, error) {
	records := make([]contracts.LoadedRecord, 0)
	for rows.Next() {
		var r contracts.LoadedRecord
		if err := rows.Scan(&r.ID, &r.AssetClass, &r.Product, &r.Entity, &r.Scenario, &r.BatchDate, &r.LoadedAt); err != nil {
			return nil, fmt.Errorf("scan batch record: %w", err)
		}
		records = append(records, storage.Normalize(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch records: %w", err)
	}
	return records, nil
}
