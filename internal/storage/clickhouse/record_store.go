package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/storage"
)

// RecordStore implements storage.RecordStore on a MergeTree table.
// ClickHouse has no sequences, so returned records carry ID 0.
type RecordStore struct {
	conn driver.Conn
	now  func() time.Time
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(conn driver.Conn) *RecordStore {
	return &RecordStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.RecordStore = (*RecordStore)(nil)

// Insert appends records through a single native batch.
func (s *RecordStore) Insert(ctx context.Context, records []contracts.LoadedRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := storage.ValidateRecord(r); err != nil {
			return err
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO batch_records (
			asset_class, product, entity, scenario, batch_date, loaded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	stamp := s.now().UTC()
	for _, r := range records {
		loadedAt := r.LoadedAt.UTC()
		if r.LoadedAt.IsZero() {
			loadedAt = stamp
		}
		if err := batch.Append(r.AssetClass, r.Product, r.Entity, r.Scenario, contracts.Day(r.BatchDate), loadedAt); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// FindByBatchDate returns records for one batch date.
func (s *RecordStore) FindByBatchDate(ctx context.Context, date time.Time) ([]contracts.LoadedRecord, error) {
	query := `
		SELECT asset_class, product, entity, scenario, batch_date, loaded_at
		FROM batch_records
		WHERE batch_date = toDate(?)
		ORDER BY loaded_at, asset_class, product, entity, scenario
	`

	rows, err := s.conn.Query(ctx, query, contracts.Day(date).Format(contracts.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query batch records by date: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindByBatchDateRange returns records in [start, end] ordered by batch date.
func (s *RecordStore) FindByBatchDateRange(ctx context.Context, start, end time.Time) ([]contracts.LoadedRecord, error) {
	if err := storage.ValidateRange(start, end); err != nil {
		return nil, err
	}

	query := `
		SELECT asset_class, product, entity, scenario, batch_date, loaded_at
		FROM batch_records
		WHERE batch_date >= toDate(?) AND batch_date <= toDate(?)
		ORDER BY batch_date, loaded_at, asset_class, product, entity, scenario
	`

	rows, err := s.conn.Query(ctx, query,
		contracts.Day(start).Format(contracts.DateLayout),
		contracts.Day(end).Format(contracts.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query batch records by range: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows driver.Rows) ([]contracts.LoadedRecord, error) {
	records := make([]contracts.LoadedRecord, 0)
	for rows.Next() {
		var r contracts.LoadedRecord
		if err := rows.Scan(&r.AssetClass, &r.Product, &r.Entity, &r.Scenario, &r.BatchDate, &r.LoadedAt); err != nil {
			return nil, fmt.Errorf("scan batch record: %w", err)
		}
		records = append(records, storage.Normalize(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch records: %w", err)
	}
	return records, nil
}
