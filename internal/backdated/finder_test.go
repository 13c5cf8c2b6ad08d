package backdated

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/storage/memory"
	"github.com/joefrost01/batch-report/pkg/logger"
)

func d(s string) time.Time {
	t, err := contracts.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func record(scenario, batch string, loadedAt time.Time) contracts.LoadedRecord {
	return contracts.LoadedRecord{
		AssetClass: "Equity", Product: "US Large Cap", Entity: "Entity A", Scenario: scenario,
		BatchDate: d(batch), LoadedAt: loadedAt,
	}
}

func seeded(t *testing.T, records ...contracts.LoadedRecord) *memory.RecordStore {
	t.Helper()
	store := memory.NewRecordStore()
	require.NoError(t, store.Insert(context.Background(), records))
	return store
}

type failingStore struct{}

func (failingStore) FindByBatchDateRange(context.Context, time.Time, time.Time) ([]contracts.LoadedRecord, error) {
	return nil, errors.New("connection refused")
}

func TestFind_FilterExample(t *testing.T) {
	current := d("2024-01-15")
	store := seeded(t,
		// batch 5 days ago, loaded yesterday: 4 days late
		record("Base", "2024-01-10", time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC)),
		// batch = current: outside the window
		record("Stress", "2024-01-15", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)),
		// batch = current-1: excluded by the strict filter
		record("Adverse", "2024-01-14", time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC)),
	)

	got, err := NewFinder(store).Find(context.Background(), current)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Base", got[0].Scenario)
	assert.Equal(t, d("2024-01-10"), got[0].BatchDate)
	assert.Equal(t, d("2024-01-14"), got[0].LoadedDate)
	assert.Equal(t, 4, got[0].DaysLate())
	assert.Equal(t, contracts.SeveritySignificant, got[0].Severity())
}

func TestFind_WindowBounds(t *testing.T) {
	loaded := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	store := seeded(t,
		record("Edge7", "2024-01-08", loaded), // current-7, inside
		record("Edge8", "2024-01-07", loaded), // current-8, outside
		record("Edge2", "2024-01-13", loaded), // current-2, inside
	)

	got, err := NewFinder(store).Find(context.Background(), d("2024-01-15"))
	require.NoError(t, err)

	names := map[string]bool{}
	for _, b := range got {
		names[b.Scenario] = true
	}
	assert.True(t, names["Edge7"])
	assert.True(t, names["Edge2"])
	assert.False(t, names["Edge8"])
}

func TestFind_SortedByLoadedDateDescending(t *testing.T) {
	store := seeded(t,
		record("A", "2024-01-09", time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)),
		record("B", "2024-01-10", time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC)),
		record("C", "2024-01-12", time.Date(2024, 1, 13, 8, 0, 0, 0, time.UTC)),
		record("D", "2024-01-08", time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC)),
	)

	got, err := NewFinder(store).Find(context.Background(), d("2024-01-15"))
	require.NoError(t, err)
	require.Len(t, got, 4)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].LoadedDate.After(got[i-1].LoadedDate))
	}
	assert.Equal(t, "A", got[3].Scenario)
	// equal load dates keep the store order (batch date ascending)
	assert.Equal(t, "D", got[0].Scenario)
	assert.Equal(t, "B", got[1].Scenario)
}

func TestFind_Limit(t *testing.T) {
	var records []contracts.LoadedRecord
	for i := 0; i < 80; i++ {
		records = append(records, record(fmt.Sprintf("S%02d", i), "2024-01-10",
			time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)))
	}
	store := seeded(t, records...)

	got, err := NewFinder(store).Find(context.Background(), d("2024-01-15"))
	require.NoError(t, err)
	assert.Len(t, got, DefaultLimit)

	got, err = NewFinder(store, WithLimit(5)).Find(context.Background(), d("2024-01-15"))
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestFind_SkipsUnusableTimestamps(t *testing.T) {
	store := &staticStore{records: []contracts.LoadedRecord{
		record("NoStamp", "2024-01-10", time.Time{}),
		record("BeforeBatch", "2024-01-10", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)),
		record("Good", "2024-01-10", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)),
	}}

	got, err := NewFinder(store).Find(context.Background(), d("2024-01-15"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Good", got[0].Scenario)
	assert.Equal(t, 1, got[0].DaysLate())
	assert.Equal(t, contracts.SeverityMinimal, got[0].Severity())
}

func TestFind_SkippedRecordsLoggedAtDebug(t *testing.T) {
	tests := []struct {
		level     string
		wantLines int
	}{
		{level: "debug", wantLines: 1},
		{level: "info", wantLines: 0},
		{level: "warn", wantLines: 0},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			store := &staticStore{records: []contracts.LoadedRecord{
				record("NoStamp", "2024-01-10", time.Time{}),
				record("BeforeBatch", "2024-01-10", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)),
			}}

			var buf bytes.Buffer
			log := logger.NewWithWriter(&buf, tt.level, "json", "test")

			got, err := NewFinder(store, WithLogger(log)).Find(context.Background(), d("2024-01-15"))
			require.NoError(t, err)
			assert.Empty(t, got)

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			if tt.wantLines == 0 {
				assert.Zero(t, buf.Len())
				return
			}
			require.Len(t, lines, tt.wantLines)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(lines[0], &entry))
			assert.Equal(t, "debug", entry["level"])
			assert.EqualValues(t, 2, entry["skipped"])
		})
	}
}

func TestFind_EmptyStore(t *testing.T) {
	got, err := NewFinder(memory.NewRecordStore()).Find(context.Background(), d("2024-01-15"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFind_StoreError(t *testing.T) {
	_, err := NewFinder(failingStore{}).Find(context.Background(), d("2024-01-15"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// staticStore returns its records regardless of range, exercising the finder's own filters
type staticStore struct {
	records []contracts.LoadedRecord
}

func (s *staticStore) FindByBatchDateRange(context.Context, time.Time, time.Time) ([]contracts.LoadedRecord, error) {
	return s.records, nil
}
