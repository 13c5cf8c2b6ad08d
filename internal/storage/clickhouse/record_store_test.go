package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/storage/migrations"
)

// setupTestDB creates a ClickHouse container and returns a migrated connection.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	conn, err := NewConn(ctx, fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port()))
	require.NoError(t, err)

	_, err = migrations.RunClickhouse(ctx, conn)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}
	return conn, cleanup
}

func TestRecordStore(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRecordStore(conn)

	batch, _ := contracts.ParseDate("2024-01-15")
	old, _ := contracts.ParseDate("2024-01-10")
	loaded := time.Date(2024, 1, 14, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, []contracts.LoadedRecord{
		{AssetClass: "Cash", Product: "Money Market", Entity: "Entity A", Scenario: "Base", BatchDate: batch},
		{AssetClass: "Cash", Product: "Money Market", Entity: "Entity B", Scenario: "Base", BatchDate: old, LoadedAt: loaded},
	}))

	got, err := store.FindByBatchDate(ctx, batch)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Entity A", got[0].Entity)
	assert.Equal(t, batch, got[0].BatchDate)
	assert.False(t, got[0].LoadedAt.IsZero())

	got, err = store.FindByBatchDateRange(ctx, old.AddDate(0, 0, -1), batch.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, loaded.Equal(got[0].LoadedAt))
}
