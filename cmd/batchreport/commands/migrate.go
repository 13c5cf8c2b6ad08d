package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joefrost01/batch-report/internal/storage/clickhouse"
	"github.com/joefrost01/batch-report/internal/storage/migrations"
	"github.com/joefrost01/batch-report/pkg/config"
	"github.com/joefrost01/batch-report/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the batch record tables",
	Long: `Applies the embedded schema for the configured RECORD_STORE.

Migrations are idempotent and safe to re-run.

Example:
  go run ./cmd/batchreport migrate
  RECORD_STORE=clickhouse go run ./cmd/batchreport migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var applied []string
	switch cfg.RecordStore {
	case config.StoreMemory:
		PrintInfo("In-memory store has no schema, nothing to migrate")
		return nil

	case config.StoreClickHouse:
		conn, err := clickhouse.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		applied, err = migrations.RunClickhouse(ctx, conn)
		if err != nil {
			return err
		}

	default:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		applied, err = migrations.RunPostgres(ctx, db.Pool)
		if err != nil {
			return err
		}
	}

	PrintSuccess(fmt.Sprintf("Applied %d migration(s) to %s", len(applied), cfg.RecordStore))
	PrintList(applied)
	return nil
}
