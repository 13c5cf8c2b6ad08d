package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/internal/demo"
	"github.com/joefrost01/batch-report/internal/storage/memory"
)

var (
	seedFrom string
	seedTo   string
	seedDays int
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert generated batch history for demos",
	Long: `Generates a realistic batch history from the catalog, with missing
days, late arrivals and unexpected scenarios, and inserts it into the
configured record store. Output is deterministic for a given range.

Example:
  go run ./cmd/batchreport seed --days 120
  go run ./cmd/batchreport seed --from 2024-01-01 --to 2024-03-31`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFrom, "from", "", "first batch date (YYYY-MM-DD)")
	seedCmd.Flags().StringVar(&seedTo, "to", "", "last batch date (YYYY-MM-DD, default today)")
	seedCmd.Flags().IntVar(&seedDays, "days", 120, "days of history when --from is not set")
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := a.store.(*memory.RecordStore); ok {
		PrintWarning("RECORD_STORE=memory: seeded data disappears when this command exits. Use `api --demo` instead.")
	}

	end := contracts.Day(time.Now().UTC())
	if seedTo != "" {
		if end, err = contracts.ParseDate(seedTo); err != nil {
			return fmt.Errorf("invalid --to %q: %w", seedTo, err)
		}
	}
	start := end.AddDate(0, 0, -seedDays)
	if seedFrom != "" {
		if start, err = contracts.ParseDate(seedFrom); err != nil {
			return fmt.Errorf("invalid --from %q: %w", seedFrom, err)
		}
	}
	if end.Before(start) {
		return fmt.Errorf("--to %s is before --from %s", end.Format(contracts.DateLayout), start.Format(contracts.DateLayout))
	}

	begin := time.Now()
	PrintHeader("Seed Batch History", fmt.Sprintf("%s ~ %s", start.Format(contracts.DateLayout), end.Format(contracts.DateLayout)))

	records := demo.Generate(a.catalog, start, end, demo.DefaultOptions())
	if err := a.store.Insert(cmd.Context(), records); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	PrintCompletion(fmt.Sprintf("Inserted %d records into %s", len(records), a.cfg.RecordStore), time.Since(begin))
	return nil
}
