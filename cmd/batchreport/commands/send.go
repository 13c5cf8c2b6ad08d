package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joefrost01/batch-report/internal/contracts"
)

var sendDate string

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Generate and mail the report for a batch date",
	Long: `Generates the report, renders the email layout with the trend chart
inline and sends it to MAIL_RECIPIENTS.

Without --date the previous business day in REPORT_TIMEZONE is used.

Example:
  go run ./cmd/batchreport send
  go run ./cmd/batchreport send --date 2024-01-15`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendDate, "date", "", "batch date (YYYY-MM-DD)")
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := a.batchDateFlag(sendDate)
	if err != nil {
		return err
	}

	start := time.Now()
	PrintHeader("Batch Report Delivery", date.Format(contracts.DateLayout))

	if err := a.service.SendReport(cmd.Context(), date); err != nil {
		PrintError(err.Error())
		return err
	}

	PrintCompletion(fmt.Sprintf("Report sent to %d recipient(s)", len(a.cfg.Mail.Recipients)), time.Since(start))
	return nil
}
