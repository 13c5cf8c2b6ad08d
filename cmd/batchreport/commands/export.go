package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportDate string
	exportOut  string
	emlDate    string
	emlOut     string
)

// exportCmd writes the report workbook
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the report and catalog as an Excel workbook",
	Long: `Writes Summary, Details, Backdated, Trend and Catalog sheets.

Example:
  go run ./cmd/batchreport export --date 2024-01-15
  go run ./cmd/batchreport export --out report.xlsx`,
	RunE: runExport,
}

// emlCmd writes the report email without sending it
var emlCmd = &cobra.Command{
	Use:   "eml",
	Short: "Write the report email as an .eml file",
	Long: `Builds exactly the message "send" would deliver and saves it, so it
can be opened in a mail client or forwarded by hand.

Example:
  go run ./cmd/batchreport eml --date 2024-01-15`,
	RunE: runEML,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDate, "date", "", "batch date (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default batch-report-<date>.xlsx)")

	rootCmd.AddCommand(emlCmd)
	emlCmd.Flags().StringVar(&emlDate, "date", "", "batch date (YYYY-MM-DD)")
	emlCmd.Flags().StringVarP(&emlOut, "out", "o", "", "output file (default batch-report-<date>.eml)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := a.batchDateFlag(exportDate)
	if err != nil {
		return err
	}

	data, name, err := a.service.Workbook(cmd.Context(), date)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if exportOut == "" {
		exportOut = name
	}
	return writeOutput(exportOut, data)
}

func runEML(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := a.batchDateFlag(emlDate)
	if err != nil {
		return err
	}

	data, name, err := a.service.EML(cmd.Context(), date)
	if err != nil {
		return fmt.Errorf("build eml: %w", err)
	}
	if emlOut == "" {
		emlOut = name
	}
	return writeOutput(emlOut, data)
}
