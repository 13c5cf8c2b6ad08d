package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joefrost01/batch-report/internal/render"
)

var (
	previewDate    string
	previewVariant string
	previewOut     string
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the report as a standalone HTML file",
	Long: `Renders the full or email layout with the chart embedded, so the
file opens in any browser.

Example:
  go run ./cmd/batchreport preview --out report.html
  go run ./cmd/batchreport preview --variant email --date 2024-01-15 --out email.html`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringVar(&previewDate, "date", "", "batch date (YYYY-MM-DD)")
	previewCmd.Flags().StringVar(&previewVariant, "variant", string(render.VariantFull), "layout: full|email")
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "output file (default stdout)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	variant, err := render.ParseVariant(previewVariant)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := a.batchDateFlag(previewDate)
	if err != nil {
		return err
	}

	html, err := a.service.Preview(cmd.Context(), date, variant)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	return writeOutput(previewOut, html)
}

// writeOutput writes to path, or stdout when path is empty
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	PrintSuccess(fmt.Sprintf("Wrote %s (%d bytes)", path, len(data)))
	return nil
}
