package commands

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joefrost01/batch-report/internal/catalog"
)

var (
	catalogFile string
	catalogOut  string
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the expected scenario catalog",
	Long: `Lists, validates or exports the catalog of expected scenarios.

Without --file the embedded default catalog is used.

Example:
  go run ./cmd/batchreport catalog list
  go run ./cmd/batchreport catalog validate ./catalog.yaml
  go run ./cmd/batchreport catalog export --out catalog.yaml`,
}

var (
	catalogListCmd = &cobra.Command{
		Use:   "list",
		Short: "List expected scenarios by group",
		RunE:  listCatalog,
	}

	catalogValidateCmd = &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a catalog file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateCatalog,
	}

	catalogExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as YAML",
		RunE:  exportCatalog,
	}
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.PersistentFlags().StringVarP(&catalogFile, "file", "f", "", "catalog YAML (default embedded)")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogExportCmd.Flags().StringVarP(&catalogOut, "out", "o", "", "output file (default stdout)")
}

func listCatalog(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(catalogFile)
	if err != nil {
		return err
	}

	widths := []int{12, 16, 10, 28}
	PrintTableHeader([]string{"Asset Class", "Product", "Entity", "Scenario"}, widths)
	for _, s := range cat.All() {
		PrintTableRow([]string{s.AssetClass, s.Product, s.Entity, s.Scenario}, widths)
	}
	PrintSeparator()
	fmt.Printf("%d scenarios in %d groups\n", cat.Len(), len(cat.GroupKeys()))
	return nil
}

func validateCatalog(cmd *cobra.Command, args []string) error {
	path := catalogFile
	if len(args) == 1 {
		path = args[0]
	}

	cat, err := catalog.Load(path)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	if path == "" {
		path = "(embedded)"
	}
	PrintSuccess(fmt.Sprintf("%s is valid", path))
	PrintKeyValue("Scenarios", strconv.Itoa(cat.Len()), 12)
	PrintKeyValue("Groups", strconv.Itoa(len(cat.GroupKeys())), 12)
	PrintKeyValue("Asset classes", strconv.Itoa(len(cat.AssetClasses())), 12)
	PrintKeyValue("Entities", strconv.Itoa(len(cat.Entities())), 12)
	PrintKeyValue("Hash", cat.Hash(), 12)
	return nil
}

func exportCatalog(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(catalogFile)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := cat.WriteYAML(&buf); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return writeOutput(catalogOut, buf.Bytes())
}
