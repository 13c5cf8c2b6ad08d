package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "batchreport",
	Short: "Batch load completeness reporting for trade surveillance",
	Long: `Batch Report CLI

Reconciles the scenarios loaded for a batch date against the expected
catalog, then serves, mails or exports the result.

Usage:
  go run ./cmd/batchreport [command]

Examples:
  go run ./cmd/batchreport api
  go run ./cmd/batchreport send --date 2024-01-15
  go run ./cmd/batchreport preview --variant email --out report.html
  go run ./cmd/batchreport scheduler start
  go run ./cmd/batchreport catalog validate ./catalog.yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := godotenv.Overload(configFile); err != nil {
				return fmt.Errorf("load config file %s: %w", configFile, err)
			}
		}
		if cmd.Flags().Changed("env") {
			os.Setenv("ENV", env)
		}
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load over the environment (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
