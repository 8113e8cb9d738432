// Package commands implements the extraction-engine CLI.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "extraction-engine",
	Short: "Page-level content extraction for paginated documents",
	Long: `The extraction engine pulls structured, quality-ranked content out of
paginated documents: per-page text, code samples with language detection and
quality scores, embedded tables, and heuristic chapter segmentation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Ignore error if .env doesn't exist
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
