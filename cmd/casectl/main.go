// Command casectl resolves a case analysis or digest from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	token      string
	caseFile   string
	rawOutput  bool
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "casectl",
	Short: "Resolve case analyses and digests",
	Long: `casectl resolves the analysis or digest of a case by citation.

A stored record is shown as is. Otherwise one is generated, shown and
written back to the persistence API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (default $LEXPORTAL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&caseFile, "case-file", "", "raw case JSON to generate from instead of fetching the case")
	rootCmd.PersistentFlags().BoolVar(&rawOutput, "raw", false, "print markdown without terminal rendering")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the record as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log workflow progress")

	rootCmd.AddCommand(analysisCmd, digestCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
