// Package cmd provides the command-line interface for jiraq.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/victorlin/jiraq/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "jiraq",
	Short: "jiraq queries Jira in natural language",
	Long: `jiraq translates free-form natural-language requests ("my tasks in the
KFC project from last quarter that took longest to process") into JQL,
executes them, and ranks the merged results. When an LLM is configured it
also extracts query entities and re-ranks results by relevance; without one
it falls back to pattern matching and unranked results.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		if level != "" {
			logging.Setup(os.Stderr, level)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(projectsCmd)
}
