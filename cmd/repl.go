package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/victorlin/jiraq/internal/agent"
	"github.com/victorlin/jiraq/internal/config"
)

// replCmd runs an interactive query loop.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive natural-language query loop",
	Long:  `Read queries from stdin one line at a time until "exit", "quit" or "退出".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := agent.NewFromConfig(config.Load())
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "jiraq interactive mode; type 'exit' or 'quit' to leave")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "\n> ")
			if !scanner.Scan() {
				break
			}
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			switch strings.ToLower(query) {
			case "exit", "quit", "退出":
				fmt.Fprintln(out, "bye")
				return nil
			}

			resp := a.ProcessText(cmd.Context(), query)
			if resp.Error != "" {
				fmt.Fprintf(out, "error: %s\n", resp.Error)
				continue
			}
			fmt.Fprint(out, renderResponse(resp, replDisplayCap))
		}
		return scanner.Err()
	},
}
