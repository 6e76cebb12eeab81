package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/victorlin/jiraq/internal/agent"
	"github.com/victorlin/jiraq/internal/config"
	"github.com/victorlin/jiraq/pkg/models"
)

// askCmd runs a single natural-language query through the pipeline.
var askCmd = &cobra.Command{
	Use:   "ask [query...]",
	Short: "Run one natural-language query against Jira",
	Long: `Run one natural-language query through the pipeline and print the ranked
results.

Examples:
  jiraq ask "我 2025 Q1 的工作" --assignee
  jiraq ask tasks in the KFC project from last quarter that took longest`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		year, _ := cmd.Flags().GetString("year")
		assignee, _ := cmd.Flags().GetBool("assignee")
		reporter, _ := cmd.Flags().GetBool("reporter")
		commenter, _ := cmd.Flags().GetBool("commenter")
		asJSON, _ := cmd.Flags().GetBool("json")

		a := agent.NewFromConfig(config.Load())
		resp := a.Process(cmd.Context(), models.Request{
			Text: query,
			Year: year,
			UserConditions: models.UserConditions{
				Assignee:  assignee,
				Reporter:  reporter,
				Commenter: commenter,
			},
		})
		if resp.Error != "" {
			return fmt.Errorf("%s", resp.Error)
		}

		if asJSON {
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), renderResponse(resp, 0))
		return nil
	},
}

func init() {
	askCmd.Flags().String("year", "", "restrict the query to one year (current or prior)")
	askCmd.Flags().Bool("assignee", false, "include issues assigned to the configured user")
	askCmd.Flags().Bool("reporter", false, "include issues reported by the configured user")
	askCmd.Flags().Bool("commenter", false, "include issues the configured user commented on")
	askCmd.Flags().Bool("json", false, "print the raw response as JSON")
}
