package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/victorlin/jiraq/internal/config"
	"github.com/victorlin/jiraq/internal/jira"
)

// projectsCmd lists the projects the configured user can access.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List accessible Jira projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := jira.NewClient(config.Load())
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %v", err)
		}

		projects, err := client.Projects()
		if err != nil {
			return err
		}

		for _, p := range projects {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", p.Key, p.Name)
		}
		return nil
	},
}
