package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/victorlin/jiraq/pkg/models"
)

// replDisplayCap limits per-query output in interactive mode.
const replDisplayCap = 10

var (
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	metaStyle   = lipgloss.NewStyle().Faint(true)
	jqlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderResponse formats a pipeline response for terminal output, showing at
// most limit records (0 means all returned records).
func renderResponse(resp *models.Response, limit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Query:"), resp.Query)
	fmt.Fprintf(&b, "Found %d matching issues\n\n", resp.TotalCount)

	if len(resp.JQLQueries) > 0 {
		b.WriteString(headerStyle.Render("JQL") + "\n")
		for i, q := range resp.JQLQueries {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, jqlStyle.Render(q))
		}
		b.WriteString("\n")
	}

	records := resp.Results
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	for i, record := range records {
		b.WriteString(renderRecord(i+1, record))
	}
	return b.String()
}

func renderRecord(index int, record models.IssueRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%2d. %s %s\n", index,
		keyStyle.Render("["+record.Key+"]"),
		titleStyle.Render(record.Summary))

	assignee := record.Assignee
	if assignee == "" {
		assignee = "unassigned"
	}
	updated := record.Updated
	if len(updated) >= 10 {
		updated = updated[:10]
	}
	fmt.Fprintf(&b, "    %s\n", metaStyle.Render(fmt.Sprintf(
		"%s | %s | %s | %s | updated %s",
		record.Project, record.IssueType, record.Status, assignee, updated)))

	if record.ProcessingDays != nil {
		fmt.Fprintf(&b, "    %s\n", metaStyle.Render(fmt.Sprintf("in progress for %d days", *record.ProcessingDays)))
	} else if record.DurationDays != nil {
		fmt.Fprintf(&b, "    %s\n", metaStyle.Render(fmt.Sprintf("resolved after %d days", *record.DurationDays)))
	}

	if record.RelevanceScore != nil {
		fmt.Fprintf(&b, "    %s\n", scoreStyle.Render(fmt.Sprintf(
			"relevance %.2f: %s", *record.RelevanceScore, record.RelevanceReason)))
	}

	if record.URL != "" {
		fmt.Fprintf(&b, "    %s\n", metaStyle.Render(record.URL))
	}
	b.WriteString("\n")
	return b.String()
}
