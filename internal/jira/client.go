// Package jira wraps the ticketing-backend API: JQL search with record
// normalization, a dry-run syntax check, and project listing.
package jira

import (
	"fmt"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/victorlin/jiraq/internal/config"
	"github.com/victorlin/jiraq/internal/logging"
	"github.com/victorlin/jiraq/pkg/models"
)

const (
	descriptionLimit = 200
	commentLimit     = 100
	commentsTotal    = 500
)

// searchFields keeps the search payload bounded while still carrying
// everything record normalization needs, comments included.
var searchFields = []string{
	"summary", "status", "assignee", "reporter", "created", "updated",
	"resolutiondate", "priority", "issuetype", "project", "description",
	"comment", "timespent", "timeoriginalestimate",
}

// Client handles interactions with the JIRA API.
type Client struct {
	client    *jira.Client
	serverURL string

	// now supplies the instant used for processing-days computation.
	now func() time.Time
}

// NewClient creates a JIRA client from validated configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateJira(); err != nil {
		return nil, err
	}

	tp := jira.BasicAuthTransport{
		Username: cfg.Jira.Username,
		Password: cfg.Jira.Token,
	}
	client, err := jira.NewClient(tp.Client(), cfg.Jira.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %v", err)
	}

	logging.Debug("jira client created",
		"url", cfg.Jira.URL,
		"username", cfg.Jira.Username,
		"token", logging.MaskSensitive(cfg.Jira.Token))

	return &Client{
		client:    client,
		serverURL: strings.TrimRight(cfg.Jira.URL, "/"),
		now:       time.Now,
	}, nil
}

// Search executes one JQL query and normalizes each matching issue. The
// returned slice is empty, never nil-dereferencing, on failure.
func (c *Client) Search(jqlQuery string, max int) ([]models.IssueRecord, error) {
	issues, _, err := c.client.Issue.Search(jqlQuery, &jira.SearchOptions{
		MaxResults: max,
		Fields:     searchFields,
		Expand:     "changelog",
	})
	if err != nil {
		return nil, fmt.Errorf("jql search failed: %v", err)
	}

	records := make([]models.IssueRecord, 0, len(issues))
	for i := range issues {
		records = append(records, c.normalize(&issues[i]))
	}
	return records, nil
}

// ValidateJQL reports whether the backend accepts the query syntax, via a
// one-record dry run.
func (c *Client) ValidateJQL(jqlQuery string) bool {
	_, _, err := c.client.Issue.Search(jqlQuery, &jira.SearchOptions{MaxResults: 1})
	return err == nil
}

// Projects returns the projects visible to the configured user.
func (c *Client) Projects() ([]models.ProjectInfo, error) {
	list, _, err := c.client.Project.GetList()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %v", err)
	}

	projects := make([]models.ProjectInfo, 0, len(*list))
	for _, p := range *list {
		projects = append(projects, models.ProjectInfo{Key: p.Key, Name: p.Name})
	}
	return projects, nil
}

// normalize flattens one issue into the pipeline's record shape.
func (c *Client) normalize(issue *jira.Issue) models.IssueRecord {
	fields := issue.Fields
	record := models.IssueRecord{
		Key: issue.Key,
		URL: c.serverURL + "/browse/" + issue.Key,
	}
	if fields == nil {
		return record
	}

	record.Summary = fields.Summary
	record.Description = truncate(fields.Description, descriptionLimit)
	record.Project = fields.Project.Name
	record.IssueType = fields.Type.Name

	if fields.Status != nil {
		record.Status = fields.Status.Name
	}
	if fields.Assignee != nil {
		record.Assignee = fields.Assignee.DisplayName
	}
	if fields.Reporter != nil {
		record.Reporter = fields.Reporter.DisplayName
	}
	if fields.Priority != nil {
		record.Priority = fields.Priority.Name
	}

	created := time.Time(fields.Created)
	updated := time.Time(fields.Updated)
	resolved := time.Time(fields.Resolutiondate)
	record.Created = formatTime(created)
	record.Updated = formatTime(updated)
	record.ResolutionDate = formatTime(resolved)

	// Exactly one of the two duration metrics per record; neither when the
	// creation timestamp is missing.
	if !created.IsZero() {
		if !resolved.IsZero() {
			days := int(resolved.Sub(created).Hours() / 24)
			record.DurationDays = &days
		} else {
			days := int(c.now().Sub(created).Hours() / 24)
			record.ProcessingDays = &days
		}
	}

	if fields.TimeSpent > 0 {
		hours := float64(fields.TimeSpent) / 3600
		record.TimeSpentHours = &hours
	}
	if fields.TimeOriginalEstimate > 0 {
		hours := float64(fields.TimeOriginalEstimate) / 3600
		record.OriginalEstimateHours = &hours
	}

	if fields.Comments != nil {
		record.CommentCount = len(fields.Comments.Comments)
		record.CommentsText = collectComments(fields.Comments.Comments)
	}

	return record
}

// collectComments concatenates comment bodies, bounding each comment and
// the total so downstream prompt digests stay small.
func collectComments(comments []*jira.Comment) string {
	var parts []string
	total := 0
	for _, comment := range comments {
		if comment == nil || comment.Body == "" {
			continue
		}
		text := truncate(comment.Body, commentLimit)
		parts = append(parts, text)
		total += len(text)
		if total > commentsTotal {
			break
		}
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
