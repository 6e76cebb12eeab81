// Package models defines data structures shared across the application.
package models

// IntentType classifies what a natural-language query is asking for.
type IntentType string

const (
	// IntentSearchIssues is a general free-text search.
	IntentSearchIssues IntentType = "search_issues"
	// IntentGetUserIssues asks for issues related to the current user.
	IntentGetUserIssues IntentType = "get_user_issues"
	// IntentFilterByStatus asks for issues in a particular workflow state.
	IntentFilterByStatus IntentType = "filter_by_status"
	// IntentFilterByProject asks for issues inside one project.
	IntentFilterByProject IntentType = "filter_by_project"
	// IntentFilterByDate asks for issues in a time window.
	IntentFilterByDate IntentType = "filter_by_date"
	// IntentUnknown is the zero-signal classification.
	IntentUnknown IntentType = "unknown"
)

// TimeRange is a resolved date window, both bounds in YYYY-MM-DD form.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// UserConditions flags which user-relation constraints a request carries.
type UserConditions struct {
	Assignee  bool `json:"assignee"`
	Reporter  bool `json:"reporter"`
	Commenter bool `json:"commenter"`
}

// Request is the normalized form of the pipeline's entry point. A bare query
// string maps to a Request with only Text set.
type Request struct {
	Text           string         `json:"text"`
	Year           string         `json:"year,omitempty"`
	UserConditions UserConditions `json:"user_conditions"`
}

// Entities holds the constraints extracted from one query. A zero value
// (nil slice, empty string, nil pointer) means "no constraint", never
// "empty constraint".
type Entities struct {
	// TimeRange restricts issue creation dates.
	TimeRange *TimeRange

	// Project is the bare project name, stripped of "project"/"專案".
	Project string

	// IssueType, Status, Priority and Keywords are surfaced for callers;
	// the canonical compiler does not emit clauses for them. Keywords is
	// the fallback parser's raw residual token list.
	IssueType []string
	Status    []string
	Priority  string
	Keywords  []string

	// MainKeywordConditions and RelatedKeywordConditions are pre-formatted
	// JQL fragments, one OR-group per keyword word.
	MainKeywordConditions    []string
	RelatedKeywordConditions []string

	// UserConditions are pre-formatted user-relation JQL fragments.
	UserConditions []string

	// IsExclusion marks a request that wants matches for certain terms
	// omitted rather than included. When set, keyword conditions are
	// suppressed and ExcludedKeywords carries the terms.
	IsExclusion      bool
	ExcludedKeywords []string
}

// QueryIntent is the parsed representation of one user request. It is
// created once per query by the intent extractor and immutable thereafter.
type QueryIntent struct {
	IntentType IntentType
	// Confidence is informational only; no behavior depends on its exact
	// value beyond the comparisons made during fallback parsing.
	Confidence float64
	Entities   Entities
}

// Map serializes the intent as the plain three-field mapping the
// presentation boundary expects. Entity keys are only present when the
// corresponding constraint exists.
func (q QueryIntent) Map() map[string]any {
	entities := map[string]any{}
	if q.Entities.TimeRange != nil {
		entities["time_range"] = q.Entities.TimeRange
	}
	if q.Entities.Project != "" {
		entities["project"] = q.Entities.Project
	}
	if len(q.Entities.IssueType) > 0 {
		entities["issue_type"] = q.Entities.IssueType
	}
	if len(q.Entities.Status) > 0 {
		entities["status"] = q.Entities.Status
	}
	if q.Entities.Priority != "" {
		entities["priority"] = q.Entities.Priority
	}
	if len(q.Entities.Keywords) > 0 {
		entities["keywords"] = q.Entities.Keywords
	}
	if len(q.Entities.MainKeywordConditions) > 0 {
		entities["main_keyword_conditions"] = q.Entities.MainKeywordConditions
	}
	if len(q.Entities.RelatedKeywordConditions) > 0 {
		entities["related_keyword_conditions"] = q.Entities.RelatedKeywordConditions
	}
	if len(q.Entities.UserConditions) > 0 {
		entities["user_conditions"] = q.Entities.UserConditions
	}
	if q.Entities.IsExclusion {
		entities["is_exclusion"] = true
		entities["excluded_keywords"] = q.Entities.ExcludedKeywords
	}
	return map[string]any{
		"intent_type": string(q.IntentType),
		"confidence":  q.Confidence,
		"entities":    entities,
	}
}

// IssueRecord is one ticket normalized into a flat attribute set.
type IssueRecord struct {
	// Key is the full ticket identifier (e.g. "ABC-123").
	Key string `json:"key"`

	// Summary is the ticket's title.
	Summary string `json:"summary"`

	// Status is the workflow state name (e.g. "In Progress").
	Status string `json:"status"`

	// Assignee and Reporter are display names, empty when unset.
	Assignee string `json:"assignee,omitempty"`
	Reporter string `json:"reporter,omitempty"`

	// Created, Updated and ResolutionDate are UTC RFC 3339 strings. The
	// fixed-width zero-padded format makes lexical comparison equivalent
	// to chronological comparison.
	Created        string `json:"created,omitempty"`
	Updated        string `json:"updated,omitempty"`
	ResolutionDate string `json:"resolutiondate,omitempty"`

	Priority  string `json:"priority,omitempty"`
	IssueType string `json:"issuetype,omitempty"`
	Project   string `json:"project,omitempty"`

	// Description is truncated at normalization time.
	Description string `json:"description,omitempty"`

	// URL is the browse link on the backing server.
	URL string `json:"url,omitempty"`

	// TimeSpentHours and OriginalEstimateHours come from time tracking,
	// nil when the ticket carries none.
	TimeSpentHours        *float64 `json:"timespent_hours,omitempty"`
	OriginalEstimateHours *float64 `json:"originalestimate_hours,omitempty"`

	// DurationDays is created→resolved, set only for resolved tickets.
	// ProcessingDays is created→now, set only for unresolved tickets.
	// The two are mutually exclusive; both are nil when the creation
	// timestamp is missing.
	DurationDays   *int `json:"duration_days,omitempty"`
	ProcessingDays *int `json:"processing_days,omitempty"`

	CommentCount int `json:"comment_count"`

	// CommentsText is the concatenated, truncated comment bodies.
	CommentsText string `json:"comments_text,omitempty"`

	// RelevanceScore and RelevanceReason are present only after a
	// successful relevance pass.
	RelevanceScore  *float64 `json:"relevance_score,omitempty"`
	RelevanceReason string   `json:"relevance_reason,omitempty"`
}

// ProjectInfo is one project visible to the configured user.
type ProjectInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Response is the pipeline's presentation-boundary output. Results is
// capped at 20 entries; TotalCount reports the full filtered count before
// the cap.
type Response struct {
	Query      string         `json:"query"`
	Intent     map[string]any `json:"intent"`
	JQLQueries []string       `json:"jql_queries"`
	Results    []IssueRecord  `json:"results"`
	TotalCount int            `json:"total_count"`
	Error      string         `json:"error,omitempty"`
}
