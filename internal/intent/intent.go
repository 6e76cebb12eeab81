// Package intent converts raw query text into a structured QueryIntent.
// The primary path delegates entity extraction to the completion capability;
// when that is unavailable or returns something unusable, a deterministic
// pattern-matching fallback takes over. Extraction never fails to the
// caller.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/victorlin/jiraq/internal/jql"
	"github.com/victorlin/jiraq/internal/llm"
	"github.com/victorlin/jiraq/internal/logging"
	"github.com/victorlin/jiraq/internal/timeparse"
	"github.com/victorlin/jiraq/pkg/models"
)

// exclusionMarkers flag queries that want terms omitted rather than matched.
var exclusionMarkers = []string{"以外", "除了", "不包括", "excluding", "except", "other than"}

// patternWords are the fallback parser's signal dictionaries.
var patternWords = map[string][]string{
	"search":  {"找", "搜尋", "查詢", "search", "find"},
	"user":    {"我的", "用戶", "使用者", "user", "assignee", "我", "我做", "my"},
	"status":  {"狀態", "status", "進行中", "完成", "待辦", "完成的", "進行中的", "待辦的", "done", "in progress", "to do"},
	"project": {"專案", "project", "項目"},
	"date":    {"日期", "時間", "date", "created", "updated"},
}

var projectRe = regexp.MustCompile(`(?i)專案\s*(\w+)|project\s*(\w+)`)

// timeRemnantRe matches tokens left behind by time expressions so the
// residual tokenizer does not turn them into keywords.
var timeRemnantRe = regexp.MustCompile(`^(\d{4}|q[1-4]|\d{1,2}月|\d{4}年\d{1,2}月|今天|昨天|這週|本週|上週|這個月|本月|上個月|今年|本年|去年)$`)

// Extractor builds QueryIntents. A nil completer means the primary path is
// unavailable and every query takes the fallback.
type Extractor struct {
	completer llm.Completer
	username  string
	times     *timeparse.Resolver
}

// NewExtractor creates an Extractor. username is the backend account used to
// render user-relation conditions; when empty, conditions render against
// currentUser().
func NewExtractor(completer llm.Completer, username string) *Extractor {
	return &Extractor{
		completer: completer,
		username:  username,
		times:     timeparse.New(),
	}
}

// extractionResult is the fixed JSON schema the completion capability is
// instructed to return.
type extractionResult struct {
	Keywords struct {
		Main    []string `json:"main"`
		Related []string `json:"related"`
	} `json:"keywords"`
	Project string `json:"project"`
	Time    *struct {
		Year  string `json:"year"`
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"time"`
}

// Extract produces the QueryIntent for one request. It never returns an
// error: every failure on the primary path degrades to the fallback parser.
func (e *Extractor) Extract(ctx context.Context, req models.Request) models.QueryIntent {
	if e.completer == nil {
		return e.basicParse(req)
	}

	parsed, err := e.askCompleter(ctx, req)
	if err != nil {
		logging.Warn("entity extraction failed, using pattern fallback", "error", err)
		return e.basicParse(req)
	}

	entities := models.Entities{Project: parsed.Project}

	if req.Year != "" {
		entities.TimeRange = &models.TimeRange{
			Start: req.Year + "-01-01",
			End:   req.Year + "-12-31",
		}
	} else if parsed.Time != nil && parsed.Time.Start != "" && parsed.Time.End != "" {
		entities.TimeRange = &models.TimeRange{Start: parsed.Time.Start, End: parsed.Time.End}
	}

	entities.UserConditions = e.userConditions(req.UserConditions)

	if detectExclusion(req.Text) {
		entities.IsExclusion = true
		entities.ExcludedKeywords = append(parsed.Keywords.Main, parsed.Keywords.Related...)
	} else {
		entities.MainKeywordConditions = expandKeywordConditions(parsed.Keywords.Main)
		entities.RelatedKeywordConditions = expandKeywordConditions(parsed.Keywords.Related)
	}

	return models.QueryIntent{
		IntentType: models.IntentSearchIssues,
		Confidence: 0.9,
		Entities:   entities,
	}
}

// askCompleter runs the primary extraction path: context prompt in, fixed
// JSON schema out.
func (e *Extractor) askCompleter(ctx context.Context, req models.Request) (*extractionResult, error) {
	year := req.Year
	if year == "" {
		year = "unspecified"
	}
	queryContext := fmt.Sprintf(
		"Query: %s\nYear: %s\nInclude:\n- tasks assigned to the user: %t\n- tasks reported by the user: %t\n- tasks commented on by the user: %t",
		req.Text, year,
		req.UserConditions.Assignee, req.UserConditions.Reporter, req.UserConditions.Commenter)

	prompt, err := llm.RenderExtraction(queryContext)
	if err != nil {
		return nil, fmt.Errorf("rendering extraction prompt: %w", err)
	}

	raw, err := e.completer.Complete(ctx, llm.ExtractionSystem(), prompt)
	if err != nil {
		return nil, err
	}

	var parsed extractionResult
	if err := json.Unmarshal([]byte(llm.StripFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("decoding extraction response: %w", err)
	}
	return &parsed, nil
}

// userConditions renders the requested user-relation flags as JQL fragments.
// The commenter flag is surfaced in the intent but produces no fragment:
// commentedBy is not accepted by the target backend.
func (e *Extractor) userConditions(flags models.UserConditions) []string {
	var conditions []string
	if flags.Assignee {
		conditions = append(conditions, e.userClause("assignee"))
	}
	if flags.Reporter {
		conditions = append(conditions, e.userClause("reporter"))
	}
	return conditions
}

func (e *Extractor) userClause(field string) string {
	if e.username == "" {
		return field + " = currentUser()"
	}
	return fmt.Sprintf("%s = %s", field, jql.Quote(e.username))
}

// detectExclusion reports whether the query uses exclusion language.
func detectExclusion(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range exclusionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// expandKeywordConditions flattens keyword phrases to individual words and
// expands each word into case variants formatted as an OR-connected
// free-text match group. Phrase-level grouping is dropped on purpose: the
// backend's text index is case-sensitive and word-level matching maximizes
// recall.
func expandKeywordConditions(keywords []string) []string {
	var words []string
	seen := map[string]bool{}
	add := func(w string) {
		if utf8.RuneCountInString(w) > 2 && !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	for _, keyword := range keywords {
		if strings.Contains(keyword, " ") {
			for _, w := range strings.Fields(keyword) {
				add(w)
			}
		} else {
			add(keyword)
		}
	}

	var conditions []string
	for _, word := range words {
		var parts []string
		variantSeen := map[string]bool{}
		for _, v := range caseVariants(word) {
			if !variantSeen[v] {
				variantSeen[v] = true
				parts = append(parts, "text ~ "+jql.Quote(v))
			}
		}
		conditions = append(conditions, "("+strings.Join(parts, " OR ")+")")
	}
	return conditions
}

// caseVariants returns the word as-is plus upper, lower, capitalized and
// title-case forms, in stable order. Duplicates are dropped by the caller.
func caseVariants(word string) []string {
	return []string{
		word,
		strings.ToUpper(word),
		strings.ToLower(word),
		capitalize(word),
		titleCase(word),
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return strings.ToUpper(string(r)) + strings.ToLower(s[size:])
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = capitalize(f)
	}
	return strings.Join(fields, " ")
}

// basicParse is the deterministic fallback: fixed keyword dictionaries plus
// regex extraction, with a residual tokenizer for raw keywords. Confidence
// only ever increases as more signal categories match.
func (e *Extractor) basicParse(req models.Request) models.QueryIntent {
	lower := strings.ToLower(req.Text)
	entities := models.Entities{}
	intentType := models.IntentSearchIssues
	confidence := 0.5

	if req.Year != "" {
		entities.TimeRange = &models.TimeRange{
			Start: req.Year + "-01-01",
			End:   req.Year + "-12-31",
		}
		intentType = models.IntentFilterByDate
		confidence = 0.7
	} else if tr, ok := e.times.Resolve(req.Text); ok {
		entities.TimeRange = tr
		intentType = models.IntentFilterByDate
		confidence = 0.7
	}

	userRequested := req.UserConditions.Assignee || req.UserConditions.Reporter
	if userRequested {
		entities.UserConditions = e.userConditions(req.UserConditions)
	} else if matchesAny(lower, patternWords["user"]) {
		entities.UserConditions = []string{e.userClause("assignee")}
		intentType = models.IntentGetUserIssues
		confidence = maxFloat(confidence, 0.7)
	}

	if matchesAny(lower, patternWords["status"]) {
		switch {
		case strings.Contains(lower, "完成") || strings.Contains(lower, "done"):
			entities.Status = []string{"Done"}
		case strings.Contains(lower, "進行中") || strings.Contains(lower, "in progress"):
			entities.Status = []string{"In Progress"}
		case strings.Contains(lower, "待辦") || strings.Contains(lower, "to do"):
			entities.Status = []string{"To Do"}
		}
		if len(entities.Status) > 0 {
			intentType = models.IntentFilterByStatus
			confidence = maxFloat(confidence, 0.7)
		}
	}

	if m := projectRe.FindStringSubmatch(req.Text); m != nil {
		if m[1] != "" {
			entities.Project = m[1]
		} else {
			entities.Project = m[2]
		}
		intentType = models.IntentFilterByProject
		confidence = maxFloat(confidence, 0.8)
	}

	// Residual keywords stay raw here: the canonical compiler only
	// consumes pre-formatted conditions, so fallback keywords are
	// surfaced to the caller without widening the query.
	keywords := residualKeywords(req.Text)
	if detectExclusion(req.Text) {
		entities.IsExclusion = true
		entities.ExcludedKeywords = keywords
	} else if len(keywords) > 0 {
		entities.Keywords = keywords
	}

	return models.QueryIntent{
		IntentType: intentType,
		Confidence: confidence,
		Entities:   entities,
	}
}

// residualKeywords tokenizes the query and strips recognized pattern words
// and time-expression remnants, leaving the raw keyword list.
func residualKeywords(text string) []string {
	excluded := map[string]bool{}
	for _, list := range patternWords {
		for _, w := range list {
			excluded[strings.ToLower(w)] = true
		}
	}
	for _, marker := range exclusionMarkers {
		excluded[marker] = true
	}

	var keywords []string
	for _, token := range strings.Fields(text) {
		lower := strings.ToLower(token)
		if excluded[lower] || timeRemnantRe.MatchString(lower) {
			continue
		}
		if utf8.RuneCountInString(token) > 1 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

func matchesAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
