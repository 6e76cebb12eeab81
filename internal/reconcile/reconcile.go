// Package reconcile merges the result sets of the compiled queries into one
// ranked, deduplicated, size-bounded list, with an optional LLM relevance
// pass on top.
package reconcile

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/victorlin/jiraq/internal/llm"
	"github.com/victorlin/jiraq/internal/logging"
	"github.com/victorlin/jiraq/pkg/models"
)

// digestCap bounds the number of records sent to the relevance pass.
const digestCap = 50

// scoreFloor is the relevance score a record must exceed to survive the
// relevance pass.
const scoreFloor = 0.3

// Trigger phrases for sort-strategy selection, checked in priority order.
var (
	longestTriggers = []string{"最久", "處理最久", "持續最久", "最長時間", "最長", "longest"}
	newestTriggers  = []string{"最新", "最近", "新建", "newest", "latest", "most recent"}
	commentTriggers = []string{"留言數", "評論數", "討論", "留言", "評論", "comments", "discussion"}
)

// Reconciler owns the optional relevance pass. A nil completer disables it.
type Reconciler struct {
	completer llm.Completer
}

// New creates a Reconciler. completer may be nil.
func New(completer llm.Completer) *Reconciler {
	return &Reconciler{completer: completer}
}

// Merge deduplicates the per-query result sets by record key. The first
// occurrence wins, in the order the queries were executed.
func Merge(sets ...[]models.IssueRecord) []models.IssueRecord {
	var merged []models.IssueRecord
	seen := map[string]bool{}
	for _, set := range sets {
		for _, record := range set {
			if seen[record.Key] {
				continue
			}
			seen[record.Key] = true
			merged = append(merged, record)
		}
	}
	return merged
}

// Sort orders records by the strategy the query text selects. Strategies
// are mutually exclusive and checked in priority order: longest-processing,
// newest, comment volume, then the default most-recently-updated. Sorting
// is stable and in place.
func Sort(records []models.IssueRecord, queryText string) {
	lower := strings.ToLower(queryText)

	switch {
	case containsAny(lower, longestTriggers):
		// Unresolved records rank strictly above resolved ones; within
		// each group by the respective day count descending; records with
		// neither metric sort last.
		sort.SliceStable(records, func(i, j int) bool {
			gi, di := durationRank(records[i])
			gj, dj := durationRank(records[j])
			if gi != gj {
				return gi > gj
			}
			return di > dj
		})
	case containsAny(lower, newestTriggers):
		// Lexical compare is chronological: the timestamp format is
		// fixed-width and zero-padded.
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Created > records[j].Created
		})
	case containsAny(lower, commentTriggers):
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].CommentCount > records[j].CommentCount
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Updated > records[j].Updated
		})
	}
}

// durationRank maps a record to its sort group (unresolved above resolved
// above metricless) and day count.
func durationRank(r models.IssueRecord) (int, int) {
	switch {
	case r.ProcessingDays != nil:
		return 2, *r.ProcessingDays
	case r.DurationDays != nil:
		return 1, *r.DurationDays
	default:
		return 0, 0
	}
}

// taskDigest is one record's bounded summary submitted to the relevance
// pass.
type taskDigest struct {
	Key                   string   `json:"key"`
	Summary               string   `json:"summary"`
	Description           string   `json:"description"`
	CommentsText          string   `json:"comments_text"`
	Assignee              string   `json:"assignee"`
	Status                string   `json:"status"`
	DurationDays          *int     `json:"duration_days"`
	ProcessingDays        *int     `json:"processing_days"`
	TimeSpentHours        *float64 `json:"timespent_hours"`
	OriginalEstimateHours *float64 `json:"originalestimate_hours"`
	Created               string   `json:"created"`
	ResolutionDate        string   `json:"resolutiondate"`
	CommentCount          int      `json:"comment_count"`
}

// relevanceResult is the fixed JSON schema the relevance pass must return.
type relevanceResult struct {
	RelevantTasks []struct {
		Key            string  `json:"key"`
		RelevanceScore float64 `json:"relevance_score"`
		Reason         string  `json:"reason"`
	} `json:"relevant_tasks"`
}

// Filter runs the optional relevance pass: records scoring above the floor
// are kept and re-sorted by score descending, replacing the prior order.
// Every failure — no completer, transport error, malformed response, empty
// task list — returns the input unchanged; this pass never empties the
// result set through its own failure.
func (r *Reconciler) Filter(ctx context.Context, queryText string, records []models.IssueRecord) []models.IssueRecord {
	if r.completer == nil || len(records) == 0 {
		return records
	}

	digests := make([]taskDigest, 0, digestCap)
	for i, record := range records {
		if i == digestCap {
			break
		}
		digests = append(digests, taskDigest{
			Key:                   record.Key,
			Summary:               record.Summary,
			Description:           truncate(record.Description, 200),
			CommentsText:          truncate(record.CommentsText, 300),
			Assignee:              record.Assignee,
			Status:                record.Status,
			DurationDays:          record.DurationDays,
			ProcessingDays:        record.ProcessingDays,
			TimeSpentHours:        record.TimeSpentHours,
			OriginalEstimateHours: record.OriginalEstimateHours,
			Created:               record.Created,
			ResolutionDate:        record.ResolutionDate,
			CommentCount:          record.CommentCount,
		})
	}

	tasks, err := json.MarshalIndent(digests, "", "  ")
	if err != nil {
		logging.Warn("relevance pass skipped, digest marshaling failed", "error", err)
		return records
	}

	prompt, err := llm.RenderRelevance(queryText, string(tasks))
	if err != nil {
		logging.Warn("relevance pass skipped, prompt rendering failed", "error", err)
		return records
	}

	raw, err := r.completer.Complete(ctx, "You filter Jira search results by relevance to a user query.", prompt)
	if err != nil {
		logging.Warn("relevance pass failed, keeping sorted results", "error", err)
		return records
	}

	var parsed relevanceResult
	if err := json.Unmarshal([]byte(llm.StripFence(raw)), &parsed); err != nil {
		logging.Warn("relevance response unparsable, keeping sorted results", "error", err)
		return records
	}
	if len(parsed.RelevantTasks) == 0 {
		logging.Warn("relevance pass returned no tasks, keeping sorted results")
		return records
	}

	scores := map[string]float64{}
	reasons := map[string]string{}
	for _, task := range parsed.RelevantTasks {
		scores[task.Key] = task.RelevanceScore
		reasons[task.Key] = task.Reason
	}

	var filtered []models.IssueRecord
	for _, record := range records {
		score, ok := scores[record.Key]
		if !ok || score <= scoreFloor {
			continue
		}
		record.RelevanceScore = &score
		record.RelevanceReason = reasons[record.Key]
		filtered = append(filtered, record)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return *filtered[i].RelevanceScore > *filtered[j].RelevanceScore
	})

	logging.Debug("relevance pass complete",
		"input_count", len(records),
		"kept_count", len(filtered))
	return filtered
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
