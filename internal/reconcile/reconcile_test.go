package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorlin/jiraq/pkg/models"
)

type fakeCompleter struct {
	out string
	err error
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.out, f.err
}

func intPtr(v int) *int { return &v }

func TestMergeKeepsFirstOccurrence(t *testing.T) {
	first := []models.IssueRecord{
		{Key: "KFC-1", Status: "Done"},
		{Key: "KFC-2", Status: "To Do"},
	}
	second := []models.IssueRecord{
		{Key: "KFC-2", Status: "In Progress"}, // duplicate, different fields
		{Key: "KFC-3", Status: "Done"},
	}

	merged := Merge(first, second)

	require.Len(t, merged, 3)
	assert.Equal(t, "KFC-1", merged[0].Key)
	assert.Equal(t, "KFC-2", merged[1].Key)
	assert.Equal(t, "To Do", merged[1].Status, "first-seen fields win")
	assert.Equal(t, "KFC-3", merged[2].Key)
}

func TestSortLongestProcessing(t *testing.T) {
	records := []models.IssueRecord{
		{Key: "DONE-100", DurationDays: intPtr(100)},
		{Key: "NONE"},
		{Key: "OPEN-30", ProcessingDays: intPtr(30)},
		{Key: "OPEN-5", ProcessingDays: intPtr(5)},
		{Key: "DONE-7", DurationDays: intPtr(7)},
	}

	Sort(records, "處理最久的任務")

	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	// Unresolved rank strictly above resolved, day count descending within
	// each group, metricless last.
	assert.Equal(t, []string{"OPEN-30", "OPEN-5", "DONE-100", "DONE-7", "NONE"}, keys)
}

func TestSortNewest(t *testing.T) {
	records := []models.IssueRecord{
		{Key: "OLD", Created: "2024-03-01T10:00:00Z"},
		{Key: "NEW", Created: "2025-02-01T10:00:00Z"},
		{Key: "MID", Created: "2024-11-30T10:00:00Z"},
	}

	Sort(records, "最新建立的任務")

	assert.Equal(t, "NEW", records[0].Key)
	assert.Equal(t, "MID", records[1].Key)
	assert.Equal(t, "OLD", records[2].Key)
}

func TestSortByComments(t *testing.T) {
	records := []models.IssueRecord{
		{Key: "QUIET", CommentCount: 0},
		{Key: "BUSY", CommentCount: 12},
		{Key: "SOME", CommentCount: 3},
	}

	Sort(records, "討論最熱烈的任務")

	assert.Equal(t, "BUSY", records[0].Key)
	assert.Equal(t, "SOME", records[1].Key)
	assert.Equal(t, "QUIET", records[2].Key)
}

func TestSortDefaultByUpdated(t *testing.T) {
	records := []models.IssueRecord{
		{Key: "STALE", Updated: "2024-01-01T00:00:00Z"},
		{Key: "FRESH", Updated: "2025-06-01T00:00:00Z"},
	}

	Sort(records, "KFC 的工作")

	assert.Equal(t, "FRESH", records[0].Key)
	assert.Equal(t, "STALE", records[1].Key)
}

func TestFilterWithoutCompleterReturnsInput(t *testing.T) {
	r := New(nil)
	records := []models.IssueRecord{{Key: "KFC-1"}, {Key: "KFC-2"}}

	got := r.Filter(context.Background(), "anything", records)

	assert.Equal(t, records, got)
}

func TestFilterKeepsScoredRecords(t *testing.T) {
	r := New(&fakeCompleter{out: "```json\n" + `{
		"relevant_tasks": [
			{"key": "KFC-2", "relevance_score": 0.9, "reason": "matches Android"},
			{"key": "KFC-1", "relevance_score": 0.5, "reason": "related component"},
			{"key": "KFC-3", "relevance_score": 0.2, "reason": "weak match"}
		]
	}` + "\n```"})

	records := []models.IssueRecord{
		{Key: "KFC-1"},
		{Key: "KFC-2"},
		{Key: "KFC-3"},
		{Key: "KFC-4"},
	}

	got := r.Filter(context.Background(), "Android 相關工作", records)

	// Score floor drops KFC-3; absence drops KFC-4; order is by score.
	require.Len(t, got, 2)
	assert.Equal(t, "KFC-2", got[0].Key)
	require.NotNil(t, got[0].RelevanceScore)
	assert.Equal(t, 0.9, *got[0].RelevanceScore)
	assert.Equal(t, "matches Android", got[0].RelevanceReason)
	assert.Equal(t, "KFC-1", got[1].Key)
}

func TestFilterFallsBackOnMalformedResponse(t *testing.T) {
	r := New(&fakeCompleter{out: "these are definitely the droids you are looking for"})

	records := []models.IssueRecord{{Key: "KFC-2"}, {Key: "KFC-1"}}
	got := r.Filter(context.Background(), "Android", records)

	// Membership and order both unchanged.
	assert.Equal(t, records, got)
}

func TestFilterFallsBackOnTransportError(t *testing.T) {
	r := New(&fakeCompleter{err: errors.New("rate limited")})

	records := []models.IssueRecord{{Key: "KFC-1"}}
	got := r.Filter(context.Background(), "Android", records)

	assert.Equal(t, records, got)
}

func TestFilterFallsBackOnEmptyTaskList(t *testing.T) {
	r := New(&fakeCompleter{out: `{"relevant_tasks": []}`})

	records := []models.IssueRecord{{Key: "KFC-1"}}
	got := r.Filter(context.Background(), "Android", records)

	assert.Equal(t, records, got)
}

func TestFilterEmptyInputSkipsCompleter(t *testing.T) {
	r := New(&fakeCompleter{err: errors.New("should not be called")})

	got := r.Filter(context.Background(), "Android", nil)

	assert.Empty(t, got)
}
