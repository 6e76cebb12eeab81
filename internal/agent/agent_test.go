package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorlin/jiraq/internal/intent"
	"github.com/victorlin/jiraq/internal/reconcile"
	"github.com/victorlin/jiraq/pkg/models"
)

// fakeSearcher is a canned backend; records are returned for every valid
// query.
type fakeSearcher struct {
	records     []models.IssueRecord
	err         error
	rejectAll   bool
	searchCalls int
	lastJQL     string
	lastMax     int
}

func (f *fakeSearcher) Search(jql string, max int) ([]models.IssueRecord, error) {
	f.searchCalls++
	f.lastJQL = jql
	f.lastMax = max
	return f.records, f.err
}

func (f *fakeSearcher) ValidateJQL(jql string) bool {
	return !f.rejectAll
}

func newTestAgent(searcher Searcher) *Agent {
	return New(
		intent.NewExtractor(nil, ""),
		reconcile.New(nil),
		searcher,
		50,
	)
}

func TestProcessEndToEnd(t *testing.T) {
	searcher := &fakeSearcher{records: []models.IssueRecord{
		{Key: "KFC-1", Summary: "one", Updated: "2025-02-01T00:00:00Z"},
		{Key: "KFC-2", Summary: "two", Updated: "2025-03-01T00:00:00Z"},
		{Key: "KFC-1", Summary: "duplicate", Updated: "2025-01-01T00:00:00Z"},
	}}
	a := newTestAgent(searcher)

	resp := a.Process(context.Background(), models.Request{
		Text:           "我 2025 Q1 的工作",
		UserConditions: models.UserConditions{Assignee: true},
	})

	require.Empty(t, resp.Error)
	assert.Equal(t, "我 2025 Q1 的工作", resp.Query)

	require.Len(t, resp.JQLQueries, 1)
	assert.Equal(t,
		"created >= '2025-01-01' AND created <= '2025-03-31'"+
			" AND assignee = currentUser()"+
			" ORDER BY updated DESC",
		resp.JQLQueries[0])
	assert.Equal(t, resp.JQLQueries[0], searcher.lastJQL)
	assert.Equal(t, 50, searcher.lastMax)

	// Deduplicated (first occurrence wins) and default-sorted by updated.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "KFC-2", resp.Results[0].Key)
	assert.Equal(t, "KFC-1", resp.Results[1].Key)
	assert.Equal(t, "one", resp.Results[1].Summary)
	assert.Equal(t, 2, resp.TotalCount)

	assert.Equal(t, "filter_by_date", resp.Intent["intent_type"])
}

func TestProcessCapsResultsAtTwenty(t *testing.T) {
	var records []models.IssueRecord
	for i := 0; i < 35; i++ {
		records = append(records, models.IssueRecord{Key: fmt.Sprintf("KFC-%d", i)})
	}
	a := newTestAgent(&fakeSearcher{records: records})

	resp := a.ProcessText(context.Background(), "KFC 的所有工作")

	assert.Len(t, resp.Results, 20)
	assert.Equal(t, 35, resp.TotalCount)
}

func TestProcessWithoutBackendReturnsEmpty(t *testing.T) {
	a := newTestAgent(nil)

	resp := a.ProcessText(context.Background(), "anything at all")

	assert.Empty(t, resp.Error)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.TotalCount)
	assert.NotEmpty(t, resp.JQLQueries, "queries are still compiled and reported")
}

func TestProcessSkipsNonValidatingQueries(t *testing.T) {
	searcher := &fakeSearcher{rejectAll: true, records: []models.IssueRecord{{Key: "KFC-1"}}}
	a := newTestAgent(searcher)

	resp := a.ProcessText(context.Background(), "broken query")

	assert.Zero(t, searcher.searchCalls, "non-validating queries are never executed")
	assert.Empty(t, resp.Results)
}

func TestProcessAbsorbsSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("boom")}
	a := newTestAgent(searcher)

	resp := a.ProcessText(context.Background(), "KFC 的工作")

	assert.Empty(t, resp.Error, "a failing query degrades to zero records")
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.TotalCount)
}

func TestProcessEmptyEntitiesUsesPermissiveDefault(t *testing.T) {
	searcher := &fakeSearcher{}
	a := newTestAgent(searcher)

	// Nothing in this text matches any extraction pattern.
	resp := a.ProcessText(context.Background(), "嗯")

	require.Len(t, resp.JQLQueries, 1)
	assert.Equal(t, "project IS NOT EMPTY ORDER BY updated DESC", resp.JQLQueries[0])
}
