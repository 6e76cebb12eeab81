// Package agent coordinates the query pipeline: intent extraction, JQL
// compilation, backend execution and result reconciliation.
package agent

import (
	"context"
	"fmt"

	"github.com/victorlin/jiraq/internal/config"
	"github.com/victorlin/jiraq/internal/intent"
	"github.com/victorlin/jiraq/internal/jira"
	"github.com/victorlin/jiraq/internal/jql"
	"github.com/victorlin/jiraq/internal/llm"
	"github.com/victorlin/jiraq/internal/logging"
	"github.com/victorlin/jiraq/internal/reconcile"
	"github.com/victorlin/jiraq/pkg/models"
)

// resultCap bounds the presented result list; TotalCount still reports the
// full filtered count.
const resultCap = 20

// Searcher is the ticketing-backend collaborator boundary.
type Searcher interface {
	// Search returns normalized records for one query, or an error that
	// the caller logs and absorbs.
	Search(jql string, max int) ([]models.IssueRecord, error)
	// ValidateJQL is a dry-run syntax check; non-validating queries are
	// skipped rather than executed.
	ValidateJQL(jql string) bool
}

// Agent is the pipeline's public entry point. It is request-scoped and
// synchronous: one query is processed start to finish before the next.
type Agent struct {
	extractor  *intent.Extractor
	reconciler *reconcile.Reconciler
	searcher   Searcher // nil when the backend is unconfigured
	maxResults int
}

// New assembles an Agent from explicit collaborators. searcher may be nil.
func New(extractor *intent.Extractor, reconciler *reconcile.Reconciler, searcher Searcher, maxResults int) *Agent {
	return &Agent{
		extractor:  extractor,
		reconciler: reconciler,
		searcher:   searcher,
		maxResults: maxResults,
	}
}

// NewFromConfig wires an Agent from process configuration. Each missing
// collaborator degrades the pipeline instead of failing it: no completion
// capability means pattern-matching extraction and unranked results, no
// backend means zero records.
func NewFromConfig(cfg *config.Config) *Agent {
	var completer llm.Completer
	if err := cfg.ValidateLLM(); err != nil {
		logging.Warn("completion capability unavailable, degrading to pattern extraction", "reason", err)
	} else {
		completer = llm.NewAzureClient(cfg.LLM)
	}

	var searcher Searcher
	client, err := jira.NewClient(cfg)
	if err != nil {
		logging.Warn("jira backend unavailable, queries will return no records", "reason", err)
	} else {
		searcher = client
	}

	return New(
		intent.NewExtractor(completer, cfg.Jira.Username),
		reconcile.New(completer),
		searcher,
		cfg.MaxResults,
	)
}

// ProcessText handles the plain-string variant of the entry point.
func (a *Agent) ProcessText(ctx context.Context, text string) *models.Response {
	return a.Process(ctx, models.Request{Text: text})
}

// Process runs one request through the full pipeline. It never panics
// outward: unexpected failures come back as a structured error payload.
func (a *Agent) Process(ctx context.Context, req models.Request) (resp *models.Response) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("query processing panicked", "panic", r)
			resp = &models.Response{
				Query: req.Text,
				Error: fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	logging.Info("processing query", "text", req.Text, "year", req.Year)

	queryIntent := a.extractor.Extract(ctx, req)
	logging.Debug("extracted intent",
		"intent_type", queryIntent.IntentType,
		"confidence", queryIntent.Confidence)

	queries := jql.Compile(queryIntent)
	logging.Info("compiled queries", "count", len(queries), "queries", queries)

	var resultSets [][]models.IssueRecord
	if a.searcher == nil {
		logging.Warn("no backend configured, returning zero records")
	} else {
		for _, q := range queries {
			if !a.searcher.ValidateJQL(q) {
				logging.Warn("query failed validation, skipping", "jql", q)
				continue
			}
			records, err := a.searcher.Search(q, a.maxResults)
			if err != nil {
				// A failing query contributes zero records and does not
				// abort its siblings.
				logging.Warn("query execution failed", "jql", q, "error", err)
				continue
			}
			resultSets = append(resultSets, records)
		}
	}

	merged := reconcile.Merge(resultSets...)
	reconcile.Sort(merged, req.Text)
	filtered := a.reconciler.Filter(ctx, req.Text, merged)

	results := filtered
	if len(results) > resultCap {
		results = results[:resultCap]
	}
	if results == nil {
		results = []models.IssueRecord{}
	}

	logging.Info("query complete",
		"merged_count", len(merged),
		"total_count", len(filtered),
		"returned", len(results))

	return &models.Response{
		Query:      req.Text,
		Intent:     queryIntent.Map(),
		JQLQueries: queries,
		Results:    results,
		TotalCount: len(filtered),
	}
}
