// Package jql deterministically assembles a QueryIntent into backend query
// strings. The backend accepts only literal-embedded query text, so this
// package is the single point responsible for quoting and escaping.
package jql

import (
	"strings"

	"github.com/victorlin/jiraq/pkg/models"
)

// defaultClause is emitted when no entity produced a condition: a permissive
// existence check instead of an unconstrained full-table scan.
const defaultClause = "project IS NOT EMPTY"

// orderClause is always appended at compile time. The reconciler may
// re-sort records in memory afterwards; that ordering supersedes this one.
const orderClause = " ORDER BY updated DESC"

// Escape escapes backslashes and single quotes inside a literal value.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Quote returns s as a single-quoted, escaped JQL literal.
func Quote(s string) string {
	return "'" + Escape(s) + "'"
}

// Compile produces the ordered query sequence for one intent. The sequence
// is never empty; the current design emits exactly one query, but callers
// must treat the result as a list.
//
// Clause order: project, then time range (only when both bounds are
// present), then the OR-grouped user-relation conditions, then the
// OR-grouped keyword conditions. Exclusionary intents skip the keyword
// clause entirely.
func Compile(intent models.QueryIntent) []string {
	var parts []string
	entities := intent.Entities

	if entities.Project != "" {
		parts = append(parts, "project = "+Quote(entities.Project))
	}

	if tr := entities.TimeRange; tr != nil && tr.Start != "" && tr.End != "" {
		parts = append(parts, "created >= "+Quote(tr.Start)+" AND created <= "+Quote(tr.End))
	}

	if conditions := entities.UserConditions; len(conditions) > 0 {
		if len(conditions) == 1 {
			parts = append(parts, conditions[0])
		} else {
			parts = append(parts, "("+strings.Join(conditions, " OR ")+")")
		}
	}

	if !entities.IsExclusion {
		var keywords []string
		keywords = append(keywords, entities.MainKeywordConditions...)
		keywords = append(keywords, entities.RelatedKeywordConditions...)
		if len(keywords) > 0 {
			parts = append(parts, "("+strings.Join(keywords, " OR ")+")")
		}
	}

	if len(parts) == 0 {
		return []string{defaultClause + orderClause}
	}
	return []string{strings.Join(parts, " AND ") + orderClause}
}
