// Package timeparse maps recognized natural-language time expressions to
// concrete start/end date pairs. Resolution is restricted to the current and
// prior calendar year; any other explicit year fails open (no match) to keep
// query scope bounded.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/victorlin/jiraq/pkg/models"
)

const dateLayout = "2006-01-02"

var (
	quarterRe   = regexp.MustCompile(`(\d{4})\s*q([1-4])`)
	yearMonthRe = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月`)
	monthRe     = regexp.MustCompile(`(\d{1,2})\s*月`)
	bareYearRe  = regexp.MustCompile(`\d{4}`)
)

// Resolver resolves time expressions against an injectable clock.
type Resolver struct {
	// Now supplies the evaluation instant. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Resolver using the wall clock.
func New() *Resolver {
	return &Resolver{Now: time.Now}
}

// Resolve extracts the first recognized time expression from text and
// returns its date window. The second return value is false when no
// expression matches or the matched year is out of the allowed range.
//
// Patterns are tried in priority order: quarter, explicit year-month, bare
// month, relative terms, bare year.
func (r *Resolver) Resolve(text string) (*models.TimeRange, bool) {
	lower := strings.ToLower(text)
	now := r.Now()

	if m := quarterRe.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[1])
		quarter, _ := strconv.Atoi(m[2])
		if tr := r.quarter(now, year, quarter); tr != nil {
			return tr, true
		}
		// Out-of-range year: fail open rather than fall through to the
		// bare-year pattern, which would mis-read the same digits.
		return nil, false
	}

	if m := yearMonthRe.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if tr := r.yearMonth(now, year, month); tr != nil {
			return tr, true
		}
		return nil, false
	}

	if m := monthRe.FindStringSubmatch(lower); m != nil {
		month, _ := strconv.Atoi(m[1])
		if tr := r.bareMonth(now, month); tr != nil {
			return tr, true
		}
	}

	if tr := r.relative(now, lower); tr != nil {
		return tr, true
	}

	if m := bareYearRe.FindString(lower); m != "" {
		year, _ := strconv.Atoi(m)
		if inRange(now, year) {
			return span(dateOf(year, 1, 1), dateOf(year, 12, 31)), true
		}
	}

	return nil, false
}

// inRange reports whether year is the current or prior calendar year.
func inRange(now time.Time, year int) bool {
	return year == now.Year() || year == now.Year()-1
}

func (r *Resolver) quarter(now time.Time, year, quarter int) *models.TimeRange {
	if !inRange(now, year) {
		return nil
	}
	startMonth := time.Month((quarter-1)*3 + 1)
	start := dateOf(year, startMonth, 1)
	end := start.AddDate(0, 3, -1)
	return span(start, end)
}

func (r *Resolver) yearMonth(now time.Time, year, month int) *models.TimeRange {
	if !inRange(now, year) || month < 1 || month > 12 {
		return nil
	}
	return monthSpan(year, time.Month(month))
}

// bareMonth prefers the current year; if the month's first day would be in
// the future it falls back to the prior year.
func (r *Resolver) bareMonth(now time.Time, month int) *models.TimeRange {
	if month < 1 || month > 12 {
		return nil
	}
	first := dateOf(now.Year(), time.Month(month), 1)
	if !first.After(now) {
		return monthSpan(now.Year(), time.Month(month))
	}
	return monthSpan(now.Year()-1, time.Month(month))
}

func (r *Resolver) relative(now time.Time, lower string) *models.TimeRange {
	today := dateOf(now.Year(), now.Month(), now.Day())

	switch {
	case containsAny(lower, "今天", "today"):
		return span(today, today)
	case containsAny(lower, "昨天", "yesterday"):
		y := today.AddDate(0, 0, -1)
		return span(y, y)
	case containsAny(lower, "這週", "本週", "this week"):
		start := mondayOf(today)
		return span(start, start.AddDate(0, 0, 6))
	case containsAny(lower, "上週", "last week"):
		start := mondayOf(today).AddDate(0, 0, -7)
		return span(start, start.AddDate(0, 0, 6))
	case containsAny(lower, "這個月", "本月", "this month"):
		return monthSpan(now.Year(), now.Month())
	case containsAny(lower, "上個月", "last month"):
		prev := today.AddDate(0, -1, -today.Day()+1)
		return monthSpan(prev.Year(), prev.Month())
	case containsAny(lower, "今年", "本年", "this year"):
		return span(dateOf(now.Year(), 1, 1), dateOf(now.Year(), 12, 31))
	case containsAny(lower, "去年", "last year"):
		return span(dateOf(now.Year()-1, 1, 1), dateOf(now.Year()-1, 12, 31))
	}
	return nil
}

// mondayOf returns the Monday of the week containing d.
func mondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func monthSpan(year int, month time.Month) *models.TimeRange {
	start := dateOf(year, month, 1)
	return span(start, start.AddDate(0, 1, -1))
}

func dateOf(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func span(start, end time.Time) *models.TimeRange {
	return &models.TimeRange{
		Start: start.Format(dateLayout),
		End:   end.Format(dateLayout),
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
