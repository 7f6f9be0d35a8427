// Package listing implements the partitioned listing and filter engine.
//
// Directory pages present two disjoint subsets as one continuous list:
// listings with an upcoming deadline (sorted by deadline) followed by
// rolling listings with no deadline (sorted by recency). The engine computes
// per-partition offsets so any page slices the logical concatenation exactly,
// applies post-fetch amount filtering, and falls back from ranked full-text
// search to substring matching.
package listing

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nativeways/pathways/pkg/models"
)

// SortKey enumerates the caller-selectable sort orders.
type SortKey string

const (
	SortDeadlineAsc SortKey = "deadline-asc"
	SortAmountDesc  SortKey = "amount-desc"
	SortAmountAsc   SortKey = "amount-asc"
	SortNewest      SortKey = "newest"
	SortNameAsc     SortKey = "name-asc"
	SortNameDesc    SortKey = "name-desc"
)

// noUpperBound is the sentinel the amount filter UI sends for "and up"
// ranges; an amount filter with this max has no upper bound.
const noUpperBound = 999999999

// AmountRange is a caller-requested numeric amount filter. A nil Max means
// no upper bound.
type AmountRange struct {
	Min float64
	Max *float64
}

// WindowMode selects the deadline window semantics.
type WindowMode int

const (
	// WindowUpcoming is the default: deadline >= today, plus all rolling
	// listings.
	WindowUpcoming WindowMode = iota
	// WindowNextDays restricts the deadline partition to [today, today+Days].
	WindowNextDays
	// WindowRolling shows only listings without a deadline.
	WindowRolling
)

// DeadlineWindow is the parsed deadline query parameter.
type DeadlineWindow struct {
	Mode WindowMode
	Days int // Only meaningful for WindowNextDays.
}

// Criteria is the fully-parsed caller intent for one listing page request.
type Criteria struct {
	Kind     models.Kind
	Category string   // Empty means no category filter.
	Tags     []string // Match-any.
	Amount   *AmountRange
	Window   DeadlineWindow
	Sort     SortKey
	Page     int // 1-based.
	PageSize int
}

// ParseCriteria translates raw query-string parameters into Criteria. It is
// pure and never fails: malformed input degrades to the permissive default
// for that parameter, because a directory page must render for any URL.
//
// Recognized parameters: page, sort, tags (comma-separated), type (category),
// amount ("min-max"), deadline ("rolling" | "next-N" | unset).
func ParseCriteria(q url.Values, kind models.Kind, pageSize int) Criteria {
	c := Criteria{
		Kind:     kind,
		Sort:     defaultSort(kind),
		Page:     1,
		PageSize: pageSize,
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 1 {
		c.Page = page
	}

	if cat := q.Get("type"); cat != "" && models.ValidCategory(kind, cat) {
		c.Category = cat
	}

	for _, tag := range strings.Split(q.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			c.Tags = append(c.Tags, tag)
		}
	}

	c.Amount = parseAmountRange(q.Get("amount"))
	c.Window = parseDeadlineWindow(q.Get("deadline"))

	switch s := SortKey(q.Get("sort")); s {
	case SortDeadlineAsc, SortAmountDesc, SortAmountAsc, SortNewest, SortNameAsc, SortNameDesc:
		c.Sort = s
	}

	return c
}

// defaultSort is the per-kind fallback when sort is absent or unrecognized.
func defaultSort(kind models.Kind) SortKey {
	if kind == models.KindResource {
		return SortNewest
	}
	return SortDeadlineAsc
}

// parseAmountRange parses "min-max". Any parse failure or negative half
// yields no filter; max equal to the sentinel means no upper bound.
func parseAmountRange(raw string) *AmountRange {
	lo, hi, ok := strings.Cut(raw, "-")
	if !ok {
		return nil
	}
	min, err := strconv.ParseFloat(lo, 64)
	if err != nil || min < 0 {
		return nil
	}
	max, err := strconv.ParseFloat(hi, 64)
	if err != nil || max < 0 {
		return nil
	}

	rng := &AmountRange{Min: min}
	if max < noUpperBound {
		rng.Max = &max
	}
	return rng
}

// parseDeadlineWindow parses "rolling" and "next-N"; anything else is the
// default upcoming window.
func parseDeadlineWindow(raw string) DeadlineWindow {
	if raw == "rolling" {
		return DeadlineWindow{Mode: WindowRolling}
	}
	if days, ok := strings.CutPrefix(raw, "next-"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return DeadlineWindow{Mode: WindowNextDays, Days: n}
		}
	}
	return DeadlineWindow{Mode: WindowUpcoming}
}

// windowEnd returns the inclusive end of a next-N window relative to today,
// or nil for unbounded windows.
func (w DeadlineWindow) windowEnd(today time.Time) *time.Time {
	if w.Mode != WindowNextDays {
		return nil
	}
	end := today.AddDate(0, 0, w.Days)
	return &end
}
