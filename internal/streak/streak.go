// Package streak implements the streak computation at the heart of the
// progress tracker: turning a set of submission instants into the user's
// current and longest consecutive-day streaks, plus the per-day counts that
// feed the contribution heatmap.
//
// The package is deliberately pure: no clock access, no persistence, no
// logging. Callers normalize "today" and the reference timezone at the
// boundary and pass both in, which keeps every call site on one timezone
// convention and makes the math trivially testable.
//
// Semantics:
//   - A calendar day "counts" when it has at least one submission; multiple
//     submissions on the same day collapse to one.
//   - Longest streak is the maximum run of consecutive counting days over
//     all time.
//   - Current streak is the run ending on the most recent counting day,
//     but only while that day is today or yesterday; one full day of
//     inactivity breaks it to zero.
package streak

import (
	"sort"
	"time"
)

// State holds the two derived streak metrics stored on a user profile.
// Both values are non-negative; after a recomputation over a non-empty
// history Longest is always >= Current.
type State struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// Day truncates an instant to its calendar day in loc, returned as midnight
// in that location. All timezone normalization happens here, at the boundary,
// never inside the streak math.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// dayOrdinals normalizes instants to unique, ascending day ordinals
// (days since the Unix epoch) in loc.
func dayOrdinals(times []time.Time, loc *time.Location) []int64 {
	uniq := make(map[int64]struct{}, len(times))
	for _, t := range times {
		uniq[ordinal(t, loc)] = struct{}{}
	}
	days := make([]int64, 0, len(uniq))
	for d := range uniq {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// ordinal maps an instant to a day ordinal in loc. Going through Date()
// rather than Unix-second division keeps DST transitions from shifting a
// day boundary.
func ordinal(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / (24 * 60 * 60)
}

// Calculate derives the streak state from a set of submission instants.
//
// The input may be unordered and may contain several instants on the same
// calendar day; both are normalized away. today anchors the "is the streak
// alive" check and must be an instant in the same reference timezone the
// caller uses everywhere else. The function is pure and idempotent: the
// same inputs always yield the same State.
func Calculate(times []time.Time, today time.Time, loc *time.Location) State {
	if loc == nil {
		loc = time.UTC
	}
	days := dayOrdinals(times, loc)
	if len(days) == 0 {
		return State{}
	}

	// Longest: scan ascending, counting runs of gap-one days.
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	// Current: alive only while the most recent day is today or yesterday.
	current := 0
	todayOrd := ordinal(today, loc)
	last := days[len(days)-1]
	if todayOrd-last == 0 || todayOrd-last == 1 {
		current = 1
		for i := len(days) - 1; i > 0; i-- {
			if days[i]-days[i-1] != 1 {
				break
			}
			current++
		}
	}

	return State{Current: current, Longest: longest}
}

// Reconcile reports whether a stored streak state has drifted from the
// freshly computed one and must be written back. The stored value is a
// derived cache, never authoritative: whenever history changes underneath
// it (late submissions, deletions), the next recomputation silently heals
// it via this check.
func Reconcile(stored, computed State) bool {
	return stored != computed
}

// Heatmap buckets submission instants into per-day counts keyed by
// "YYYY-MM-DD" in loc. Unlike Calculate it does not deduplicate: the
// contribution heatmap shades by how many submissions landed on each day.
func Heatmap(times []time.Time, loc *time.Location) map[string]int {
	if loc == nil {
		loc = time.UTC
	}
	out := make(map[string]int, len(times))
	for _, t := range times {
		out[t.In(loc).Format("2006-01-02")]++
	}
	return out
}
