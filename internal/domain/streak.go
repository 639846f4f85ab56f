package domain

import (
	"sort"
	"time"
)

// StreakResult reports consecutive-day runs over a user's activity dates.
type StreakResult struct {
	Current int
	Longest int
	// LastActive is the most recent date carrying activity; zero when the
	// date set is empty.
	LastActive time.Time
	// ActiveToday reports whether the reference day itself has activity.
	// Advisory only: a false value never changes Current.
	ActiveToday bool
}

// ComputeStreaks derives current and longest streaks from a set of activity
// dates. The current streak is anchored to the most recent recorded date,
// not to today; today only feeds the ActiveToday flag. Duplicate and
// unordered dates are tolerated.
func ComputeStreaks(dates []time.Time, today time.Time) StreakResult {
	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		set[Day(d)] = struct{}{}
	}
	if len(set) == 0 {
		return StreakResult{}
	}

	distinct := make([]time.Time, 0, len(set))
	for d := range set {
		distinct = append(distinct, d)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].Before(distinct[j]) })

	latest := distinct[len(distinct)-1]
	current := 0
	for day := latest; ; day = day.AddDate(0, 0, -1) {
		if _, ok := set[day]; !ok {
			break
		}
		current++
	}

	longest, run := 1, 1
	for i := 1; i < len(distinct); i++ {
		if distinct[i].Equal(distinct[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}

	_, activeToday := set[Day(today)]
	return StreakResult{
		Current:     current,
		Longest:     longest,
		LastActive:  latest,
		ActiveToday: activeToday,
	}
}
