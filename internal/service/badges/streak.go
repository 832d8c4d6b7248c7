package badges

import (
	"sort"
	"time"
)

// Streak detection over check-in timestamps. Weeks follow ISO-8601:
// Monday-based, so two check-ins count as consecutive when their ISO
// weeks are adjacent. Input order never matters; timestamps come back
// from storage unordered.

// HasWeeklyStreak reports whether the check-ins contain a run of at
// least `weeks` strictly consecutive ISO weeks.
func HasWeeklyStreak(checkIns []time.Time, weeks int) bool {
	if weeks <= 0 {
		return false
	}
	return LongestWeeklyRun(checkIns) >= weeks
}

// LongestWeeklyRun returns the length of the longest run of consecutive
// ISO weeks that each contain at least one check-in.
func LongestWeeklyRun(checkIns []time.Time) int {
	if len(checkIns) == 0 {
		return 0
	}

	seen := make(map[int]struct{}, len(checkIns))
	for _, t := range checkIns {
		seen[weekIndex(t)] = struct{}{}
	}

	indexes := make([]int, 0, len(seen))
	for idx := range seen {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	longest, run := 1, 1
	for i := 1; i < len(indexes); i++ {
		if indexes[i] == indexes[i-1]+1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}

// weekIndex maps a timestamp to a linear ISO-week index. Linearizing on
// the week's Monday keeps runs consecutive across year boundaries, which
// raw week numbers would break at week 52/1.
func weekIndex(t time.Time) int {
	monday := isoWeekStart(t)
	return int(monday.Unix() / (7 * 24 * 60 * 60))
}

// isoWeekStart returns midnight UTC of the Monday starting t's ISO week.
func isoWeekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysSinceMonday)
}
