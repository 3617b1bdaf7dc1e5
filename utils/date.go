package utils

import "time"

const DayLayout = "2006-01-02"

// ParseDay accepts YYYY-MM-DD and full RFC 3339 timestamps, keeping only the day.
func ParseDay(s string) (time.Time, error) {
	if len(s) > len(DayLayout) {
		s = s[:len(DayLayout)]
	}
	return time.ParseInLocation(DayLayout, s, time.UTC)
}

func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
