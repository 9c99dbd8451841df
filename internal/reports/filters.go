package reports

import "time"

// academicMonths orders calendar months from October through September.
var academicMonths = []int{10, 11, 12, 1, 2, 3, 4, 5, 6, 7, 8, 9}

// AcademicYear returns the October-to-September span containing now.
func AcademicYear(now time.Time) (time.Time, time.Time) {
	year := now.Year()
	if now.Month() < time.October {
		year--
	}
	start := time.Date(year, time.October, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
}

// LastMonth returns the previous calendar month of now.
func LastMonth(now time.Time) (time.Time, time.Time) {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return thisMonth.AddDate(0, -1, 0), thisMonth.Add(-time.Nanosecond)
}

// fillMonths expands sparse counts to all twelve months in academic order.
func fillMonths(counts map[int]int64) []MonthCount {
	out := make([]MonthCount, 0, len(academicMonths))
	for _, m := range academicMonths {
		out = append(out, MonthCount{Month: m, Count: counts[m]})
	}
	return out
}
