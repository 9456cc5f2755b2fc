package utils

import "time"

const DateLayout = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DateBounds returns [today, tomorrow) as YYYY-MM-DD strings in t's location.
func DateBounds(t time.Time) (string, string) {
	start := BeginningOfDay(t)
	return start.Format(DateLayout), start.AddDate(0, 0, 1).Format(DateLayout)
}
