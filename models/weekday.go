package models

import (
	"fmt"
	"strings"
	"time"
)

// Weekday uses the same ordinals as time.Weekday (Sunday = 0).
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DayLocale selects the labels used for day names in templates and summaries.
type DayLocale string

const (
	LocaleIndonesian DayLocale = "id"
	LocaleEnglish    DayLocale = "en"
)

var weekdayLabels = map[DayLocale][7]string{
	LocaleIndonesian: {"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"},
	LocaleEnglish:    {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// Label returns the day name for locale, falling back to English for unknown locales.
func (d Weekday) Label(locale DayLocale) string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	labels, ok := weekdayLabels[locale]
	if !ok {
		labels = weekdayLabels[LocaleEnglish]
	}
	return labels[d]
}

func (d Weekday) String() string {
	return d.Label(LocaleEnglish)
}

// ParseWeekday accepts a day label from any supported locale, case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.TrimSpace(s)
	for _, labels := range weekdayLabels {
		for i, label := range labels {
			if strings.EqualFold(label, name) {
				return Weekday(i), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ValidLocale reports whether locale has a label set.
func ValidLocale(locale DayLocale) bool {
	_, ok := weekdayLabels[locale]
	return ok
}
