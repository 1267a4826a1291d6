// Package timeutil holds the local wall-clock day arithmetic shared by the
// splitting, layout and view code. All helpers keep the location of their
// input; no timezone conversion happens here.
package timeutil

import "time"

// StartOfDay returns 00:00:00 of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LastMinuteOfDay returns 23:59:00 of t's calendar day. Split segments end
// here instead of at the next midnight.
func LastMinuteOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping the wall-clock time.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MinutesSinceMidnight returns the whole minutes elapsed since t's start of day.
func MinutesSinceMidnight(t time.Time) int {
	return int(t.Sub(StartOfDay(t)) / time.Minute)
}

// StartOfWeek returns the first day of t's week. weekStart is either
// time.Monday or time.Sunday.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return AddDays(day, -offset)
}

// Week returns the seven days of t's week, in order.
func Week(t time.Time, weekStart time.Weekday) []time.Time {
	first := StartOfWeek(t, weekStart)
	days := make([]time.Time, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, AddDays(first, i))
	}
	return days
}

// MonthGrid returns every day of the full weeks covering t's month, as
// displayed by a month view.
func MonthGrid(t time.Time, weekStart time.Weekday) []time.Time {
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	last := AddDays(first.AddDate(0, 1, 0), -1)

	start := StartOfWeek(first, weekStart)
	end := AddDays(StartOfWeek(last, weekStart), 6)

	days := make([]time.Time, 0, 42)
	for d := start; !d.After(end); d = AddDays(d, 1) {
		days = append(days, d)
	}
	return days
}

// ParseWeekStart maps the config value to a weekday; anything but
// "sunday" means Monday.
func ParseWeekStart(s string) time.Weekday {
	if s == "sunday" {
		return time.Sunday
	}
	return time.Monday
}
