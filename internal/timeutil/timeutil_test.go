package timeutil

import (
	"testing"
	"time"
)

func TestStartAndLastMinuteOfDay(t *testing.T) {
	ts := time.Date(2024, 3, 5, 17, 42, 9, 123, time.Local)
	if got, want := StartOfDay(ts), time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Fatalf("StartOfDay = %s, want %s", got, want)
	}
	if got, want := LastMinuteOfDay(ts), time.Date(2024, 3, 5, 23, 59, 0, 0, time.Local); !got.Equal(want) {
		t.Fatalf("LastMinuteOfDay = %s, want %s", got, want)
	}
	if got := MinutesSinceMidnight(ts); got != 17*60+42 {
		t.Fatalf("MinutesSinceMidnight = %d", got)
	}
}

func TestWeekStartsOnConfiguredDay(t *testing.T) {
	// 2024-01-03 is a Wednesday.
	wed := time.Date(2024, 1, 3, 12, 0, 0, 0, time.Local)

	mon := Week(wed, time.Monday)
	if len(mon) != 7 || mon[0].Day() != 1 || mon[0].Weekday() != time.Monday || mon[6].Day() != 7 {
		t.Fatalf("unexpected monday week: first=%s last=%s", mon[0], mon[6])
	}

	sun := Week(wed, time.Sunday)
	if sun[0].Weekday() != time.Sunday || sun[0].Month() != time.December || sun[0].Day() != 31 {
		t.Fatalf("unexpected sunday week start: %s", sun[0])
	}
}

func TestMonthGridCoversWholeWeeks(t *testing.T) {
	// February 2024: starts Thursday, ends Thursday (leap year).
	days := MonthGrid(time.Date(2024, 2, 14, 0, 0, 0, 0, time.Local), time.Monday)
	if len(days)%7 != 0 {
		t.Fatalf("grid length %d is not whole weeks", len(days))
	}
	if days[0].Weekday() != time.Monday || days[0].Day() != 29 || days[0].Month() != time.January {
		t.Fatalf("unexpected first cell %s", days[0])
	}
	last := days[len(days)-1]
	if last.Weekday() != time.Sunday || last.Day() != 3 || last.Month() != time.March {
		t.Fatalf("unexpected last cell %s", last)
	}
}

func TestSameDayAndParseWeekStart(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	b := time.Date(2024, 1, 1, 23, 59, 0, 0, time.Local)
	if !SameDay(a, b) || SameDay(a, AddDays(a, 1)) {
		t.Fatal("SameDay mismatch")
	}
	if ParseWeekStart("sunday") != time.Sunday || ParseWeekStart("monday") != time.Monday || ParseWeekStart("") != time.Monday {
		t.Fatal("ParseWeekStart mismatch")
	}
}
