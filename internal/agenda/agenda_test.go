package agenda

import (
	"strings"
	"testing"
	"time"

	"kplanning/internal/layout"
	"kplanning/internal/model"
)

func at(h, m int) time.Time {
	return time.Date(2024, 6, 3, h, m, 0, 0, time.Local)
}

func TestRenderDay(t *testing.T) {
	day := layout.BuildDay(at(0, 0), []model.CalendarEvent{
		{ID: "a", Title: "Deep work", Category: "work", Start: at(9, 0), End: at(10, 30)},
		{ID: "b", Title: "Call", Category: "Gym", Start: at(10, 0), End: at(10, 15)},
		{ID: "c", Title: "Lunch", Category: "meal", Start: at(12, 0), End: at(13, 0)},
	}, 1)

	out := Render(day, at(9, 30))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	var events []string
	for _, l := range lines {
		if strings.Contains(l, " - ") {
			events = append(events, l)
		}
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 event lines, got %d:\n%s", len(events), out)
	}
	if !strings.Contains(events[0], "▸") || !strings.Contains(events[0], "[Travail, 1h 30m]") {
		t.Fatalf("running event must be marked: %q", events[0])
	}
	if !strings.Contains(events[0], "lane 1/2") || !strings.Contains(events[1], "lane 2/2") {
		t.Fatalf("overlapping events must show lanes:\n%s", out)
	}
	if !strings.Contains(events[1], "[Gym, 15 min]") {
		t.Fatalf("custom category label missing: %q", events[1])
	}
	if strings.Contains(events[2], "lane") || strings.Contains(events[2], "▸") {
		t.Fatalf("lunch is neither running nor overlapping: %q", events[2])
	}
}

func TestRenderEmptyDay(t *testing.T) {
	out := Render(layout.BuildDay(at(0, 0), nil, 1), at(9, 0))
	if !strings.Contains(out, "nothing planned") || !strings.Contains(out, "Monday 03 June 2024") {
		t.Fatalf("unexpected empty agenda:\n%s", out)
	}
}
