// Package layout assigns side-by-side columns to concurrent events of a
// single day and turns the result into box geometry for rendering.
package layout

import (
	"sort"
	"time"

	"kplanning/internal/model"
	"kplanning/internal/timeutil"
)

// GapPx is the horizontal gap the views keep between adjacent columns.
const GapPx = 4

// Slot is the horizontal placement of one event: it occupies column
// Column out of Columns equally wide columns.
type Slot struct {
	Column  int `json:"column"`
	Columns int `json:"columns"`
}

// DayWindow returns [start of day, start of next day] for day.
func DayWindow(day time.Time) (time.Time, time.Time) {
	start := timeutil.StartOfDay(day)
	return start, timeutil.AddDays(start, 1)
}

type active struct {
	end    time.Time
	column int
}

// Compute assigns a Slot to every event, keyed by event id.
//
// Events are clamped to [dayStart, dayEnd] and stably sorted by clamped
// start. A cluster is a run of transitively overlapping events; inside a
// cluster each event takes the lowest column not used by an interval that
// is still running, and all members share the cluster's peak concurrency
// as their column count. Overlapping events never share a column.
func Compute(events []model.CalendarEvent, dayStart, dayEnd time.Time) map[string]Slot {
	type item struct {
		id         string
		start, end time.Time
	}

	items := make([]item, 0, len(events))
	for _, ev := range events {
		items = append(items, item{
			id:    ev.ID,
			start: clamp(ev.Start, dayStart, dayEnd),
			end:   clamp(ev.End, dayStart, dayEnd),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].start.Before(items[j].start)
	})

	result := make(map[string]Slot, len(items))

	var (
		running    []active
		cluster    []string
		clusterEnd time.Time
		maxColumns int
		open       bool
	)

	finalize := func() {
		columns := maxColumns
		if columns < 1 {
			columns = 1
		}
		for _, id := range cluster {
			s := result[id]
			s.Columns = columns
			result[id] = s
		}
		running = running[:0]
		cluster = cluster[:0]
		maxColumns = 0
		clusterEnd = time.Time{}
		open = false
	}

	for _, it := range items {
		if !open || !it.start.Before(clusterEnd) {
			finalize()
			open = true
		}
		if it.end.After(clusterEnd) {
			clusterEnd = it.end
		}

		kept := running[:0]
		for _, a := range running {
			if a.end.After(it.start) {
				kept = append(kept, a)
			}
		}
		running = kept

		col := lowestFreeColumn(running)
		running = append(running, active{end: it.end, column: col})
		if len(running) > maxColumns {
			maxColumns = len(running)
		}

		result[it.id] = Slot{Column: col}
		cluster = append(cluster, it.id)
	}
	if open {
		finalize()
	}

	return result
}

func lowestFreeColumn(running []active) int {
	for col := 0; ; col++ {
		used := false
		for _, a := range running {
			if a.column == col {
				used = true
				break
			}
		}
		if !used {
			return col
		}
	}
}

func clamp(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

// Box is the rendered rectangle of an event inside a day column: Top and
// Height in pixels from the top of the day, Left and Width in percent of
// the column width.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// Place computes the Box of ev for the given slot. The event is clamped to
// the day and drawn at least model.MinDurationMinutes tall.
func Place(ev model.CalendarEvent, slot Slot, dayStart time.Time, pixelsPerMinute float64) Box {
	dayStart, dayEnd := DayWindow(dayStart)
	start := clamp(ev.Start, dayStart, dayEnd)
	end := clamp(ev.End, dayStart, dayEnd)

	startMin := start.Sub(dayStart).Minutes()
	durMin := end.Sub(start).Minutes()
	if durMin < model.MinDurationMinutes {
		durMin = model.MinDurationMinutes
	}

	columns := slot.Columns
	if columns < 1 {
		columns = 1
	}
	width := 100 / float64(columns)

	return Box{
		Top:    startMin * pixelsPerMinute,
		Height: durMin * pixelsPerMinute,
		Left:   float64(slot.Column) * width,
		Width:  width,
	}
}

// Day is a laid-out day: its visible events in start order with their slot
// and box.
type Day struct {
	Date   time.Time `json:"date"`
	Events []Placed  `json:"events"`
}

// Placed pairs an event with its computed placement.
type Placed struct {
	Event model.CalendarEvent `json:"event"`
	Slot  Slot                `json:"slot"`
	Box   Box                 `json:"box"`
}

// BuildDay lays out the events overlapping day. Events outside the day are
// ignored.
func BuildDay(day time.Time, events []model.CalendarEvent, pixelsPerMinute float64) Day {
	start, end := DayWindow(day)

	visible := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.Overlaps(start, end) {
			visible = append(visible, ev)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Start.Before(visible[j].Start)
	})

	slots := Compute(visible, start, end)
	out := Day{Date: start, Events: make([]Placed, 0, len(visible))}
	for _, ev := range visible {
		slot := slots[ev.ID]
		out.Events = append(out.Events, Placed{
			Event: ev,
			Slot:  slot,
			Box:   Place(ev, slot, start, pixelsPerMinute),
		})
	}
	return out
}
