// Package split normalizes events that cross midnight into one record per
// calendar day, so per-day views never reason about multi-day spans.
package split

import (
	"github.com/google/uuid"

	"kplanning/internal/model"
	"kplanning/internal/timeutil"
)

// IDFunc generates ids for segments other than the first one.
type IDFunc func() string

// NewID is the default IDFunc.
func NewID() string {
	return uuid.NewString()
}

// Event splits ev into chronological single-day segments.
//
//   - An event starting and ending on the same calendar day is returned
//     as-is, without a SplitID.
//   - Otherwise every segment carries SplitID = ev.SplitID, or ev.ID when
//     the event was never split before, so re-splitting keeps the group.
//   - The segment on the start day keeps ev.ID; others get newID().
//   - Segments that are not the last one end at 23:59:00 of their day.
//   - Zero or negative length segments are dropped (an end at exactly
//     00:00 produces nothing for its day).
func Event(ev model.CalendarEvent, newID IDFunc) []model.CalendarEvent {
	if newID == nil {
		newID = NewID
	}

	startDay := timeutil.StartOfDay(ev.Start)
	endDay := timeutil.StartOfDay(ev.End)
	if startDay.Equal(endDay) {
		return []model.CalendarEvent{ev}
	}

	groupID := ev.SplitID
	if groupID == "" {
		groupID = ev.ID
	}

	segments := make([]model.CalendarEvent, 0, 2)
	for d := startDay; !d.After(endDay); d = timeutil.AddDays(d, 1) {
		first := d.Equal(startDay)
		last := d.Equal(endDay)

		segStart := d
		if first {
			segStart = ev.Start
		}
		segEnd := timeutil.LastMinuteOfDay(d)
		if last {
			segEnd = ev.End
		}
		if !segEnd.After(segStart) {
			continue
		}

		seg := ev
		seg.Start = segStart
		seg.End = segEnd
		seg.SplitID = groupID
		if !first {
			seg.ID = newID()
		}
		segments = append(segments, seg)
	}

	return segments
}

// All splits every event in order and concatenates the segments.
func All(events []model.CalendarEvent, newID IDFunc) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, Event(ev, newID)...)
	}
	return out
}
