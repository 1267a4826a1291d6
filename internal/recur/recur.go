// Package recur duplicates events at a fixed daily or weekly interval and
// flattens RRULEs of imported calendars into concrete start times.
// Stored events never carry a rule; every occurrence is its own record.
package recur

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "kplanning/internal/log"
	"kplanning/internal/model"
)

// Repeat selects the duplication interval.
type Repeat string

const (
	None   Repeat = "none"
	Daily  Repeat = "daily"
	Weekly Repeat = "weekly"
)

// Default occurrence counts when the caller leaves Count at zero.
const (
	DefaultDailyCount  = 30
	DefaultWeeklyCount = 12

	defaultMaxOccurrences = 5000
)

// ParseRepeat maps user input to a Repeat. Unknown values mean None.
func ParseRepeat(s string) Repeat {
	switch Repeat(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily
	case Weekly:
		return Weekly
	default:
		return None
	}
}

// Rule describes how many copies to lay out and how far apart.
type Rule struct {
	Repeat Repeat `json:"repeat"`
	Count  int    `json:"repeatCount"`
}

// Normalize fills the default count for the interval and clamps it to 1.
func (r Rule) Normalize() Rule {
	r.Repeat = ParseRepeat(string(r.Repeat))
	if r.Count == 0 {
		switch r.Repeat {
		case Daily:
			r.Count = DefaultDailyCount
		case Weekly:
			r.Count = DefaultWeeklyCount
		}
	}
	if r.Count < 1 {
		r.Count = 1
	}
	return r
}

// Active reports whether the rule produces copies at all.
func (r Rule) Active() bool {
	return r.Normalize().Repeat != None
}

// Starts returns count occurrence starts beginning at start. Occurrences
// land on the same local wall-clock time, so a DST change never shifts an
// event by an hour.
func Starts(start time.Time, r Rule) ([]time.Time, error) {
	r = r.Normalize()
	if r.Repeat == None {
		return []time.Time{start}, nil
	}

	freq := rrule.DAILY
	if r.Repeat == Weekly {
		freq = rrule.WEEKLY
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: 1,
		Count:    r.Count,
		Dtstart:  start,
	})
	if err != nil {
		return nil, fmt.Errorf("recur: build rule: %w", err)
	}
	return rule.All(), nil
}

// Expand lays out copies of base following r. Occurrence 0 is base's own
// slot; with skipFirst it is omitted and Count copies after it are
// returned instead, which is what an edit of an existing event wants.
//
// Every copy keeps base's duration and fields but gets a fresh id and an
// empty SplitID, so the store splits it as a new logical event.
func Expand(base model.CalendarEvent, r Rule, skipFirst bool, newID func() string) ([]model.CalendarEvent, error) {
	r = r.Normalize()
	if r.Repeat == None {
		if skipFirst {
			return nil, nil
		}
		return []model.CalendarEvent{base}, nil
	}
	if newID == nil {
		return nil, errors.New("recur: id generator is nil")
	}

	want := r
	if skipFirst {
		want.Count = r.Count + 1
	}
	starts, err := Starts(base.Start, want)
	if err != nil {
		return nil, err
	}
	if skipFirst && len(starts) > 0 {
		starts = starts[1:]
	}

	dur := base.Duration()
	out := make([]model.CalendarEvent, 0, len(starts))
	for _, st := range starts {
		ev := base
		ev.ID = newID()
		ev.SplitID = ""
		ev.Start = st
		ev.End = st.Add(dur)
		out = append(out, ev)
	}

	appLog.Debug("recur: expanded", "base", base.ID, "repeat", string(r.Repeat), "copies", len(out))
	return out, nil
}

// Window bounds RRULE flattening.
type Window struct {
	From, To time.Time
	// MaxOccurrences caps a single rule; zero means 5000.
	MaxOccurrences int
}

// Flatten expands a raw RRULE (as found in an iCalendar VEVENT) anchored
// at dtstart into the occurrence starts inside w, minus exdates. The bool
// result reports truncation by the cap.
func Flatten(raw string, dtstart time.Time, exdates []time.Time, w Window) ([]time.Time, bool, error) {
	if w.To.Before(w.From) {
		return nil, false, errors.New("recur: window end is before start")
	}
	limit := w.MaxOccurrences
	if limit <= 0 {
		limit = defaultMaxOccurrences
	}

	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, false, fmt.Errorf("recur: parse rrule %q: %w", raw, err)
	}
	r.DTStart(dtstart)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex.In(dtstart.Location()))
	}

	starts := set.Between(w.From.In(dtstart.Location()), w.To.In(dtstart.Location()), true)
	truncated := false
	if len(starts) > limit {
		starts = starts[:limit]
		truncated = true
	}
	return starts, truncated, nil
}
