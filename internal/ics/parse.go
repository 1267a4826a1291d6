package ics

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"kplanning/internal/category"
	appLog "kplanning/internal/log"
	"kplanning/internal/model"
	"kplanning/internal/recur"
)

// Default flattening window around now for recurring VEVENTs.
const (
	DefaultLookBehind = 30 * 24 * time.Hour
	DefaultLookAhead  = 180 * 24 * time.Hour
)

// ParseOptions controls how a calendar is turned into board events.
type ParseOptions struct {
	// Window bounds RRULE flattening. A zero window means
	// [now-DefaultLookBehind, now+DefaultLookAhead].
	Window recur.Window
	// Now is used for the default window; defaults to time.Now.
	Now func() time.Time
}

// ParseStats reports what was dropped while parsing.
type ParseStats struct {
	Events    int      `json:"events"`
	Skipped   int      `json:"skipped"`
	Truncated []string `json:"truncated,omitempty"` // UIDs whose rule hit the cap
}

// vevent is one VEVENT reduced to what the board needs.
type vevent struct {
	uid         string
	summary     string
	description string
	category    string
	color       string
	titleColor  string
	splitID     string

	start, end time.Time
	rrule      string
	exdates    []time.Time
	recurrence *time.Time
}

// Parse reads an iCalendar payload into board events in local time.
//
// VEVENTs without a UID or with end <= start are skipped and logged.
// Recurring VEVENTs are flattened into one event per occurrence inside
// the window; RECURRENCE-ID overrides replace the matching occurrence.
// A missing category becomes "other".
func Parse(body []byte, opts ParseOptions) ([]model.CalendarEvent, ParseStats, error) {
	var stats ParseStats
	if len(body) == 0 {
		return nil, stats, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, stats, fmt.Errorf("ics: parse calendar: %w", err)
	}

	bases := make([]vevent, 0)
	overrides := make(map[string][]vevent)
	for _, comp := range cal.Events() {
		ev, perr := readVEvent(comp)
		if perr != nil {
			stats.Skipped++
			appLog.Warn("ics: skipping vevent", "reason", perr.Error(), "uid", ev.uid)
			continue
		}
		if ev.recurrence != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		bases = append(bases, ev)
	}

	w := opts.window()
	out := make([]model.CalendarEvent, 0, len(bases))
	for _, ev := range bases {
		if ev.rrule == "" {
			out = append(out, ev.toEvent(ev.uid, ev.start, ev.end))
			continue
		}

		starts, truncated, ferr := recur.Flatten(ev.rrule, ev.start, ev.exdates, w)
		if ferr != nil {
			stats.Skipped++
			appLog.Error("ics: cannot flatten rrule", ferr, "uid", ev.uid)
			continue
		}
		if truncated {
			stats.Truncated = append(stats.Truncated, ev.uid)
			appLog.Warn("ics: occurrences truncated", "uid", ev.uid, "kept", len(starts))
		}

		dur := ev.end.Sub(ev.start)
		for _, st := range starts {
			id := ev.uid + "-" + st.UTC().Format("20060102T150405Z")
			occ := ev
			occStart, occEnd := st, st.Add(dur)
			if o, ok := findOverride(overrides[ev.uid], st); ok {
				occ = o
				occStart, occEnd = o.start, o.end
			}
			out = append(out, occ.toEvent(id, occStart, occEnd))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	stats.Events = len(out)

	appLog.Info("ics parse completed", "events", stats.Events, "skipped", stats.Skipped)
	return out, stats, nil
}

func (o ParseOptions) window() recur.Window {
	w := o.Window
	if w.From.IsZero() && w.To.IsZero() {
		now := time.Now
		if o.Now != nil {
			now = o.Now
		}
		t := now()
		w.From = t.Add(-DefaultLookBehind)
		w.To = t.Add(DefaultLookAhead)
	}
	return w
}

func readVEvent(ve *ical.VEvent) (vevent, error) {
	var out vevent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return out, errors.New("missing UID")
	}
	out.uid = strings.TrimSpace(uid.Value)

	out.summary = propValue(ve, ical.ComponentPropertySummary)
	out.description = propValue(ve, ical.ComponentPropertyDescription)
	out.color = propValue(ve, ical.ComponentPropertyColor)
	out.titleColor = propValue(ve, propTitleColor)
	out.splitID = propValue(ve, propSplitID)

	out.category = category.Other
	if cats := propValue(ve, ical.ComponentPropertyCategories); cats != "" {
		first := strings.TrimSpace(strings.Split(cats, ",")[0])
		if first != "" {
			out.category = first
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := eventEnd(ve, start)
	if err != nil {
		return out, err
	}
	out.start = start.In(time.Local)
	out.end = end.In(time.Local)
	if err := model.ValidateSpan(out.start, out.end); err != nil {
		return out, err
	}

	out.rrule = propValue(ve, ical.ComponentPropertyRrule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part); err == nil {
				out.exdates = append(out.exdates, t)
			}
		}
	}
	if rid := propValue(ve, ical.ComponentProperty("RECURRENCE-ID")); rid != "" {
		if t, err := parseICSTime(rid); err == nil {
			out.recurrence = &t
		}
	}

	return out, nil
}

// eventEnd reads DTEND, falling back to DTSTART + DURATION, then to one
// day for a DATE start.
func eventEnd(ve *ical.VEvent, start time.Time) (time.Time, error) {
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return time.Time{}, fmt.Errorf("DTEND: %w", err)
		}
		return end, nil
	}
	if raw := propValue(ve, ical.ComponentPropertyDuration); raw != "" {
		d, err := parseICSDuration(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("DURATION: %w", err)
		}
		return start.Add(d), nil
	}
	if !strings.Contains(propValue(ve, ical.ComponentPropertyDtStart), "T") {
		return start.AddDate(0, 0, 1), nil
	}
	return time.Time{}, errors.New("neither DTEND nor DURATION")
}

func (v vevent) toEvent(id string, start, end time.Time) model.CalendarEvent {
	return model.CalendarEvent{
		ID:          id,
		Title:       v.summary,
		Start:       start,
		End:         end,
		Category:    v.category,
		Description: v.description,
		Color:       v.color,
		TitleColor:  v.titleColor,
		SplitID:     v.splitID,
	}
}

func findOverride(overrides []vevent, start time.Time) (vevent, bool) {
	for _, o := range overrides {
		if o.recurrence.Equal(start) {
			return o, true
		}
	}
	return vevent{}, false
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

// parseICSTime handles the bare DATE / DATE-TIME / UTC forms found in
// EXDATE and RECURRENCE-ID values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}

// parseICSDuration reads an RFC 5545 dur-value such as "PT30M",
// "P1DT2H" or "-P1W". Days count as 24 hours.
func parseICSDuration(v string) (time.Duration, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(v, "-"):
		sign, v = -1, v[1:]
	case strings.HasPrefix(v, "+"):
		v = v[1:]
	}
	if !strings.HasPrefix(v, "P") || len(v) < 3 {
		return 0, fmt.Errorf("malformed duration %q", v)
	}

	var (
		total  time.Duration
		inTime bool
		num    int
		digits bool
	)
	for _, r := range v[1:] {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			digits = true
			continue
		case r == 'T' && !inTime && !digits:
			inTime = true
			continue
		}
		if !digits {
			return 0, fmt.Errorf("malformed duration %q", v)
		}
		n := time.Duration(num)
		switch {
		case r == 'W' && !inTime:
			total += n * 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			total += n * 24 * time.Hour
		case r == 'H' && inTime:
			total += n * time.Hour
		case r == 'M' && inTime:
			total += n * time.Minute
		case r == 'S' && inTime:
			total += n * time.Second
		default:
			return 0, fmt.Errorf("malformed duration %q", v)
		}
		num, digits = 0, false
	}
	if digits {
		return 0, fmt.Errorf("malformed duration %q", v)
	}
	return sign * total, nil
}
