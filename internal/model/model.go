package model

import (
	"errors"
	"strconv"
	"time"
)

// Minimum length of anything placed on the timeline, and the default
// length of a new idea whose duration was left empty.
const (
	MinDurationMinutes     = 15
	DefaultDurationMinutes = 60
)

var (
	ErrInvalidSpan = errors.New("event end must be after start")
	ErrEmptyTitle  = errors.New("title is required")
)

// CalendarEvent is a time-boxed item placed on the board.
//
// Records that originate from one logical multi-day event share SplitID;
// the store guarantees no stored record spans more than one calendar day.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`      // hex override of the category accent
	TitleColor  string    `json:"titleColor,omitempty"` // hex
	SplitID     string    `json:"splitId,omitempty"`
}

// Duration returns End - Start.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the event intersects the half-open window
// [from, to).
func (e CalendarEvent) Overlaps(from, to time.Time) bool {
	return e.Start.Before(to) && e.End.After(from)
}

// UnscheduledEvent is an idea waiting in the holding area. It becomes a
// CalendarEvent once it is dropped on a concrete start time.
type UnscheduledEvent struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"durationMinutes"`
	Description     string `json:"description,omitempty"`
	Color           string `json:"color,omitempty"`
	TitleColor      string `json:"titleColor,omitempty"`
}

// Place converts the idea into a CalendarEvent starting at start.
func (u UnscheduledEvent) Place(id string, start time.Time) CalendarEvent {
	return CalendarEvent{
		ID:          id,
		Title:       u.Title,
		Start:       start,
		End:         start.Add(time.Duration(NormalizeDuration(u.DurationMinutes)) * time.Minute),
		Category:    u.Category,
		Description: u.Description,
		Color:       u.Color,
		TitleColor:  u.TitleColor,
	}
}

// ValidateSpan rejects degenerate spans at the creation/edit boundary.
func ValidateSpan(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidSpan
	}
	return nil
}

// NormalizeDuration applies the idea form rules: an unset duration becomes
// one hour and anything shorter than the minimum is raised to it.
func NormalizeDuration(minutes int) int {
	if minutes == 0 {
		return DefaultDurationMinutes
	}
	if minutes < MinDurationMinutes {
		return MinDurationMinutes
	}
	return minutes
}

// FormatDuration renders a span as "45 min", "2h" or "1h 30m".
func FormatDuration(start, end time.Time) string {
	total := int(end.Sub(start) / time.Minute)
	if total < 0 {
		total = 0
	}
	if total < 60 {
		return strconv.Itoa(total) + " min"
	}
	h, m := total/60, total%60
	if m == 0 {
		return strconv.Itoa(h) + "h"
	}
	return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m"
}

// Preset is a one-click template offered when creating an event.
type Preset struct {
	Key             string `json:"key"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Presets lists the built-in quick templates.
func Presets() []Preset {
	return []Preset{
		{Key: "sleep", Title: "Sommeil", Category: "sleep", DurationMinutes: 8 * 60},
		{Key: "meal", Title: "Repas", Category: "meal", DurationMinutes: 60},
		{Key: "sport", Title: "Sport", Category: "sport", DurationMinutes: 90},
	}
}

// PresetByKey returns the preset with the given key.
func PresetByKey(key string) (Preset, bool) {
	for _, p := range Presets() {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}
