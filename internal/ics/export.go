// Package ics converts the board to and from iCalendar.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"kplanning/internal/model"
)

const productID = "-//kplanning//board//EN"

// Non-standard properties that carry board-only fields through a
// round trip.
const (
	propSplitID    = ical.ComponentProperty("X-KPLANNING-SPLIT-ID")
	propTitleColor = ical.ComponentProperty("X-KPLANNING-TITLE-COLOR")
)

// Export serializes events as a VCALENDAR with one VEVENT per stored
// record. Segments of a split event stay separate VEVENTs and keep their
// group in X-KPLANNING-SPLIT-ID.
func Export(events []model.CalendarEvent, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, ev.Category)
		}
		if ev.Color != "" {
			ve.SetProperty(ical.ComponentPropertyColor, ev.Color)
		}
		if ev.TitleColor != "" {
			ve.SetProperty(propTitleColor, ev.TitleColor)
		}
		if ev.SplitID != "" {
			ve.SetProperty(propSplitID, ev.SplitID)
		}
	}

	return cal.Serialize()
}
