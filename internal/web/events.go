package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"kplanning/internal/layout"
	"kplanning/internal/model"
	"kplanning/internal/recur"
	"kplanning/internal/timeutil"
)

// eventRequest is the create/update payload. Repeat fields only apply to
// the request; they are never stored.
type eventRequest struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	TitleColor  string    `json:"titleColor"`
	SplitID     string    `json:"splitId"`
	Repeat      string    `json:"repeat"`
	RepeatCount int       `json:"repeatCount"`
}

func (r eventRequest) event(id string) model.CalendarEvent {
	cat := r.Category
	if cat == "" {
		cat = "other"
	}
	return model.CalendarEvent{
		ID:          id,
		Title:       r.Title,
		Start:       r.Start.Local(),
		End:         r.End.Local(),
		Category:    cat,
		Description: r.Description,
		Color:       r.Color,
		TitleColor:  r.TitleColor,
		SplitID:     r.SplitID,
	}
}

func (r eventRequest) rule() recur.Rule {
	return recur.Rule{Repeat: recur.ParseRepeat(r.Repeat), Count: r.RepeatCount}
}

// GET /api/events?from=YYYY-MM-DD&to=YYYY-MM-DD
//
// Without parameters every record is returned. With only from, the single
// day is returned. to is inclusive.
func (s *Server) handleListEvents(c *fiber.Ctx) error {
	if c.Query("from") == "" && c.Query("to") == "" {
		events := s.store.Events()
		return c.JSON(fiber.Map{"data": events, "meta": fiber.Map{"count": len(events)}})
	}

	from, err := s.parseDay(c, "from")
	if err != nil {
		return err
	}
	to := from
	if c.Query("to") != "" {
		if to, err = s.parseDay(c, "to"); err != nil {
			return err
		}
	}
	if to.Before(from) {
		return fiber.NewError(fiber.StatusBadRequest, "to is before from")
	}

	windowStart, _ := layout.DayWindow(from)
	_, windowEnd := layout.DayWindow(to)
	events := s.store.Between(windowStart, windowEnd)
	return c.JSON(fiber.Map{"data": events, "meta": fiber.Map{"count": len(events)}})
}

// POST /api/events
//
// With repeat=daily|weekly, repeatCount occurrences (0..n-1) are created,
// each as an independent event.
func (s *Server) handleCreateEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := model.ValidateSpan(req.Start, req.End); err != nil {
		return err
	}

	base := req.event(s.store.NewID())
	base.SplitID = ""
	occurrences := []model.CalendarEvent{base}
	if rule := req.rule(); rule.Active() {
		var err error
		if occurrences, err = recur.Expand(base, rule, false, s.store.NewID); err != nil {
			return err
		}
	}

	created := make([]model.CalendarEvent, 0, len(occurrences))
	for _, ev := range occurrences {
		segs, err := s.store.AddEvent(ev)
		if err != nil {
			return err
		}
		created = append(created, segs...)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// PUT /api/events/:id
//
// With a repeat rule, the event itself is updated and repeatCount copies
// are added after it.
func (s *Server) handleUpdateEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	ev := req.event(c.Params("id"))
	if err := s.store.UpdateEvent(ev); err != nil {
		return err
	}

	added := make([]model.CalendarEvent, 0)
	if rule := req.rule(); rule.Active() {
		copies, err := recur.Expand(ev, rule, true, s.store.NewID)
		if err != nil {
			return err
		}
		for _, cp := range copies {
			segs, err := s.store.AddEvent(cp)
			if err != nil {
				return err
			}
			added = append(added, segs...)
		}
	}
	return c.JSON(fiber.Map{"data": ev, "added": added})
}

// DELETE /api/events/:id
func (s *Server) handleDeleteEvent(c *fiber.Ctx) error {
	if err := s.store.DeleteEvent(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/events/:id/copy
func (s *Server) handleCopyEvent(c *fiber.Ctx) error {
	segs, err := s.store.CopyEvent(c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": segs})
}

// GET /api/layout?date=YYYY-MM-DD
func (s *Server) handleLayout(c *fiber.Ctx) error {
	day, err := s.parseDay(c, "date")
	if err != nil {
		return err
	}
	return c.JSON(s.buildDay(day))
}

func (s *Server) buildDay(day time.Time) layout.Day {
	start, end := layout.DayWindow(timeutil.StartOfDay(day))
	return layout.BuildDay(start, s.store.Between(start, end), s.cfg.PixelsPerMinute())
}
