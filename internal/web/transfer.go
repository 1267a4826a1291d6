package web

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"kplanning/internal/ics"
	"kplanning/internal/model"
	"kplanning/internal/store"
)

// GET /api/export returns the whole board as a snapshot document.
func (s *Server) handleExportJSON(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="kplanning.json"`)
	return c.JSON(s.store.Snapshot())
}

// POST /api/import accepts either a bare event array or a snapshot
// document, and replaces every scheduled event with its content.
func (s *Server) handleImportJSON(c *fiber.Ctx) error {
	body := c.Body()
	var events []model.CalendarEvent
	if err := c.App().Config().JSONDecoder(body, &events); err != nil {
		var snap store.Snapshot
		if err := c.App().Config().JSONDecoder(body, &snap); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected an event array or a snapshot")
		}
		events = snap.Events
	}
	return c.JSON(s.store.ImportEvents(events))
}

// GET /api/export.ics
func (s *Server) handleExportICS(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="kplanning.ics"`)
	return c.SendString(ics.Export(s.store.Events(), s.now()))
}

// POST /api/import.ics replaces the events with a calendar. The payload
// is the raw .ics body, or ?url= to fetch one.
func (s *Server) handleImportICS(c *fiber.Ctx) error {
	body := c.Body()
	if u := c.Query("url"); u != "" {
		ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
		defer cancel()
		fetched, err := s.fetcher.Fetch(ctx, u)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		body = fetched
	}

	events, stats, err := ics.Parse(body, ics.ParseOptions{Now: s.now})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res := s.store.ImportEvents(events)
	return c.JSON(fiber.Map{"result": res, "parse": stats})
}
