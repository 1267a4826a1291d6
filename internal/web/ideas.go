package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"kplanning/internal/model"
)

// GET /api/ideas
func (s *Server) handleListIdeas(c *fiber.Ctx) error {
	ideas := s.store.Ideas()
	return c.JSON(fiber.Map{"data": ideas, "meta": fiber.Map{"count": len(ideas)}})
}

// POST /api/ideas
func (s *Server) handleCreateIdea(c *fiber.Ctx) error {
	var idea model.UnscheduledEvent
	if err := c.BodyParser(&idea); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	idea.ID = ""
	created, err := s.store.AddIdea(idea)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// PUT /api/ideas/:id
func (s *Server) handleUpdateIdea(c *fiber.Ctx) error {
	var idea model.UnscheduledEvent
	if err := c.BodyParser(&idea); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	idea.ID = c.Params("id")
	updated, err := s.store.UpdateIdea(idea)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// DELETE /api/ideas/:id
func (s *Server) handleDeleteIdea(c *fiber.Ctx) error {
	if err := s.store.RemoveIdea(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/ideas/:id/schedule {"start": RFC3339}
func (s *Server) handleScheduleIdea(c *fiber.Ctx) error {
	var req struct {
		Start time.Time `json:"start"`
	}
	if err := c.BodyParser(&req); err != nil || req.Start.IsZero() {
		return fiber.NewError(fiber.StatusBadRequest, "start is required")
	}
	segs, err := s.store.ScheduleIdea(c.Params("id"), req.Start)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": segs})
}

// GET /api/categories
func (s *Server) handleListCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": s.categoryViews()})
}

// POST /api/categories {"name": "..."}
func (s *Server) handleAddCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	added, err := s.store.AddCategory(req.Name)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	status := fiber.StatusOK
	if added {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"added": added, "data": s.categoryViews()})
}

// GET /api/presets
func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": model.Presets()})
}

// POST /api/presets/:key/idea parks a preset in the ideas list.
func (s *Server) handlePresetIdea(c *fiber.Ctx) error {
	p, ok := model.PresetByKey(c.Params("key"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown preset")
	}
	created, err := s.store.AddIdea(model.UnscheduledEvent{
		Title:           p.Title,
		Category:        p.Category,
		DurationMinutes: p.DurationMinutes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// GET /api/status returns the running and the upcoming event.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	now := s.now()
	resp := fiber.Map{"now": now}
	if cur, ok := s.store.CurrentEvent(now); ok {
		resp["current"] = cur
	}
	if next, ok := s.store.NextEvent(now); ok {
		resp["next"] = next
	}
	return c.JSON(resp)
}
