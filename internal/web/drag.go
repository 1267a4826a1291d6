package web

import (
	"github.com/gofiber/fiber/v2"

	"kplanning/internal/drag"
	"kplanning/internal/store"
)

type pressRequest struct {
	ID   string  `json:"id"`
	Kind string  `json:"kind"` // "move" or "resize"
	Y    float64 `json:"y"`
}

type moveRequest struct {
	Y float64 `json:"y"`
}

// POST /api/drag/press
func (s *Server) handleDragPress(c *fiber.Ctx) error {
	var req pressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	kind := drag.Kind(req.Kind)
	if kind != drag.Move && kind != drag.Resize {
		return fiber.NewError(fiber.StatusBadRequest, "kind must be move or resize")
	}
	ev, ok := s.store.Event(req.ID)
	if !ok {
		return store.ErrNotFound
	}
	s.drag.Press(ev, kind, req.Y)
	return c.JSON(fiber.Map{"dragging": true, "kind": kind, "id": ev.ID})
}

// POST /api/drag/move
func (s *Server) handleDragMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	s.drag.Move(req.Y)
	g, ok := s.drag.Preview()
	if !ok {
		return c.JSON(fiber.Map{"dragging": false})
	}
	return c.JSON(fiber.Map{"dragging": true, "preview": g})
}

// POST /api/drag/release
func (s *Server) handleDragRelease(c *fiber.Ctx) error {
	res, err := s.drag.Release()
	if err != nil {
		return err
	}
	resp := fiber.Map{"deltaMinutes": res.DeltaMinutes, "emitted": res.Emitted}
	if res.Emitted {
		resp["event"] = res.Event
	}
	return c.JSON(resp)
}

// GET /api/drag/preview
func (s *Server) handleDragPreview(c *fiber.Ctx) error {
	g, ok := s.drag.Preview()
	if !ok {
		return c.JSON(fiber.Map{"dragging": false})
	}
	sess, _ := s.drag.Session()
	return c.JSON(fiber.Map{"dragging": true, "id": sess.Event.ID, "kind": sess.Kind, "preview": g})
}

// GET /api/drag/suppress tells the page whether a click that just
// arrived belongs to a drag and must not open the editor.
func (s *Server) handleDragSuppress(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"suppress": s.drag.DragJustCompleted()})
}
