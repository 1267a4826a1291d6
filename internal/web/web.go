// Package web serves the board page and its JSON API.
package web

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"kplanning/internal/config"
	"kplanning/internal/drag"
	"kplanning/internal/ics"
	appLog "kplanning/internal/log"
	"kplanning/internal/store"
)

// Server wires the store and the drag engine to HTTP.
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	store   *store.Store
	drag    *drag.Engine
	fetcher *ics.Fetcher
	now     func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now for status and drag suppression.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFetcher replaces the remote .ics fetcher.
func WithFetcher(f *ics.Fetcher) Option {
	return func(s *Server) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// NewServer constructs a Server with routes and middleware registered.
func NewServer(cfg *config.Config, st *store.Store, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		fetcher: ics.NewFetcher(nil),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	s.drag = drag.NewEngine(drag.Config{
		PixelsPerMinute: cfg.PixelsPerMinute(),
		SnapMinutes:     cfg.SnapMinutes,
		Now:             s.now,
	}, st)

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		Views:                 newViews(),
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{Format: "${time} | ${status} | ${latency} | ${method} ${path}\n"}))
	s.app.Use(cors.New())
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+cfg.Listen)
		s.app.Use(basicauth.New(basicauth.Config{
			Next:  func(c *fiber.Ctx) bool { return c.Path() == "/health" },
			Users: map[string]string{cfg.BasicAuth.Username: cfg.BasicAuth.Password},
			Realm: "kplanning",
		}))
	}

	s.registerRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on cfg.Listen until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.app.Shutdown()
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	return s.app.Listen(s.cfg.Listen)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/board")
	})
	s.app.Get("/board", s.handleBoard)

	api := s.app.Group("/api")

	api.Get("/events", s.handleListEvents)
	api.Post("/events", s.handleCreateEvent)
	api.Put("/events/:id", s.handleUpdateEvent)
	api.Delete("/events/:id", s.handleDeleteEvent)
	api.Post("/events/:id/copy", s.handleCopyEvent)
	api.Get("/layout", s.handleLayout)

	api.Post("/drag/press", s.handleDragPress)
	api.Post("/drag/move", s.handleDragMove)
	api.Post("/drag/release", s.handleDragRelease)
	api.Get("/drag/preview", s.handleDragPreview)
	api.Get("/drag/suppress", s.handleDragSuppress)

	api.Get("/ideas", s.handleListIdeas)
	api.Post("/ideas", s.handleCreateIdea)
	api.Put("/ideas/:id", s.handleUpdateIdea)
	api.Delete("/ideas/:id", s.handleDeleteIdea)
	api.Post("/ideas/:id/schedule", s.handleScheduleIdea)

	api.Get("/categories", s.handleListCategories)
	api.Post("/categories", s.handleAddCategory)
	api.Get("/presets", s.handlePresets)
	api.Post("/presets/:key/idea", s.handlePresetIdea)
	api.Get("/status", s.handleStatus)

	api.Get("/export", s.handleExportJSON)
	api.Post("/import", s.handleImportJSON)
	api.Get("/export.ics", s.handleExportICS)
	api.Post("/import.ics", s.handleImportICS)
}

// errorHandler maps sentinel errors to status codes and renders
// {"error": "..."} for every failed request.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, store.ErrInvalidSpan), errors.Is(err, store.ErrEmptyTitle):
		code = fiber.StatusBadRequest
	case errors.Is(err, drag.ErrNotDragging):
		code = fiber.StatusConflict
	}

	if code >= fiber.StatusInternalServerError {
		appLog.Error("request failed", err, "method", c.Method(), "path", c.Path())
	}

	if !strings.HasPrefix(c.Path(), "/api") && code == fiber.StatusNotFound {
		return c.Status(code).SendString("Not Found")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// parseDay reads a YYYY-MM-DD query value as a local day, defaulting to
// today.
func (s *Server) parseDay(c *fiber.Ctx, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+": expected YYYY-MM-DD")
	}
	return d, nil
}
