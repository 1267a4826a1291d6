package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"kplanning/internal/category"
	appLog "kplanning/internal/log"
	"kplanning/internal/model"
	"kplanning/internal/timeutil"
)

// IdeaMIME is the drag-and-drop payload type of an idea card dropped on
// the timeline.
const IdeaMIME = "application/x-kplanning-unscheduled"

//go:embed views/*.html
var embeddedViews embed.FS

func newViews() *html.Engine {
	sub, err := fs.Sub(embeddedViews, "views")
	if err != nil {
		appLog.Error("failed to initialize embedded views", err)
		sub = embeddedViews
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("px", func(v float64) string { return fmt.Sprintf("%.1fpx", v) })
	engine.AddFunc("pct", func(v float64) string { return fmt.Sprintf("%.4f%%", v) })
	engine.AddFunc("mulInt", func(a, b int) int { return a * b })
	engine.AddFunc("hhmm", func(t time.Time) string { return t.Format("15:04") })
	return engine
}

type categoryView struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Accent  string `json:"accent"`
	Default bool   `json:"default"`
}

func (s *Server) categoryViews() []categoryView {
	cats := s.store.Categories()
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryView{
			Key:     c,
			Label:   category.Label(c),
			Accent:  category.Accent(c),
			Default: category.IsDefault(c),
		})
	}
	return out
}

type boardEvent struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	Duration string
	Label    string
	Color    string
	TitleCol string
	Top      float64
	Height   float64
	Left     float64
	Width    float64
}

type boardDay struct {
	Date    time.Time
	Label   string
	Today   bool
	Outside bool // month view padding
	Events  []boardEvent
}

type ideaView struct {
	model.UnscheduledEvent
	Accent   string
	Duration string
}

// GET /board?date=YYYY-MM-DD&view=day|week|month
func (s *Server) handleBoard(c *fiber.Ctx) error {
	day, err := s.parseDay(c, "date")
	if err != nil {
		return err
	}
	view := c.Query("view", "day")

	weekStart := timeutil.ParseWeekStart(s.cfg.WeekStart)
	dates := []time.Time{day}
	prev, next := timeutil.AddDays(day, -1), timeutil.AddDays(day, 1)
	switch view {
	case "week":
		dates = timeutil.Week(day, weekStart)
		prev, next = timeutil.AddDays(day, -7), timeutil.AddDays(day, 7)
	case "month":
		dates = timeutil.MonthGrid(day, weekStart)
		prev, next = day.AddDate(0, -1, 0), day.AddDate(0, 1, 0)
	default:
		view = "day"
	}

	now := s.now()
	days := make([]boardDay, 0, len(dates))
	for _, d := range dates {
		bd := s.boardDay(d, now)
		bd.Outside = d.Month() != day.Month()
		days = append(days, bd)
	}

	ideas := make([]ideaView, 0)
	for _, idea := range s.store.Ideas() {
		ideas = append(ideas, ideaView{
			UnscheduledEvent: idea,
			Accent:           colorOr(idea.Color, category.Accent(idea.Category)),
			Duration:         model.FormatDuration(time.Time{}, time.Time{}.Add(time.Duration(idea.DurationMinutes)*time.Minute)),
		})
	}

	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}

	return c.Render("board", fiber.Map{
		"View":       view,
		"Date":       day.Format("2006-01-02"),
		"Month":      day.Format("January 2006"),
		"Prev":       prev.Format("2006-01-02"),
		"Next":       next.Format("2006-01-02"),
		"Days":       days,
		"Ideas":      ideas,
		"Categories": s.categoryViews(),
		"Hours":      hours,
		"HourPx":     s.cfg.PixelsPerHour,
		"DayPx":      s.cfg.PixelsPerHour * 24,
		"IdeaMIME":   IdeaMIME,
	})
}

func (s *Server) boardDay(d, now time.Time) boardDay {
	laid := s.buildDay(d)
	out := boardDay{
		Date:   laid.Date,
		Label:  laid.Date.Format("Mon 02 Jan"),
		Today:  timeutil.SameDay(laid.Date, now),
		Events: make([]boardEvent, 0, len(laid.Events)),
	}
	for _, p := range laid.Events {
		ev := p.Event
		out.Events = append(out.Events, boardEvent{
			ID:       ev.ID,
			Title:    ev.Title,
			Start:    ev.Start,
			End:      ev.End,
			Duration: model.FormatDuration(ev.Start, ev.End),
			Label:    category.Label(ev.Category),
			Color:    colorOr(ev.Color, category.Accent(ev.Category)),
			TitleCol: colorOr(ev.TitleColor, "#ffffff"),
			Top:      p.Box.Top,
			Height:   p.Box.Height,
			Left:     p.Box.Left,
			Width:    p.Box.Width,
		})
	}
	return out
}

// colorOr picks v or fallback and returns it as #rrggbb, since
// html/template refuses hsl() inside style attributes.
func colorOr(v, fallback string) string {
	if v == "" {
		v = fallback
	}
	hex, err := category.Hex(v)
	if err != nil {
		return category.Accent(category.Other)
	}
	return hex
}
