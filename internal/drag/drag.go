// Package drag turns pointer gestures on the board into snapped time
// changes. It is a small state machine, Idle -> Dragging(Move|Resize) ->
// Idle, driven by Press, Move and Release.
package drag

import (
	"errors"
	"math"
	"sync"
	"time"

	appLog "kplanning/internal/log"
	"kplanning/internal/model"
	"kplanning/internal/timeutil"
)

const (
	DefaultSnapMinutes = 15
	// MinResizeMinutes is the shortest duration a resize can produce.
	MinResizeMinutes = 15
	// MoveThresholdPx is the pointer travel above which a gesture counts as
	// a drag for click suppression.
	MoveThresholdPx = 3
	// SuppressWindow is how long clicks stay suppressed after a drag.
	SuppressWindow = 200 * time.Millisecond
)

var ErrNotDragging = errors.New("drag: no drag in progress")

// Kind tells whether a gesture moves the whole event or drags its bottom
// edge.
type Kind string

const (
	Move   Kind = "move"
	Resize Kind = "resize"
)

// Updater receives the single update emitted by a completed drag.
type Updater interface {
	UpdateEvent(ev model.CalendarEvent) error
}

// Config holds the view scale and snapping granularity.
type Config struct {
	PixelsPerMinute float64
	SnapMinutes     int
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Session is the snapshot captured on press.
type Session struct {
	Event        model.CalendarEvent
	Kind         Kind
	InitialY     float64
	InitialStart time.Time
	InitialEnd   time.Time
	CurrentY     float64
}

// Result describes what a Release did.
type Result struct {
	DeltaMinutes int
	// Emitted is false when the snapped delta was zero.
	Emitted bool
	Event   model.CalendarEvent
}

// Geometry is the live preview position of the dragged event, in pixels
// from the top of its day.
type Geometry struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Engine owns the drag state. The mutex lets a server share one engine
// across handlers; gestures are still expected to arrive in order.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	updater Updater

	session    *Session
	moved      bool
	lastDragAt time.Time
}

// NewEngine returns an idle engine writing through updater.
func NewEngine(cfg Config, updater Updater) *Engine {
	if cfg.PixelsPerMinute <= 0 {
		cfg.PixelsPerMinute = 1
	}
	if cfg.SnapMinutes <= 0 {
		cfg.SnapMinutes = DefaultSnapMinutes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg, updater: updater}
}

// SnapDelta converts a pointer delta into minutes rounded to the nearest
// multiple of snapMinutes. Halves round up, as pointer code usually does.
func SnapDelta(deltaPx, pixelsPerMinute float64, snapMinutes int) int {
	steps := math.Floor(deltaPx/pixelsPerMinute/float64(snapMinutes) + 0.5)
	return int(steps) * snapMinutes
}

// Press starts a gesture on ev at pointer position y. A press while a
// drag is active replaces the old session.
func (e *Engine) Press(ev model.CalendarEvent, kind Kind, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if kind != Resize {
		kind = Move
	}
	e.moved = false
	e.session = &Session{
		Event:        ev,
		Kind:         kind,
		InitialY:     y,
		InitialStart: ev.Start,
		InitialEnd:   ev.End,
		CurrentY:     y,
	}
	appLog.Debug("drag press", "id", ev.ID, "kind", string(kind), "y", y)
}

// Move records the latest pointer position. It is a no-op while idle.
func (e *Engine) Move(y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return
	}
	if math.Abs(y-e.session.InitialY) > MoveThresholdPx {
		e.moved = true
	}
	e.session.CurrentY = y
}

// Release ends the gesture. A non-zero snapped delta emits exactly one
// UpdateEvent call; the engine returns to idle even if that call fails.
func (e *Engine) Release() (Result, error) {
	e.mu.Lock()
	s := e.session
	if s == nil {
		e.mu.Unlock()
		return Result{}, ErrNotDragging
	}
	e.session = nil
	if e.moved {
		e.lastDragAt = e.cfg.Now()
	}
	e.moved = false
	e.mu.Unlock()

	delta := e.delta(s)
	if delta == 0 {
		appLog.Debug("drag released without change", "id", s.Event.ID)
		return Result{}, nil
	}

	start, end := apply(s, delta)
	updated := s.Event
	updated.Start = start
	updated.End = end

	res := Result{DeltaMinutes: delta, Emitted: true, Event: updated}
	if e.updater != nil {
		if err := e.updater.UpdateEvent(updated); err != nil {
			return res, err
		}
	}
	appLog.Info("drag applied", "id", updated.ID, "kind", string(s.Kind), "delta_minutes", delta)
	return res, nil
}

// Preview returns the in-progress geometry of the dragged event without
// touching stored state. ok is false while idle.
func (e *Engine) Preview() (Geometry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s == nil {
		return Geometry{}, false
	}
	delta := e.delta(s)

	startMin := timeutil.MinutesSinceMidnight(s.InitialStart)
	durMin := int(s.InitialEnd.Sub(s.InitialStart) / time.Minute)
	if s.Kind == Move {
		startMin += delta
	} else {
		durMin += delta
		if durMin < MinResizeMinutes {
			durMin = MinResizeMinutes
		}
	}

	ppm := e.cfg.PixelsPerMinute
	return Geometry{Top: float64(startMin) * ppm, Height: float64(durMin) * ppm}, true
}

// Session returns a copy of the active session.
func (e *Engine) Session() (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// Dragging reports whether a gesture is in progress.
func (e *Engine) Dragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

// DragJustCompleted reports whether a click arriving now belongs to a
// drag: true while dragging and for SuppressWindow after a drag that
// moved more than MoveThresholdPx.
func (e *Engine) DragJustCompleted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		return true
	}
	if e.lastDragAt.IsZero() {
		return false
	}
	return e.cfg.Now().Sub(e.lastDragAt) < SuppressWindow
}

func (e *Engine) delta(s *Session) int {
	return SnapDelta(s.CurrentY-s.InitialY, e.cfg.PixelsPerMinute, e.cfg.SnapMinutes)
}

func apply(s *Session, deltaMinutes int) (time.Time, time.Time) {
	shift := time.Duration(deltaMinutes) * time.Minute
	if s.Kind == Move {
		return s.InitialStart.Add(shift), s.InitialEnd.Add(shift)
	}

	start := s.InitialStart
	end := s.InitialEnd.Add(shift)
	if end.Sub(start) < MinResizeMinutes*time.Minute {
		end = start.Add(MinResizeMinutes * time.Minute)
	}
	return start, end
}
