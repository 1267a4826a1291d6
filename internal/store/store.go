// Package store is the single owner of the board state: scheduled events,
// unscheduled ideas and custom categories. Every write of a scheduled
// event goes through the splitter, so no stored record ever spans more
// than one calendar day.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"kplanning/internal/category"
	appLog "kplanning/internal/log"
	"kplanning/internal/model"
	"kplanning/internal/split"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrInvalidSpan = model.ErrInvalidSpan
	ErrEmptyTitle  = model.ErrEmptyTitle
)

// Store is an in-memory board guarded by a RWMutex.
type Store struct {
	mu          sync.RWMutex
	events      []model.CalendarEvent
	unscheduled []model.UnscheduledEvent
	categories  []string

	newID    split.IDFunc
	revision uint64
}

// Option customizes a Store.
type Option func(*Store)

// WithIDFunc replaces the uuid generator, mainly for tests.
func WithIDFunc(f split.IDFunc) Option {
	return func(s *Store) {
		if f != nil {
			s.newID = f
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{newID: split.NewID}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewID returns a fresh id from the store's generator.
func (s *Store) NewID() string {
	return s.newID()
}

// Revision increases on every successful mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// AddEvent validates ev, splits it and appends every segment. An empty ID
// is filled in.
func (s *Store) AddEvent(ev model.CalendarEvent) ([]model.CalendarEvent, error) {
	if err := model.ValidateSpan(ev.Start, ev.End); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEvents(s.addLocked(ev)), nil
}

// addLocked splits ev in local time and appends the segments. The caller
// holds s.mu and has validated the span.
func (s *Store) addLocked(ev model.CalendarEvent) []model.CalendarEvent {
	ev = localize(ev)
	if ev.ID == "" {
		ev.ID = s.newID()
	}
	segments := split.Event(ev, s.newID)
	s.events = append(s.events, segments...)
	s.revision++

	appLog.Debug("event added", "id", ev.ID, "segments", len(segments))
	return segments
}

// localize moves ev onto the local wall clock. Days are split on local
// midnight whatever offset the caller sent.
func localize(ev model.CalendarEvent) model.CalendarEvent {
	ev.Start = ev.Start.Local()
	ev.End = ev.End.Local()
	return ev
}

// UpdateEvent removes the records with ev.ID, then splits ev and appends
// the result. Other segments of the same group are left untouched.
func (s *Store) UpdateEvent(ev model.CalendarEvent) error {
	if err := model.ValidateSpan(ev.Start, ev.End); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	removed := 0
	for _, e := range s.events {
		if e.ID == ev.ID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		s.events = kept
		return ErrNotFound
	}
	s.events = append(kept, split.Event(localize(ev), s.newID)...)
	s.revision++

	appLog.Debug("event updated", "id", ev.ID)
	return nil
}

// DeleteEvent removes the record with the given id.
func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			s.revision++
			return nil
		}
	}
	return ErrNotFound
}

// ImportResult reports how an import went.
type ImportResult struct {
	Imported int `json:"imported"` // source records accepted
	Segments int `json:"segments"` // stored records after splitting
	Skipped  int `json:"skipped"`  // records rejected for an invalid span
}

// ImportEvents replaces all scheduled events with events, split per day.
// Records with an invalid span are skipped; missing ids are generated.
func (s *Store) ImportEvents(events []model.CalendarEvent) ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ImportResult
	next := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if err := model.ValidateSpan(ev.Start, ev.End); err != nil {
			res.Skipped++
			appLog.Warn("import: skipping event with invalid span", "id", ev.ID, "title", ev.Title)
			continue
		}
		if ev.ID == "" {
			ev.ID = s.newID()
		}
		next = append(next, split.Event(localize(ev), s.newID)...)
		res.Imported++
	}
	res.Segments = len(next)

	s.events = next
	s.revision++

	appLog.Info("events imported", "imported", res.Imported, "segments", res.Segments, "skipped", res.Skipped)
	return res
}

// Events returns a copy of every scheduled record, in storage order.
func (s *Store) Events() []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.events)
}

// Event returns the record with the given id.
func (s *Store) Event(id string) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return model.CalendarEvent{}, false
}

// Between returns the records overlapping [from, to), in no particular
// order.
func (s *Store) Between(from, to time.Time) []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CalendarEvent, 0)
	for _, e := range s.events {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	return out
}

// Group returns every record sharing splitID, in start order.
func (s *Store) Group(splitID string) []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CalendarEvent, 0)
	for _, e := range s.events {
		if splitID != "" && e.SplitID == splitID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// CopyEvent duplicates a record under a fresh id, detached from its group.
func (s *Store) CopyEvent(id string) ([]model.CalendarEvent, error) {
	src, ok := s.Event(id)
	if !ok {
		return nil, ErrNotFound
	}
	src.ID = ""
	src.SplitID = ""
	return s.AddEvent(src)
}

// CurrentEvent returns the first record running at now (bounds inclusive).
func (s *Store) CurrentEvent(now time.Time) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if !e.Start.After(now) && !e.End.Before(now) {
			return e, true
		}
	}
	return model.CalendarEvent{}, false
}

// NextEvent returns the record with the earliest start strictly after now.
func (s *Store) NextEvent(now time.Time) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  model.CalendarEvent
		found bool
	)
	for _, e := range s.events {
		if !e.Start.After(now) {
			continue
		}
		if !found || e.Start.Before(best.Start) {
			best = e
			found = true
		}
	}
	return best, found
}

// Categories returns the built-in categories followed by the custom ones.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return category.Options(s.categories)
}

// AddCategory registers a custom category. It reports false when name
// already exists, compared case-insensitively, as a built-in or custom.
func (s *Store) AddCategory(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.New("store: category name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range category.Options(s.categories) {
		if strings.EqualFold(c, name) {
			return false, nil
		}
	}
	s.categories = append(s.categories, name)
	s.revision++
	return true, nil
}

func cloneEvents(in []model.CalendarEvent) []model.CalendarEvent {
	return append([]model.CalendarEvent(nil), in...)
}
