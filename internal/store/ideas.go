package store

import (
	"strings"
	"time"

	appLog "kplanning/internal/log"
	"kplanning/internal/model"
)

// Ideas returns the unscheduled items in insertion order.
func (s *Store) Ideas() []model.UnscheduledEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.UnscheduledEvent(nil), s.unscheduled...)
}

// AddIdea stores a new unscheduled item. The title is trimmed and must
// not be empty; the duration is normalized.
func (s *Store) AddIdea(idea model.UnscheduledEvent) (model.UnscheduledEvent, error) {
	idea, err := normalizeIdea(idea)
	if err != nil {
		return model.UnscheduledEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idea.ID == "" {
		idea.ID = s.newID()
	}
	s.unscheduled = append(s.unscheduled, idea)
	s.revision++
	return idea, nil
}

// UpdateIdea replaces the item with the same id.
func (s *Store) UpdateIdea(idea model.UnscheduledEvent) (model.UnscheduledEvent, error) {
	idea, err := normalizeIdea(idea)
	if err != nil {
		return model.UnscheduledEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.unscheduled {
		if s.unscheduled[i].ID == idea.ID {
			s.unscheduled[i] = idea
			s.revision++
			return idea, nil
		}
	}
	return model.UnscheduledEvent{}, ErrNotFound
}

// RemoveIdea deletes the item with the given id.
func (s *Store) RemoveIdea(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.unscheduled {
		if s.unscheduled[i].ID == id {
			s.unscheduled = append(s.unscheduled[:i], s.unscheduled[i+1:]...)
			s.revision++
			return nil
		}
	}
	return ErrNotFound
}

// ScheduleIdea places the idea at start for its duration, adds the
// resulting event through the splitter and removes the idea, all under
// one lock.
func (s *Store) ScheduleIdea(id string, start time.Time) ([]model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.unscheduled {
		if s.unscheduled[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	ev := s.unscheduled[idx].Place(s.newID(), start)
	if err := model.ValidateSpan(ev.Start, ev.End); err != nil {
		return nil, err
	}
	s.unscheduled = append(s.unscheduled[:idx], s.unscheduled[idx+1:]...)
	segments := s.addLocked(ev)

	appLog.Info("idea scheduled", "idea_id", id, "event_id", ev.ID, "start", start.Format(time.RFC3339))
	return cloneEvents(segments), nil
}

func normalizeIdea(idea model.UnscheduledEvent) (model.UnscheduledEvent, error) {
	idea.Title = strings.TrimSpace(idea.Title)
	if idea.Title == "" {
		return idea, ErrEmptyTitle
	}
	if strings.TrimSpace(idea.Category) == "" {
		idea.Category = "other"
	}
	idea.DurationMinutes = model.NormalizeDuration(idea.DurationMinutes)
	return idea, nil
}
