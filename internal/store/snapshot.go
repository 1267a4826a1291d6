package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	appLog "kplanning/internal/log"
	"kplanning/internal/model"
	"kplanning/internal/split"
)

// Snapshot is the on-disk JSON shape of a board.
type Snapshot struct {
	Events      []model.CalendarEvent    `json:"events"`
	Unscheduled []model.UnscheduledEvent `json:"unscheduled"`
	Categories  []string                 `json:"categories"`
}

// Snapshot returns a copy of the whole board.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Events:      cloneEvents(s.events),
		Unscheduled: append([]model.UnscheduledEvent{}, s.unscheduled...),
		Categories:  append([]string{}, s.categories...),
	}
}

// Restore replaces the board with snap. Events pass through the splitter
// like any other write; invalid spans are dropped.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]model.CalendarEvent, 0, len(snap.Events))
	for _, ev := range snap.Events {
		if model.ValidateSpan(ev.Start, ev.End) != nil {
			appLog.Warn("restore: dropping event with invalid span", "id", ev.ID)
			continue
		}
		events = append(events, split.Event(localize(ev), s.newID)...)
	}
	s.events = events
	s.unscheduled = append([]model.UnscheduledEvent(nil), snap.Unscheduled...)
	s.categories = append([]string(nil), snap.Categories...)
	s.revision++
}

// Load restores the board from a JSON snapshot. A missing file leaves the
// store empty and is not an error.
func (s *Store) Load(path string) error {
	if path == "" {
		return errors.New("store: snapshot path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("no snapshot found, starting with an empty board", "path", path)
			return nil
		}
		return fmt.Errorf("store: read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("store: decode snapshot: %w", err)
	}
	s.Restore(snap)

	appLog.Info("snapshot loaded", "path", path, "events", len(snap.Events), "ideas", len(snap.Unscheduled))
	return nil
}

// Save writes the board to path atomically (temp file + rename, 0600).
func (s *Store) Save(path string) error {
	if path == "" {
		return errors.New("store: snapshot path is empty")
	}

	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".kplanning-board-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
