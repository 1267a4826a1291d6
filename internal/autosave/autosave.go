// Package autosave writes the board snapshot on a cron schedule whenever
// it changed since the last write.
package autosave

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "kplanning/internal/log"
)

// Board is the part of the store autosave needs.
type Board interface {
	Revision() uint64
	Save(path string) error
}

// Saver persists a Board to a fixed path.
type Saver struct {
	board Board
	path  string

	mu    sync.Mutex
	saved uint64
	cron  *cron.Cron
}

// New returns a Saver. The current revision counts as already saved,
// since the board was just loaded from path.
func New(board Board, path string) *Saver {
	return &Saver{board: board, path: path, saved: board.Revision()}
}

// SaveIfChanged writes the snapshot when the revision moved. It reports
// whether a write happened.
func (s *Saver) SaveIfChanged() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.board.Revision()
	if rev == s.saved {
		return false, nil
	}
	if err := s.board.Save(s.path); err != nil {
		return false, fmt.Errorf("autosave: %w", err)
	}
	s.saved = rev
	appLog.Debug("board saved", "path", s.path, "revision", rev)
	return true, nil
}

// Start schedules SaveIfChanged on spec (standard 5-field cron or a
// descriptor such as "@every 1m").
func (s *Saver) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.SaveIfChanged(); err != nil {
			appLog.Error("autosave failed", err, "path", s.path)
		}
	}); err != nil {
		return fmt.Errorf("autosave: schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	appLog.Info("autosave scheduled", "spec", spec, "path", s.path)
	return nil
}

// Stop halts the schedule and flushes pending changes.
func (s *Saver) Stop() error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	_, err := s.SaveIfChanged()
	return err
}
