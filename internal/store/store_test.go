package store

import (
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"kplanning/internal/model"
)

func newTestStore() *Store {
	n := 0
	return New(WithIDFunc(func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}))
}

func at(d, h, m int) time.Time {
	return time.Date(2024, 1, d, h, m, 0, 0, time.Local)
}

func TestAddEventSplitsMultiDaySpans(t *testing.T) {
	s := newTestStore()
	segs, err := s.AddEvent(model.CalendarEvent{ID: "trip", Title: "Trip", Start: at(1, 22, 0), End: at(3, 2, 0), Category: "leisure"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(segs) != 3 || len(s.Events()) != 3 {
		t.Fatalf("expected 3 stored segments, got %d/%d", len(segs), len(s.Events()))
	}
	if got := s.Group("trip"); len(got) != 3 || got[0].ID != "trip" {
		t.Fatalf("unexpected group %+v", got)
	}
}

func TestAddEventRejectsInvalidSpan(t *testing.T) {
	s := newTestStore()
	_, err := s.AddEvent(model.CalendarEvent{ID: "x", Start: at(1, 10, 0), End: at(1, 10, 0)})
	if !errors.Is(err, ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan, got %v", err)
	}
	if len(s.Events()) != 0 {
		t.Fatal("invalid event must not be stored")
	}
	if s.Revision() != 0 {
		t.Fatal("rejected write must not bump the revision")
	}
}

func TestAddEventFillsMissingID(t *testing.T) {
	s := newTestStore()
	segs, err := s.AddEvent(model.CalendarEvent{Title: "No id", Start: at(1, 9, 0), End: at(1, 10, 0)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if segs[0].ID != "id-1" {
		t.Fatalf("expected generated id, got %q", segs[0].ID)
	}
}

func TestUpdateEventResplits(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddEvent(model.CalendarEvent{ID: "a", Title: "A", Start: at(1, 9, 0), End: at(1, 10, 0)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	moved := model.CalendarEvent{ID: "a", Title: "A", Start: at(1, 23, 0), End: at(2, 1, 0)}
	if err := s.UpdateEvent(moved); err != nil {
		t.Fatalf("update: %v", err)
	}
	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 segments after update, got %d", len(events))
	}
	if events[0].ID != "a" || events[0].SplitID != "a" || events[1].SplitID != "a" {
		t.Fatalf("unexpected segments %+v", events)
	}

	back := model.CalendarEvent{ID: "a", Title: "A", SplitID: "a", Start: at(1, 8, 0), End: at(1, 9, 0)}
	if err := s.UpdateEvent(back); err != nil {
		t.Fatalf("update: %v", err)
	}
	// Only the record with id "a" is replaced; the day-2 segment stays.
	if got := len(s.Events()); got != 2 {
		t.Fatalf("expected 2 records, got %d", got)
	}
}

func TestUpdateMissingEvent(t *testing.T) {
	s := newTestStore()
	err := s.UpdateEvent(model.CalendarEvent{ID: "ghost", Start: at(1, 9, 0), End: at(1, 10, 0)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImportReplacesAndSkipsInvalid(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddEvent(model.CalendarEvent{ID: "old", Start: at(1, 9, 0), End: at(1, 10, 0)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	res := s.ImportEvents([]model.CalendarEvent{
		{ID: "n1", Start: at(2, 9, 0), End: at(2, 10, 0)},
		{ID: "n2", Start: at(2, 20, 0), End: at(3, 4, 0)},
		{ID: "bad", Start: at(2, 9, 0), End: at(2, 8, 0)},
	})
	if res.Imported != 2 || res.Segments != 3 || res.Skipped != 1 {
		t.Fatalf("unexpected import result %+v", res)
	}
	if _, ok := s.Event("old"); ok {
		t.Fatal("import must replace existing events")
	}
}

func TestBetweenReturnsOverlappingRecords(t *testing.T) {
	s := newTestStore()
	for _, ev := range []model.CalendarEvent{
		{ID: "a", Start: at(1, 9, 0), End: at(1, 10, 0)},
		{ID: "b", Start: at(2, 9, 0), End: at(2, 10, 0)},
		{ID: "c", Start: at(1, 23, 0), End: at(2, 0, 30)},
	} {
		if _, err := s.AddEvent(ev); err != nil {
			t.Fatalf("add %s: %v", ev.ID, err)
		}
	}
	got := s.Between(at(2, 0, 0), at(3, 0, 0))
	ids := map[string]bool{}
	for _, e := range got {
		ids[e.ID] = true
	}
	if len(got) != 2 || !ids["b"] || ids["a"] || ids["c"] {
		t.Fatalf("unexpected window result %+v", got)
	}
}

func TestDeleteAndCopy(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddEvent(model.CalendarEvent{ID: "a", Title: "A", Start: at(1, 22, 0), End: at(2, 2, 0)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	copies, err := s.CopyEvent("a")
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(copies) != 1 || copies[0].ID == "a" || copies[0].SplitID != "" || copies[0].Title != "A" {
		t.Fatalf("unexpected copy %+v", copies)
	}

	if err := s.DeleteEvent("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteEvent("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.CopyEvent("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCurrentAndNextEvent(t *testing.T) {
	s := newTestStore()
	for _, ev := range []model.CalendarEvent{
		{ID: "later", Start: at(1, 15, 0), End: at(1, 16, 0)},
		{ID: "now", Start: at(1, 9, 0), End: at(1, 10, 0)},
		{ID: "soon", Start: at(1, 11, 0), End: at(1, 12, 0)},
	} {
		if _, err := s.AddEvent(ev); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	cur, ok := s.CurrentEvent(at(1, 10, 0))
	if !ok || cur.ID != "now" {
		t.Fatalf("expected current event 'now', got %+v", cur)
	}
	next, ok := s.NextEvent(at(1, 9, 30))
	if !ok || next.ID != "soon" {
		t.Fatalf("expected next event 'soon', got %+v", next)
	}
	if _, ok := s.NextEvent(at(1, 15, 0)); ok {
		t.Fatal("an event starting exactly now is not next")
	}
}

func TestCategories(t *testing.T) {
	s := newTestStore()
	added, err := s.AddCategory(" Gym ")
	if err != nil || !added {
		t.Fatalf("expected Gym to be added, got %v %v", added, err)
	}
	for _, dup := range []string{"gym", "WORK"} {
		added, err := s.AddCategory(dup)
		if err != nil || added {
			t.Fatalf("expected %q to be a duplicate, got %v %v", dup, added, err)
		}
	}
	if _, err := s.AddCategory("  "); err == nil {
		t.Fatal("expected error for empty category")
	}
	cats := s.Categories()
	if cats[len(cats)-1] != "Gym" || len(cats) != 7 {
		t.Fatalf("unexpected categories %v", cats)
	}
}

func TestIdeasLifecycle(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddIdea(model.UnscheduledEvent{Title: "   "}); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}

	idea, err := s.AddIdea(model.UnscheduledEvent{Title: " Call mum ", DurationMinutes: 10})
	if err != nil {
		t.Fatalf("add idea: %v", err)
	}
	if idea.Title != "Call mum" || idea.DurationMinutes != 15 || idea.Category != "other" || idea.ID == "" {
		t.Fatalf("unexpected normalized idea %+v", idea)
	}

	idea.DurationMinutes = 0
	idea.Category = "leisure"
	idea, err = s.UpdateIdea(idea)
	if err != nil || idea.DurationMinutes != 60 {
		t.Fatalf("update idea: %+v %v", idea, err)
	}

	segs, err := s.ScheduleIdea(idea.ID, at(5, 23, 30))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected a split across midnight, got %d segments", len(segs))
	}
	if segs[0].Title != "Call mum" || segs[0].Category != "leisure" || !segs[1].End.Equal(at(6, 0, 30)) {
		t.Fatalf("unexpected scheduled segments %+v", segs)
	}
	if len(s.Ideas()) != 0 {
		t.Fatal("scheduled idea must leave the holding area")
	}
	if _, err := s.ScheduleIdea(idea.ID, at(5, 9, 0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.RemoveIdea(idea.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "board.json")

	s := newTestStore()
	if _, err := s.AddEvent(model.CalendarEvent{ID: "a", Title: "A", Start: at(1, 22, 0), End: at(2, 2, 0), Category: "Gym"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddIdea(model.UnscheduledEvent{Title: "Idea", DurationMinutes: 30}); err != nil {
		t.Fatalf("add idea: %v", err)
	}
	if _, err := s.AddCategory("Gym"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := newTestStore()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(loaded.Events()); got != 2 {
		t.Fatalf("expected 2 segments, got %d", got)
	}
	if got := loaded.Group("a"); len(got) != 2 || got[0].ID != "a" {
		t.Fatalf("group not preserved: %+v", got)
	}
	if len(loaded.Ideas()) != 1 || len(loaded.Categories()) != 7 {
		t.Fatalf("ideas/categories not restored: %v %v", loaded.Ideas(), loaded.Categories())
	}
}

func TestLoadMissingFileIsEmptyBoard(t *testing.T) {
	s := newTestStore()
	if err := s.Load(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Events()) != 0 {
		t.Fatal("expected empty board")
	}
}

// withLocal runs the test with time.Local set to loc.
func withLocal(t *testing.T, loc *time.Location) {
	t.Helper()
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

func assertLocalDays(t *testing.T, events []model.CalendarEvent) {
	t.Helper()
	for _, e := range events {
		if e.Start.Location() != time.Local || e.End.Location() != time.Local {
			t.Fatalf("record %s not stored in local time: %s -> %s", e.ID, e.Start, e.End)
		}
		sy, sm, sd := e.Start.Date()
		ey, em, ed := e.End.Date()
		if sy != ey || sm != em || sd != ed {
			t.Fatalf("record %s spans two local days: %s -> %s", e.ID, e.Start, e.End)
		}
	}
}

func TestWritesSplitOnLocalMidnightWhateverTheOffset(t *testing.T) {
	withLocal(t, time.FixedZone("CET", 3600))
	utc := func(d, h, m int) time.Time { return time.Date(2024, 1, d, h, m, 0, 0, time.UTC) }
	ny := time.FixedZone("EST", -5*3600)
	tokyo := time.FixedZone("JST", 9*3600)

	s := newTestStore()
	// 22:30Z -> 23:30Z is 23:30 -> 00:30 local.
	segs, err := s.AddEvent(model.CalendarEvent{ID: "late", Start: utc(1, 22, 30), End: utc(1, 23, 30)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 local-day segments, got %+v", segs)
	}
	if want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local); !segs[1].Start.Equal(want) {
		t.Fatalf("second segment starts %s, want local midnight", segs[1].Start)
	}
	assertLocalDays(t, s.Events())

	if err := s.UpdateEvent(model.CalendarEvent{ID: "late", Start: time.Date(2024, 1, 3, 17, 0, 0, 0, ny), End: time.Date(2024, 1, 3, 19, 0, 0, 0, ny)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	assertLocalDays(t, s.Events())

	res := s.ImportEvents([]model.CalendarEvent{
		{ID: "ny", Start: time.Date(2024, 1, 4, 17, 30, 0, 0, ny), End: time.Date(2024, 1, 4, 18, 30, 0, 0, ny)},
		{ID: "tokyo", Start: time.Date(2024, 1, 5, 7, 0, 0, 0, tokyo), End: time.Date(2024, 1, 5, 9, 0, 0, 0, tokyo)},
		{ID: "utc", Start: utc(6, 10, 0), End: utc(6, 11, 0)},
	})
	// ny: 23:30 -> 00:30 local; tokyo: 23:00 -> 01:00 local; utc: same day.
	if res.Imported != 3 || res.Segments != 5 {
		t.Fatalf("unexpected import result %+v", res)
	}
	assertLocalDays(t, s.Events())

	s.Restore(Snapshot{Events: []model.CalendarEvent{{ID: "r", Start: utc(7, 22, 0), End: utc(7, 23, 30)}}})
	if got := s.Events(); len(got) != 2 {
		t.Fatalf("restore must split on local midnight, got %+v", got)
	}
	assertLocalDays(t, s.Events())

	idea, err := s.AddIdea(model.UnscheduledEvent{Title: "Read", DurationMinutes: 60})
	if err != nil {
		t.Fatalf("add idea: %v", err)
	}
	if segs, err = s.ScheduleIdea(idea.ID, utc(8, 22, 30)); err != nil || len(segs) != 2 {
		t.Fatalf("schedule must split on local midnight: %+v %v", segs, err)
	}
	assertLocalDays(t, s.Events())
}

func TestScheduleIdeaIsAtomic(t *testing.T) {
	for i := 0; i < 100; i++ {
		s := newTestStore()
		idea, err := s.AddIdea(model.UnscheduledEvent{Title: "Walk", DurationMinutes: 30})
		if err != nil {
			t.Fatalf("add idea: %v", err)
		}
		rev := s.Revision()

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				snap := s.Snapshot()
				if n := len(snap.Unscheduled) + len(snap.Events); n != 1 {
					t.Errorf("observed %d items mid-schedule", n)
					return
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()

		if _, err := s.ScheduleIdea(idea.ID, at(2, 9, 0)); err != nil {
			t.Fatalf("schedule: %v", err)
		}
		close(done)
		wg.Wait()

		if got := s.Revision(); got != rev+1 {
			t.Fatalf("schedule must be one mutation, revision %d -> %d", rev, got)
		}
	}
}
