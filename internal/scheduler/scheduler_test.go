// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/scadenza/internal/models"
)

// staticSource serves a fixed deadline slice.
type staticSource struct {
	deadlines []models.Deadline
}

func (s *staticSource) PendingDeadlines() []models.Deadline {
	return s.deadlines
}

// alertSink collects fired alerts.
type alertSink struct {
	mu    sync.Mutex
	fired []string
}

func (a *alertSink) record(d models.Deadline, threshold string, minutesLeft int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fired = append(a.fired, threshold)
}

func (a *alertSink) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fired)
}

func deadlineAt(id int64, due time.Time, prealert ...string) models.Deadline {
	return models.Deadline{
		ID:       id,
		Title:    "test",
		Date:     due.Format(models.DateLayout),
		Time:     due.Format(models.TimeLayout),
		Priority: models.PriorityMedium,
		Prealert: prealert,
	}
}

func TestWholeMinutes(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{59 * time.Second, 0},
		{time.Minute, 1},
		{90 * time.Second, 1},
		{time.Hour, 60},
		{-time.Second, -1},
		{-time.Minute, -1},
		{-61 * time.Second, -2},
	}
	for _, tt := range tests {
		if got := wholeMinutes(tt.d); got != tt.want {
			t.Errorf("wholeMinutes(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestScheduler_ExactMinuteMatch(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	due := now.Add(60 * time.Minute)

	source := &staticSource{deadlines: []models.Deadline{deadlineAt(1, due, "1ora")}}
	sink := &alertSink{}
	s := New(source, sink.record, Config{}).WithClock(func() time.Time { return now })

	s.Poll()
	if sink.count() != 1 {
		t.Fatalf("expected 1 alert at exactly 60 minutes out, got %d", sink.count())
	}
	if sink.fired[0] != "1ora" {
		t.Errorf("expected threshold 1ora, got %q", sink.fired[0])
	}
}

func TestScheduler_NoMatchBetweenBoundaries(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 30, 0, time.Local)
	due := now.Add(59*time.Minute + 30*time.Second)

	// 59.5 minutes out: wholeMinutes is 59, not 60, so 1ora does not match.
	source := &staticSource{deadlines: []models.Deadline{deadlineAt(1, due, "1ora")}}
	sink := &alertSink{}
	s := New(source, sink.record, Config{}).WithClock(func() time.Time { return now })

	s.Poll()
	if sink.count() != 0 {
		t.Fatalf("expected no alert between minute boundaries, got %d", sink.count())
	}
}

func TestScheduler_AtMostOncePerThreshold(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	due := now.Add(15 * time.Minute)

	source := &staticSource{deadlines: []models.Deadline{deadlineAt(1, due, "15minuti")}}
	sink := &alertSink{}
	s := New(source, sink.record, Config{}).WithClock(func() time.Time { return now })

	s.Poll()
	s.Poll()
	s.Poll()
	if sink.count() != 1 {
		t.Fatalf("expected a single alert across repeated polls, got %d", sink.count())
	}
}

func TestScheduler_IndependentThresholds(t *testing.T) {
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	due := base.Add(60 * time.Minute)

	source := &staticSource{deadlines: []models.Deadline{deadlineAt(1, due, "1ora", "30minuti", "15minuti")}}
	sink := &alertSink{}

	current := base
	s := New(source, sink.record, Config{}).WithClock(func() time.Time { return current })

	s.Poll() // 60 minutes out: fires 1ora
	current = base.Add(30 * time.Minute)
	s.Poll() // 30 minutes out: fires 30minuti
	current = base.Add(45 * time.Minute)
	s.Poll() // 15 minutes out: fires 15minuti

	if sink.count() != 3 {
		t.Fatalf("expected 3 alerts, one per threshold, got %d: %v", sink.count(), sink.fired)
	}
}

func TestScheduler_WidenMatchCatchesCrossedThreshold(t *testing.T) {
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	due := base.Add(62 * time.Minute)

	source := &staticSource{deadlines: []models.Deadline{deadlineAt(1, due, "1ora")}}

	tests := []struct {
		name  string
		widen bool
		want  int
	}{
		{"default skips", false, 0},
		{"widened fires", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &alertSink{}
			current := base
			s := New(source, sink.record, Config{WidenMatch: tt.widen}).
				WithClock(func() time.Time { return current })

			// 62 minutes out, then a poll 3 minutes later lands at 59:
			// minute 60 was crossed between the two polls.
			s.Poll()
			current = base.Add(3 * time.Minute)
			s.Poll()

			if sink.count() != tt.want {
				t.Fatalf("expected %d alerts, got %d", tt.want, sink.count())
			}
		})
	}
}

func TestScheduler_WidenMatchIgnoresOverdue(t *testing.T) {
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	due := base.Add(16 * time.Minute)

	source := &staticSource{deadlines: []models.Deadline{deadlineAt(1, due, "15minuti")}}
	sink := &alertSink{}
	current := base
	s := New(source, sink.record, Config{WidenMatch: true}).
		WithClock(func() time.Time { return current })

	// First poll 16 minutes out, second poll past due: the crossing into
	// negative minutes must not fire.
	s.Poll()
	current = base.Add(17 * time.Minute)
	s.Poll()

	if sink.count() != 0 {
		t.Fatalf("expected no alert once overdue, got %d", sink.count())
	}
}

func TestScheduler_SkipsUnparseableDueTimes(t *testing.T) {
	bad := models.Deadline{ID: 1, Title: "bad", Date: "not-a-date", Time: "09:00", Prealert: []string{"1ora"}}
	good := deadlineAt(2, time.Date(2026, 8, 31, 11, 0, 0, 0, time.Local), "1ora")

	source := &staticSource{deadlines: []models.Deadline{bad, good}}
	sink := &alertSink{}
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	s := New(source, sink.record, Config{}).WithClock(func() time.Time { return now })

	s.Poll()
	if sink.count() != 1 {
		t.Fatalf("expected the valid deadline to still fire, got %d alerts", sink.count())
	}
}
