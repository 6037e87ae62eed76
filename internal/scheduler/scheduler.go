// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package scheduler polls pending deadlines on a fixed interval and fires
// pre-alert notifications when a configured threshold is reached.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/models"
)

// DeadlineSource supplies the non-completed deadlines to examine on each
// poll. Satisfied by *client.Controller.
type DeadlineSource interface {
	PendingDeadlines() []models.Deadline
}

// AlertFunc receives one pre-alert: the deadline, the threshold name that
// matched and the whole minutes remaining until due.
type AlertFunc func(d models.Deadline, threshold string, minutesLeft int)

// Config controls the polling behavior.
type Config struct {
	// Interval between polls. Defaults to one minute.
	Interval time.Duration

	// WidenMatch fires a threshold that was crossed at any point since the
	// previous poll instead of requiring exact minute equality. With the
	// default false, a poll that lands between minute boundaries can skip
	// an alert entirely; the flag exists because that behavior is
	// load-bearing for existing installations.
	WidenMatch bool
}

// fireKey identifies one (deadline, threshold) pair. Each pair fires at
// most once per process lifetime.
type fireKey struct {
	id        int64
	threshold string
}

// Scheduler is the fixed-interval pre-alert poller.
type Scheduler struct {
	source   DeadlineSource
	alert    AlertFunc
	interval time.Duration
	widen    bool
	now      func() time.Time

	mu       sync.Mutex
	fired    map[fireKey]struct{}
	lastPoll time.Time
}

// New creates a Scheduler. alert must not be nil.
func New(source DeadlineSource, alert AlertFunc, cfg Config) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		source:   source,
		alert:    alert,
		interval: interval,
		widen:    cfg.WidenMatch,
		now:      time.Now,
		fired:    make(map[fireKey]struct{}),
	}
}

// WithClock substitutes the time source. Tests only.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run polls until the context is canceled. The first poll happens after
// one full interval, matching a ticker's behavior.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Poll()
		}
	}
}

// Poll examines every pending deadline once. Exported so tests and
// interactive refreshes can drive the scheduler without the ticker.
func (s *Scheduler) Poll() {
	now := s.now()

	s.mu.Lock()
	lastPoll := s.lastPoll
	s.lastPoll = now
	s.mu.Unlock()

	for _, d := range s.source.PendingDeadlines() {
		due, err := d.DueAt()
		if err != nil {
			logging.Warn().Int64("deadline_id", d.ID).Err(err).Msg("unparseable due time, skipping")
			continue
		}

		minutes := wholeMinutes(due.Sub(now))
		for _, name := range d.Prealert {
			threshold, ok := models.PrealertMinutes(name)
			if !ok {
				continue
			}

			match := minutes == threshold
			if !match && s.widen && !lastPoll.IsZero() {
				previous := wholeMinutes(due.Sub(lastPoll))
				match = minutes < threshold && previous > threshold && minutes >= 0
			}
			if !match {
				continue
			}

			key := fireKey{id: d.ID, threshold: name}
			s.mu.Lock()
			_, already := s.fired[key]
			if !already {
				s.fired[key] = struct{}{}
			}
			s.mu.Unlock()
			if already {
				continue
			}

			s.alert(d, name, minutes)
		}
	}
}

// wholeMinutes floors a duration to whole minutes, rounding toward
// negative infinity so an overdue deadline never reads as minute zero.
func wholeMinutes(d time.Duration) int {
	m := d / time.Minute
	if d%time.Minute < 0 {
		m--
	}
	return int(m)
}
