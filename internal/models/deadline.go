// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package models

import (
	"fmt"
	"time"
)

// Priority is the urgency level of a deadline. The vocabulary matches the
// wire format of the original dataset.
type Priority string

const (
	PriorityLow    Priority = "bassa"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Date and time layouts used on the wire and in storage keys.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Deadline is a dated obligation tracked by the application.
//
// Category references a Category by name; the reference is not foreign-key
// enforced. Prealert and AssignedTo are stored as-is: order and duplicates
// must survive a serialization round trip.
type Deadline struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Category    string    `json:"category"`
	Priority    Priority  `json:"priority"`
	Prealert    []string  `json:"prealert"`
	AssignedTo  []string  `json:"assignedTo"`
	Completed   bool      `json:"completed"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks the deadline for storage. Malformed records are rejected
// at the store boundary rather than trusting caller shape.
func (d *Deadline) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEntity)
	}
	if _, err := time.ParseInLocation(DateLayout, d.Date, time.Local); err != nil {
		return fmt.Errorf("%w: date %q is not in %s format", ErrInvalidEntity, d.Date, DateLayout)
	}
	if _, err := time.ParseInLocation(TimeLayout, d.Time, time.Local); err != nil {
		return fmt.Errorf("%w: time %q is not in %s format", ErrInvalidEntity, d.Time, TimeLayout)
	}
	if !d.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidEntity, d.Priority)
	}
	for _, p := range d.Prealert {
		if _, ok := PrealertMinutes(p); !ok {
			return fmt.Errorf("%w: unknown prealert threshold %q", ErrInvalidEntity, p)
		}
	}
	return nil
}

// DueAt combines the date and time fields into the due moment, interpreted
// in local time.
func (d *Deadline) DueAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, d.Date+" "+d.Time, time.Local)
}

// IsActive reports whether the deadline is due at or after now. Completed
// deadlines belong to neither bucket.
func (d *Deadline) IsActive(now time.Time) bool {
	if d.Completed {
		return false
	}
	due, err := d.DueAt()
	if err != nil {
		return false
	}
	return !due.Before(now)
}

// IsPast reports whether the deadline is overdue. Completed deadlines belong
// to neither bucket.
func (d *Deadline) IsPast(now time.Time) bool {
	if d.Completed {
		return false
	}
	due, err := d.DueAt()
	if err != nil {
		return false
	}
	return due.Before(now)
}
