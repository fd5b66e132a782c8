package models

import (
	"time"
)

// DeletionPolicy describes how an entity leaves the system
type DeletionPolicy int

const (
	// SoftDelete marks the row deleted and hides it from every default query
	SoftDelete DeletionPolicy = iota
	// HardDelete removes the row
	HardDelete
)

func (p DeletionPolicy) String() string {
	if p == SoftDelete {
		return "soft"
	}
	return "hard"
}

// Deletable is implemented by every persisted entity
type Deletable interface {
	DeletionPolicy() DeletionPolicy
}

// PolicyOf returns the deletion policy of v, defaulting to HardDelete
func PolicyOf(v any) DeletionPolicy {
	if d, ok := v.(Deletable); ok {
		return d.DeletionPolicy()
	}
	return HardDelete
}

// DateLayout is the calendar date format used for dates at the edges of the system
const DateLayout = "2006-01-02"

// Date truncates t to midnight UTC of its calendar day
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// AddMonths moves t forward by n calendar months, clamping the day to the end
// of the target month (Jan 31 + 1 month = Feb 28/29)
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the calendar month difference between start and end,
// counting a partial final month when end's day is on or after start's day
func MonthsBetween(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	months := (ey-sy)*12 + int(em-sm)
	if ed >= sd {
		months++
	}
	return months
}
