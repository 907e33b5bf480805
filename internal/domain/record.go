// Package domain contains the core entities of the library loan service.
package domain

import "time"

// Record provides the identity and bookkeeping timestamps shared by stored entities.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (r *Record) InitTimestamps(now time.Time) {
	now = Timestamp(now)
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
// Call this whenever the underlying entity changes.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = Timestamp(now)
}

// Timestamp normalizes t to the precision every store keeps: UTC, microseconds.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
