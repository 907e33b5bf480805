package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestNewBook_IsAvailable(t *testing.T) {
	b := NewBook("book-1", "Dune", "Frank Herbert")

	assert.Equal(t, "book-1", b.ID)
	assert.True(t, b.IsAvailable)
	assert.True(t, b.CreatedAt.IsZero())
}

func TestRecord_Timestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))

	var r Record
	r.InitTimestamps(now)

	assert.Equal(t, time.UTC, r.CreatedAt.Location())
	assert.Equal(t, 123456000, r.CreatedAt.Nanosecond())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)

	later := now.Add(time.Minute)
	r.Touch(later)
	assert.True(t, r.UpdatedAt.After(r.CreatedAt))
}

func TestBookUpdate_Apply(t *testing.T) {
	b := NewBook("book-1", "Dune", "Frank Herbert")

	BookUpdate{Title: ptr("Dune Messiah"), IsAvailable: ptr(false)}.Apply(b)

	assert.Equal(t, "Dune Messiah", b.Title)
	assert.Equal(t, "Frank Herbert", b.Author)
	assert.True(t, b.IsAvailable, "availability is never applied")
}

func TestBookUpdate_ConflictsWith(t *testing.T) {
	b := NewBook("book-1", "Dune", "Frank Herbert")

	assert.False(t, BookUpdate{}.ConflictsWith(b))
	assert.False(t, BookUpdate{IsAvailable: ptr(true)}.ConflictsWith(b))
	assert.True(t, BookUpdate{IsAvailable: ptr(false)}.ConflictsWith(b))
}

func TestBookUpdate_IsEmpty(t *testing.T) {
	assert.True(t, BookUpdate{}.IsEmpty())
	assert.False(t, BookUpdate{Author: ptr("x")}.IsEmpty())
	assert.False(t, BookUpdate{IsAvailable: ptr(true)}.ChangesStoredFields())
}

func TestBookFilter_Matches(t *testing.T) {
	b := NewBook("book-1", "Dune", "Frank Herbert")
	b.IsAvailable = false

	assert.True(t, BookFilter{}.Matches(b))
	assert.False(t, BookFilter{AvailableOnly: true}.Matches(b))
}
