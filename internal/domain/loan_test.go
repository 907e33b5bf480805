package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoan_MarkReturned(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	l := NewLoan("loan-1", "book-1", "u-1", start)
	require.True(t, l.IsOpen())

	l.MarkReturned(start.Add(2 * time.Hour))

	require.False(t, l.IsOpen())
	assert.Equal(t, start.Add(2*time.Hour), *l.ReturnDate)
}

func TestLoan_ReturnAlwaysAfterLoanDate(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	l := NewLoan("loan-1", "book-1", "u-1", start)

	// Same instant, and a clock that went backwards.
	for _, now := range []time.Time{start, start.Add(-time.Second), start.Add(300 * time.Nanosecond)} {
		got := l.ReturnTimeFor(now)
		assert.True(t, got.After(l.LoanDate), "return %v not after loan %v", got, l.LoanDate)
		assert.Equal(t, start.Add(time.Microsecond), got)
	}
}

func TestLoanFilter_Matches(t *testing.T) {
	l := NewLoan("loan-1", "book-1", "u-1", time.Now())

	assert.True(t, LoanFilter{}.Matches(l))
	assert.True(t, LoanFilter{UserID: "u-1"}.Matches(l))
	assert.False(t, LoanFilter{UserID: "u-2"}.Matches(l))
}

func TestFormatLoanTime(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 5, 999, time.FixedZone("X", 2*3600))
	assert.Equal(t, "2026-03-01 08:30:05", FormatLoanTime(ts))
}
