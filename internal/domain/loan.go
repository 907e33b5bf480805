package domain

import "time"

// LoanTimeLayout is the fixed date-time layout loans are rendered with.
const LoanTimeLayout = "2006-01-02 15:04:05"

// Loan records one borrowing of a book by a user. It is open until ReturnDate is set.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	UserID     string     `json:"user_id"`
	LoanDate   time.Time  `json:"loan_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// NewLoan returns an open loan starting at now.
func NewLoan(id, bookID, userID string, now time.Time) *Loan {
	return &Loan{
		ID:       id,
		BookID:   bookID,
		UserID:   userID,
		LoanDate: Timestamp(now),
	}
}

// IsOpen reports whether the book is still out on this loan.
func (l *Loan) IsOpen() bool {
	return l.ReturnDate == nil
}

// ReturnTimeFor returns the return date to record for a return observed at now.
// The result is always strictly after LoanDate, even if the clock has not advanced
// past it at store precision.
func (l *Loan) ReturnTimeFor(now time.Time) time.Time {
	at := Timestamp(now)
	if !at.After(l.LoanDate) {
		at = l.LoanDate.Add(time.Microsecond)
	}
	return at
}

// MarkReturned closes the loan at the time given by ReturnTimeFor(now).
func (l *Loan) MarkReturned(now time.Time) {
	at := l.ReturnTimeFor(now)
	l.ReturnDate = &at
}

// LoanFilter selects which loans ListLoans returns. An empty UserID selects all loans.
type LoanFilter struct {
	UserID string
}

// Matches reports whether l passes the filter.
func (f LoanFilter) Matches(l *Loan) bool {
	return f.UserID == "" || l.UserID == f.UserID
}

// FormatLoanTime renders t in LoanTimeLayout (UTC).
func FormatLoanTime(t time.Time) string {
	return t.UTC().Format(LoanTimeLayout)
}
