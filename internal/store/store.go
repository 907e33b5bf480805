// Package store defines the persistence interface for the loan server.
//
// Two implementations exist: sqlstore (SQLite or PostgreSQL through database/sql)
// and badgerstore (embedded key-value). Both enforce the same invariants and are
// checked against the shared suite in storetest.
package store

import (
	"context"
	"time"

	"github.com/librarykit/loan-server/internal/domain"
)

// Store defines all persistence operations.
//
// Borrow and return are single atomic operations: a book's availability flag and
// its open loan always change together, and at most one open loan exists per book
// even under concurrent callers.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, id string, update domain.BookUpdate, now time.Time) (*domain.Book, error)
	DeleteBook(ctx context.Context, id string) error

	// Loans
	CreateLoan(ctx context.Context, loan *domain.Loan) error
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)
	ReturnLoan(ctx context.Context, bookID, userID string, now time.Time) (*domain.Loan, error)
}
