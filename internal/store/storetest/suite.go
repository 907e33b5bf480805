// Package storetest holds the behavioral suite every store.Store implementation must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/librarykit/loan-server/internal/domain"
	"github.com/librarykit/loan-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. Cleanup is registered on t by the factory.
type Factory func(t *testing.T) store.Store

// base is a fixed clock origin so ordering assertions are deterministic.
var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// RunStoreSuite runs the full behavioral suite against stores built by newStore.
func RunStoreSuite(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAndGetBook", testCreateAndGetBook},
		{"GetBookNotFound", testGetBookNotFound},
		{"CreateBookDuplicateID", testCreateBookDuplicateID},
		{"ListBooksOrderAndFilter", testListBooksOrderAndFilter},
		{"UpdateBook", testUpdateBook},
		{"UpdateBookNotFound", testUpdateBookNotFound},
		{"UpdateBookAvailability", testUpdateBookAvailability},
		{"DeleteBook", testDeleteBook},
		{"DeleteBookWithLoans", testDeleteBookWithLoans},
		{"BorrowFlipsAvailability", testBorrowFlipsAvailability},
		{"BorrowUnavailable", testBorrowUnavailable},
		{"BorrowMissingBook", testBorrowMissingBook},
		{"ReturnLoan", testReturnLoan},
		{"ReturnLoanWrongUser", testReturnLoanWrongUser},
		{"ReturnLoanTwice", testReturnLoanTwice},
		{"ReturnSameInstant", testReturnSameInstant},
		{"ListLoansOrderAndFilter", testListLoansOrderAndFilter},
		{"ConcurrentBorrow", testConcurrentBorrow},
		{"ConcurrentReturn", testConcurrentReturn},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func createBook(t *testing.T, s store.Store, id, title string, at time.Time) *domain.Book {
	t.Helper()

	b := domain.NewBook(id, title, "Author "+id)
	b.InitTimestamps(at)
	require.NoError(t, s.CreateBook(context.Background(), b))
	return b
}

func borrow(t *testing.T, s store.Store, loanID, bookID, userID string, at time.Time) *domain.Loan {
	t.Helper()

	l := domain.NewLoan(loanID, bookID, userID, at)
	require.NoError(t, s.CreateLoan(context.Background(), l))
	return l
}

func testCreateAndGetBook(t *testing.T, s store.Store) {
	ctx := context.Background()
	created := createBook(t, s, "book-1", "The Left Hand of Darkness", base.Add(123456789*time.Nanosecond))

	got, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Author, got.Author)
	assert.True(t, got.IsAvailable)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt), "want %v got %v", created.CreatedAt, got.CreatedAt)
	assert.True(t, created.UpdatedAt.Equal(got.UpdatedAt))
}

func testGetBookNotFound(t *testing.T, s store.Store) {
	_, err := s.GetBook(context.Background(), "book-missing")
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func testCreateBookDuplicateID(t *testing.T, s store.Store) {
	createBook(t, s, "book-1", "First", base)

	dup := domain.NewBook("book-1", "Second", "Someone")
	dup.InitTimestamps(base)
	err := s.CreateBook(context.Background(), dup)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func testListBooksOrderAndFilter(t *testing.T, s store.Store) {
	ctx := context.Background()

	books, err := s.ListBooks(ctx, domain.BookFilter{})
	require.NoError(t, err)
	assert.Empty(t, books)

	createBook(t, s, "book-c", "C", base.Add(2*time.Second))
	createBook(t, s, "book-a", "A", base)
	createBook(t, s, "book-b", "B", base.Add(time.Second))
	borrow(t, s, "loan-1", "book-b", "u-1", base.Add(time.Minute))

	books, err = s.ListBooks(ctx, domain.BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"book-a", "book-b", "book-c"}, bookIDs(books))

	books, err = s.ListBooks(ctx, domain.BookFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"book-a", "book-c"}, bookIDs(books))
}

func testUpdateBook(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "Old", base)

	later := base.Add(time.Hour)
	got, err := s.UpdateBook(ctx, "book-1", domain.BookUpdate{Title: ptr("New")}, later)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "Author book-1", got.Author)
	assert.True(t, got.UpdatedAt.Equal(later))

	stored, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "New", stored.Title)
	assert.True(t, stored.CreatedAt.Equal(base))
}

func testUpdateBookNotFound(t *testing.T, s store.Store) {
	_, err := s.UpdateBook(context.Background(), "book-missing", domain.BookUpdate{Title: ptr("x")}, base)
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func testUpdateBookAvailability(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)

	// Restating the current value is accepted.
	got, err := s.UpdateBook(ctx, "book-1", domain.BookUpdate{IsAvailable: ptr(true)}, base.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, got.IsAvailable)

	_, err = s.UpdateBook(ctx, "book-1", domain.BookUpdate{Title: ptr("X"), IsAvailable: ptr(false)}, base.Add(time.Second))
	assert.ErrorIs(t, err, store.ErrAvailabilityManaged)

	stored, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.True(t, stored.IsAvailable)
	assert.Equal(t, "T", stored.Title, "rejected update must not be partially applied")
}

func testDeleteBook(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)

	require.NoError(t, s.DeleteBook(ctx, "book-1"))

	_, err := s.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrBookNotFound)

	err = s.DeleteBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func testDeleteBookWithLoans(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	err := s.DeleteBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrBookHasLoans)

	_, err = s.ReturnLoan(ctx, "book-1", "u-1", base.Add(time.Hour))
	require.NoError(t, err)

	// Returned loans are history and still block deletion.
	err = s.DeleteBook(ctx, "book-1")
	assert.ErrorIs(t, err, store.ErrBookHasLoans)

	_, err = s.GetBook(ctx, "book-1")
	assert.NoError(t, err)
}

func testBorrowFlipsAvailability(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	b, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.False(t, b.IsAvailable)

	loans, err := s.ListLoans(ctx, domain.LoanFilter{})
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "loan-1", loans[0].ID)
	assert.True(t, loans[0].IsOpen())
	assert.True(t, loans[0].LoanDate.Equal(base.Add(time.Minute)))
}

func testBorrowUnavailable(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	err := s.CreateLoan(ctx, domain.NewLoan("loan-2", "book-1", "u-2", base.Add(2*time.Minute)))
	assert.ErrorIs(t, err, store.ErrBookUnavailable)

	loans, err := s.ListLoans(ctx, domain.LoanFilter{})
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func testBorrowMissingBook(t *testing.T, s store.Store) {
	err := s.CreateLoan(context.Background(), domain.NewLoan("loan-1", "book-missing", "u-1", base))
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func testReturnLoan(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	returnedAt := base.Add(time.Hour)
	loan, err := s.ReturnLoan(ctx, "book-1", "u-1", returnedAt)
	require.NoError(t, err)
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, "loan-1", loan.ID)
	assert.True(t, loan.ReturnDate.Equal(returnedAt))

	b, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.True(t, b.IsAvailable)

	// The book can be borrowed again.
	borrow(t, s, "loan-2", "book-1", "u-2", base.Add(2*time.Hour))
}

func testReturnLoanWrongUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	_, err := s.ReturnLoan(ctx, "book-1", "u-2", base.Add(time.Hour))
	assert.ErrorIs(t, err, store.ErrOpenLoanNotFound)

	_, err = s.ReturnLoan(ctx, "book-missing", "u-1", base.Add(time.Hour))
	assert.ErrorIs(t, err, store.ErrOpenLoanNotFound)

	b, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.False(t, b.IsAvailable)
}

func testReturnLoanTwice(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	_, err := s.ReturnLoan(ctx, "book-1", "u-1", base.Add(time.Hour))
	require.NoError(t, err)

	_, err = s.ReturnLoan(ctx, "book-1", "u-1", base.Add(2*time.Hour))
	assert.ErrorIs(t, err, store.ErrOpenLoanNotFound)
}

func testReturnSameInstant(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	loan := borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	got, err := s.ReturnLoan(ctx, "book-1", "u-1", loan.LoanDate)
	require.NoError(t, err)
	assert.True(t, got.ReturnDate.After(got.LoanDate))
}

func testListLoansOrderAndFilter(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "One", base)
	createBook(t, s, "book-2", "Two", base)
	createBook(t, s, "book-3", "Three", base)

	borrow(t, s, "loan-b", "book-2", "u-2", base.Add(2*time.Minute))
	borrow(t, s, "loan-a", "book-1", "u-1", base.Add(time.Minute))
	borrow(t, s, "loan-c", "book-3", "u-1", base.Add(3*time.Minute))
	_, err := s.ReturnLoan(ctx, "book-1", "u-1", base.Add(time.Hour))
	require.NoError(t, err)

	loans, err := s.ListLoans(ctx, domain.LoanFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"loan-a", "loan-b", "loan-c"}, loanIDs(loans))

	loans, err = s.ListLoans(ctx, domain.LoanFilter{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"loan-a", "loan-c"}, loanIDs(loans))
	assert.False(t, loans[0].IsOpen())
	assert.True(t, loans[1].IsOpen())

	loans, err = s.ListLoans(ctx, domain.LoanFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func testConcurrentBorrow(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loan := domain.NewLoan(fmt.Sprintf("loan-%d", i), "book-1", fmt.Sprintf("u-%d", i), base.Add(time.Minute))
			err := s.CreateLoan(ctx, loan)
			if err != nil {
				assert.True(t, isContention(err), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			successes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	loans, err := s.ListLoans(ctx, domain.LoanFilter{})
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func testConcurrentReturn(t *testing.T, s store.Store) {
	ctx := context.Background()
	createBook(t, s, "book-1", "T", base)
	borrow(t, s, "loan-1", "book-1", "u-1", base.Add(time.Minute))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ReturnLoan(ctx, "book-1", "u-1", base.Add(time.Hour))
			if err != nil {
				assert.True(t, isContention(err) || isErr(err, store.ErrOpenLoanNotFound), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			successes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	b, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.True(t, b.IsAvailable)
}

func testPing(t *testing.T, s store.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}

// isContention reports whether err is one of the errors a losing concurrent writer may see.
func isContention(err error) bool {
	return isErr(err, store.ErrBookUnavailable) || isErr(err, store.ErrConflict)
}

func isErr(err error, target *store.Error) bool {
	return errors.Is(err, target)
}

func bookIDs(books []*domain.Book) []string {
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}

func loanIDs(loans []*domain.Loan) []string {
	ids := make([]string, len(loans))
	for i, l := range loans {
		ids[i] = l.ID
	}
	return ids
}
