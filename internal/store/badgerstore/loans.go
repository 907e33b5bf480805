package badgerstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/librarykit/loan-server/internal/domain"
	"github.com/librarykit/loan-server/internal/store"
)

// CreateLoan records a borrow: the book flips to unavailable, and the loan and its
// index entries are written in the same transaction.
// Returns store.ErrBookNotFound or store.ErrBookUnavailable.
func (s *Store) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		book, err := getBook(txn, loan.BookID)
		if err != nil {
			return err
		}

		open, err := exists(txn, openLoanKey(loan.BookID))
		if err != nil {
			return fmt.Errorf("check open loan: %w", err)
		}
		if !book.IsAvailable || open {
			return store.ErrBookUnavailable
		}

		book.IsAvailable = false
		book.Touch(loan.LoanDate)
		if err := setJSON(txn, bookKey(book.ID), book); err != nil {
			return err
		}
		if err := setJSON(txn, loanKey(loan.ID), loan); err != nil {
			return err
		}
		if err := txn.Set(openLoanKey(loan.BookID), []byte(loan.ID)); err != nil {
			return err
		}
		if err := txn.Set(loanByBookKey(loan.BookID, loan.ID), nil); err != nil {
			return err
		}
		return txn.Set(loanByUserKey(loan.UserID, loan.ID), nil)
	})
}

// ListLoans returns loans ordered by loan date, oldest first.
func (s *Store) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	err := s.view(ctx, func(txn *badger.Txn) error {
		if filter.UserID == "" {
			return scanValues(txn, []byte(loanPrefix), func(val []byte) error {
				var l domain.Loan
				if err := json.Unmarshal(val, &l); err != nil {
					return err
				}
				loans = append(loans, &l)
				return nil
			})
		}

		for _, loanID := range scanKeys(txn, loansByUserPrefix(filter.UserID)) {
			var l domain.Loan
			if err := getJSON(txn, loanKey(loanID), &l); err != nil {
				return fmt.Errorf("get loan %s: %w", loanID, err)
			}
			loans = append(loans, &l)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	slices.SortFunc(loans, func(a, b *domain.Loan) int {
		if c := a.LoanDate.Compare(b.LoanDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return loans, nil
}

// ReturnLoan closes the open loan of bookID held by userID and makes the book
// available again.
// Returns store.ErrOpenLoanNotFound if no such loan is open.
func (s *Store) ReturnLoan(ctx context.Context, bookID, userID string, now time.Time) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(openLoanKey(bookID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrOpenLoanNotFound
		}
		if err != nil {
			return fmt.Errorf("get open loan: %w", err)
		}
		loanIDBytes, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		var l domain.Loan
		if err := getJSON(txn, loanKey(string(loanIDBytes)), &l); err != nil {
			return fmt.Errorf("get loan %s: %w", loanIDBytes, err)
		}
		if l.UserID != userID || !l.IsOpen() {
			return store.ErrOpenLoanNotFound
		}

		book, err := getBook(txn, bookID)
		if err != nil {
			return err
		}

		l.MarkReturned(now)
		book.IsAvailable = true
		book.Touch(*l.ReturnDate)

		if err := setJSON(txn, loanKey(l.ID), &l); err != nil {
			return err
		}
		if err := setJSON(txn, bookKey(bookID), book); err != nil {
			return err
		}
		if err := txn.Delete(openLoanKey(bookID)); err != nil {
			return err
		}
		loan = &l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}
