package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/librarykit/loan-server/internal/domain"
	"github.com/librarykit/loan-server/internal/store"
)

type loanRow struct {
	ID         string   `db:"id"`
	BookID     string   `db:"book_id"`
	UserID     string   `db:"user_id"`
	LoanDate   dbTime   `db:"loan_date"`
	ReturnDate nullTime `db:"return_date"`
}

func (r loanRow) toDomain() *domain.Loan {
	return &domain.Loan{
		ID:         r.ID,
		BookID:     r.BookID,
		UserID:     r.UserID,
		LoanDate:   r.LoanDate.Time,
		ReturnDate: r.ReturnDate.Ptr(),
	}
}

// CreateLoan records a borrow: the book flips to unavailable and the open loan is
// inserted in the same transaction.
// Returns store.ErrBookNotFound or store.ErrBookUnavailable.
func (s *Store) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		claim := s.builder.Update(tableBooks).Prepared(true).
			Set(goqu.Record{
				colIsAvailable: false,
				colUpdatedAt:   s.timeValue(loan.LoanDate),
			}).
			Where(goqu.C(colID).Eq(loan.BookID), goqu.C(colIsAvailable).IsTrue())

		res, err := s.exec(ctx, tx, claim)
		if err != nil {
			return mapWriteErr(fmt.Errorf("claim book %s: %w", loan.BookID, err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			if _, err := s.getBook(ctx, tx, loan.BookID); err != nil {
				return err
			}
			return store.ErrBookUnavailable
		}

		ins := s.builder.Insert(tableLoans).Prepared(true).Rows(goqu.Record{
			colID:         loan.ID,
			colBookID:     loan.BookID,
			colUserID:     loan.UserID,
			colLoanDate:   s.timeValue(loan.LoanDate),
			colReturnDate: nil,
		})
		if _, err := s.exec(ctx, tx, ins); err != nil {
			if isUniqueViolation(err) {
				return store.ErrBookUnavailable.WithCause(err)
			}
			return mapWriteErr(fmt.Errorf("insert loan: %w", err))
		}
		return nil
	})
}

// ListLoans returns loans ordered by loan date, oldest first.
func (s *Store) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	q := s.loans().Order(goqu.C(colLoanDate).Asc(), goqu.C(colID).Asc())
	if filter.UserID != "" {
		q = q.Where(goqu.C(colUserID).Eq(filter.UserID))
	}

	var rows []loanRow
	if err := s.selectAll(ctx, s.db, &rows, q); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for _, r := range rows {
		loans = append(loans, r.toDomain())
	}
	return loans, nil
}

// ReturnLoan closes the open loan of bookID held by userID and makes the book
// available again.
// Returns store.ErrOpenLoanNotFound if no such loan is open.
func (s *Store) ReturnLoan(ctx context.Context, bookID, userID string, now time.Time) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var row loanRow
		find := s.loans().
			Where(
				goqu.C(colBookID).Eq(bookID),
				goqu.C(colUserID).Eq(userID),
				goqu.C(colReturnDate).IsNull(),
			).
			Limit(1)
		err := s.get(ctx, tx, &row, find)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrOpenLoanNotFound
		}
		if err != nil {
			return mapWriteErr(fmt.Errorf("find open loan: %w", err))
		}

		loan = row.toDomain()
		loan.MarkReturned(now)

		closeLoan := s.builder.Update(tableLoans).Prepared(true).
			Set(goqu.Record{colReturnDate: s.timeValue(*loan.ReturnDate)}).
			Where(goqu.C(colID).Eq(loan.ID), goqu.C(colReturnDate).IsNull())
		res, err := s.exec(ctx, tx, closeLoan)
		if err != nil {
			return mapWriteErr(fmt.Errorf("close loan %s: %w", loan.ID, err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrOpenLoanNotFound
		}

		release := s.builder.Update(tableBooks).Prepared(true).
			Set(goqu.Record{
				colIsAvailable: true,
				colUpdatedAt:   s.timeValue(*loan.ReturnDate),
			}).
			Where(goqu.C(colID).Eq(bookID))
		if _, err := s.exec(ctx, tx, release); err != nil {
			return mapWriteErr(fmt.Errorf("release book %s: %w", bookID, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}
