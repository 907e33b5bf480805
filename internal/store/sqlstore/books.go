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

type bookRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Author      string `db:"author"`
	IsAvailable bool   `db:"is_available"`
	CreatedAt   dbTime `db:"created_at"`
	UpdatedAt   dbTime `db:"updated_at"`
}

func (r bookRow) toDomain() *domain.Book {
	return &domain.Book{
		Record: domain.Record{
			ID:        r.ID,
			CreatedAt: r.CreatedAt.Time,
			UpdatedAt: r.UpdatedAt.Time,
		},
		Title:       r.Title,
		Author:      r.Author,
		IsAvailable: r.IsAvailable,
	}
}

// CreateBook inserts a new book.
// Returns store.ErrConflict if a book with the same ID exists.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	ins := s.builder.Insert(tableBooks).Prepared(true).Rows(goqu.Record{
		colID:          book.ID,
		colTitle:       book.Title,
		colAuthor:      book.Author,
		colIsAvailable: book.IsAvailable,
		colCreatedAt:   s.timeValue(book.CreatedAt),
		colUpdatedAt:   s.timeValue(book.UpdatedAt),
	})

	if _, err := s.exec(ctx, s.db, ins); err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict.WithMessage(fmt.Sprintf("book %s already exists", book.ID))
		}
		return mapWriteErr(fmt.Errorf("insert book: %w", err))
	}
	return nil
}

// GetBook retrieves a book by ID.
// Returns store.ErrBookNotFound if it does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.getBook(ctx, s.db, id)
}

func (s *Store) getBook(ctx context.Context, q sqlx.QueryerContext, id string) (*domain.Book, error) {
	var row bookRow
	err := s.get(ctx, q, &row, s.books().Where(goqu.C(colID).Eq(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// ListBooks returns books in creation order, oldest first.
func (s *Store) ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	q := s.books().Order(goqu.C(colCreatedAt).Asc(), goqu.C(colID).Asc())
	if filter.AvailableOnly {
		q = q.Where(goqu.C(colIsAvailable).IsTrue())
	}

	var rows []bookRow
	if err := s.selectAll(ctx, s.db, &rows, q); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books := make([]*domain.Book, 0, len(rows))
	for _, r := range rows {
		books = append(books, r.toDomain())
	}
	return books, nil
}

// UpdateBook applies a partial update to title and author.
// An IsAvailable value that differs from the stored one is rejected with
// store.ErrAvailabilityManaged; restating the current value is accepted.
func (s *Store) UpdateBook(ctx context.Context, id string, update domain.BookUpdate, now time.Time) (*domain.Book, error) {
	var book *domain.Book
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		book, err = s.getBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if update.ConflictsWith(book) {
			return store.ErrAvailabilityManaged
		}
		if !update.ChangesStoredFields() {
			return nil
		}

		update.Apply(book)
		book.Touch(now)

		upd := s.builder.Update(tableBooks).Prepared(true).
			Set(goqu.Record{
				colTitle:     book.Title,
				colAuthor:    book.Author,
				colUpdatedAt: s.timeValue(book.UpdatedAt),
			}).
			Where(goqu.C(colID).Eq(id))
		if _, err := s.exec(ctx, tx, upd); err != nil {
			return mapWriteErr(fmt.Errorf("update book %s: %w", id, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a book that has never been loaned.
// Returns store.ErrBookHasLoans if any loan, open or returned, references it.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.getBook(ctx, tx, id); err != nil {
			return err
		}

		var count int
		countQ := s.builder.From(tableLoans).Prepared(true).
			Select(goqu.COUNT(goqu.Star())).
			Where(goqu.C(colBookID).Eq(id))
		if err := s.get(ctx, tx, &count, countQ); err != nil {
			return fmt.Errorf("count loans for book %s: %w", id, err)
		}
		if count > 0 {
			return store.ErrBookHasLoans
		}

		del := s.builder.Delete(tableBooks).Prepared(true).Where(goqu.C(colID).Eq(id))
		if _, err := s.exec(ctx, tx, del); err != nil {
			if isForeignKeyViolation(err) {
				return store.ErrBookHasLoans.WithCause(err)
			}
			return mapWriteErr(fmt.Errorf("delete book %s: %w", id, err))
		}
		return nil
	})
}
