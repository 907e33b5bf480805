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

// CreateBook stores a new book.
// Returns store.ErrConflict if a book with the same ID exists.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		key := bookKey(book.ID)
		found, err := exists(txn, key)
		if err != nil {
			return fmt.Errorf("check book: %w", err)
		}
		if found {
			return store.ErrConflict.WithMessage(fmt.Sprintf("book %s already exists", book.ID))
		}
		return setJSON(txn, key, book)
	})
}

// GetBook retrieves a book by ID.
// Returns store.ErrBookNotFound if it does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var book *domain.Book
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		book, err = getBook(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func getBook(txn *badger.Txn, id string) (*domain.Book, error) {
	var book domain.Book
	err := getJSON(txn, bookKey(id), &book)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	return &book, nil
}

// ListBooks returns books in creation order, oldest first.
func (s *Store) ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	books := make([]*domain.Book, 0)
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanValues(txn, []byte(bookPrefix), func(val []byte) error {
			var b domain.Book
			if err := json.Unmarshal(val, &b); err != nil {
				return err
			}
			if filter.Matches(&b) {
				books = append(books, &b)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	slices.SortFunc(books, func(a, b *domain.Book) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return books, nil
}

// UpdateBook applies a partial update to title and author.
// Returns store.ErrAvailabilityManaged if the update tries to change availability.
func (s *Store) UpdateBook(ctx context.Context, id string, update domain.BookUpdate, now time.Time) (*domain.Book, error) {
	var book *domain.Book
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		book, err = getBook(txn, id)
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
		return setJSON(txn, bookKey(id), book)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a book that has never been loaned.
// Returns store.ErrBookHasLoans if any loan references it.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := getBook(txn, id); err != nil {
			return err
		}
		if len(scanKeys(txn, loansByBookPrefix(id))) > 0 {
			return store.ErrBookHasLoans
		}
		return txn.Delete(bookKey(id))
	})
}
