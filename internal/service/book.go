// Package service implements the book and loan operations on top of a store.Store.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/librarykit/loan-server/internal/domain"
	domainerrors "github.com/librarykit/loan-server/internal/errors"
	"github.com/librarykit/loan-server/internal/id"
	"github.com/librarykit/loan-server/internal/logger"
	"github.com/librarykit/loan-server/internal/normalize"
	"github.com/librarykit/loan-server/internal/store"
	"github.com/librarykit/loan-server/internal/validation"
)

// CreateBookRequest holds the fields accepted when adding a book.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Author      string `json:"author" validate:"required,max=100"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

// UpdateBookRequest holds a partial book update. Nil fields are left untouched.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1,max=100"`
	Author      *string `json:"author,omitempty" validate:"omitnil,min=1,max=100"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}

// BookService orchestrates book operations.
type BookService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookService creates a new book service.
func NewBookService(store store.Store, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateBook validates and stores a new, available book.
// A new book has no loans, so asking for is_available=false is rejected.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	req.Title = normalize.Text(req.Title)
	req.Author = normalize.Text(req.Author)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.IsAvailable != nil && !*req.IsAvailable {
		return nil, domainerrors.ValidationWithDetails(
			"A new book has no loans and must be available",
			map[string]string{"is_available": "must be true for a new book"},
		)
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
	}

	book := domain.NewBook(bookID, req.Title, req.Author)
	book.InitTimestamps(s.now())

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, translateStoreError(err, "create book")
	}

	s.logger.Info("book created", logger.BookID(book.ID), slog.String("title", book.Title))
	return book, nil
}

// GetBook returns a book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, translateStoreError(err, "get book")
	}
	return book, nil
}

// ListBooks returns every book in creation order.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.listBooks(ctx, domain.BookFilter{})
}

// ListAvailableBooks returns only books with no open loan.
func (s *BookService) ListAvailableBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.listBooks(ctx, domain.BookFilter{AvailableOnly: true})
}

func (s *BookService) listBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, translateStoreError(err, "list books")
	}
	return books, nil
}

// UpdateBook applies the supplied fields to a book.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	req.Title = normalize.TextPtr(req.Title)
	req.Author = normalize.TextPtr(req.Author)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	update := domain.BookUpdate{
		Title:       req.Title,
		Author:      req.Author,
		IsAvailable: req.IsAvailable,
	}

	book, err := s.store.UpdateBook(ctx, bookID, update, s.now())
	if err != nil {
		return nil, translateStoreError(err, "update book")
	}

	if update.ChangesStoredFields() {
		s.logger.Info("book updated", logger.BookID(book.ID))
	}
	return book, nil
}

// DeleteBook removes a book that has never been loaned.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return translateStoreError(err, "delete book")
	}

	s.logger.Info("book deleted", logger.BookID(bookID))
	return nil
}
