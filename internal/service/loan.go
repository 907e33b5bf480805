package service

import (
	"context"
	"errors"
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

// ErrMissingUserID is returned when an operation needs a caller identity and none was given.
var ErrMissingUserID = domainerrors.Validation("User ID not provided in header")

// BorrowRequest identifies the book to borrow.
type BorrowRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

// LoanView is a loan together with the title of its book, looked up at read time.
type LoanView struct {
	*domain.Loan
	BookTitle string
}

// LoanService orchestrates borrowing and returning books.
type LoanService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoanService creates a new loan service.
func NewLoanService(store store.Store, validator *validation.Validator, logger *slog.Logger) *LoanService {
	return &LoanService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// BorrowBook opens a loan on an available book for userID.
func (s *LoanService) BorrowBook(ctx context.Context, userID string, req BorrowRequest) (*LoanView, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	req.BookID = normalize.Token(req.BookID)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	loanID, err := id.Generate(id.PrefixLoan)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate loan id")
	}

	loan := domain.NewLoan(loanID, req.BookID, userID, s.now())
	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, translateStoreError(err, "borrow book")
	}

	s.logger.Info("book borrowed", logger.LoanID(loan.ID), logger.BookID(loan.BookID), logger.UserID(userID))
	return s.view(ctx, loan, newTitleCache(s.store))
}

// ReturnBook closes userID's open loan on bookID.
func (s *LoanService) ReturnBook(ctx context.Context, userID, bookID string) (*LoanView, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}

	loan, err := s.store.ReturnLoan(ctx, normalize.Token(bookID), userID, s.now())
	if err != nil {
		return nil, translateStoreError(err, "return book")
	}

	s.logger.Info("book returned", logger.LoanID(loan.ID), logger.BookID(loan.BookID), logger.UserID(userID))
	return s.view(ctx, loan, newTitleCache(s.store))
}

// ListLoans returns every loan, oldest first.
func (s *LoanService) ListLoans(ctx context.Context) ([]*LoanView, error) {
	return s.listLoans(ctx, domain.LoanFilter{})
}

// ListUserLoans returns the loans of one user, oldest first.
func (s *LoanService) ListUserLoans(ctx context.Context, userID string) ([]*LoanView, error) {
	userID, err := requireUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.listLoans(ctx, domain.LoanFilter{UserID: userID})
}

func (s *LoanService) listLoans(ctx context.Context, filter domain.LoanFilter) ([]*LoanView, error) {
	loans, err := s.store.ListLoans(ctx, filter)
	if err != nil {
		return nil, translateStoreError(err, "list loans")
	}

	titles := newTitleCache(s.store)
	views := make([]*LoanView, 0, len(loans))
	for _, loan := range loans {
		v, err := s.view(ctx, loan, titles)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *LoanService) view(ctx context.Context, loan *domain.Loan, titles *titleCache) (*LoanView, error) {
	title, err := titles.lookup(ctx, loan.BookID)
	if err != nil {
		return nil, translateStoreError(err, "look up book title")
	}
	return &LoanView{Loan: loan, BookTitle: title}, nil
}

func requireUserID(userID string) (string, error) {
	userID = normalize.Token(userID)
	if userID == "" {
		return "", ErrMissingUserID
	}
	return userID, nil
}

// titleCache memoizes book titles for the duration of one call.
type titleCache struct {
	store  store.Store
	titles map[string]string
}

func newTitleCache(s store.Store) *titleCache {
	return &titleCache{store: s, titles: make(map[string]string)}
}

// lookup returns the title of bookID. A book that no longer exists yields an
// empty title rather than failing the whole listing.
func (c *titleCache) lookup(ctx context.Context, bookID string) (string, error) {
	if title, ok := c.titles[bookID]; ok {
		return title, nil
	}

	book, err := c.store.GetBook(ctx, bookID)
	switch {
	case errors.Is(err, store.ErrBookNotFound):
		c.titles[bookID] = ""
		return "", nil
	case err != nil:
		return "", err
	}

	c.titles[bookID] = book.Title
	return book.Title, nil
}
