package service

import (
	"errors"

	domainerrors "github.com/librarykit/loan-server/internal/errors"
	"github.com/librarykit/loan-server/internal/store"
)

// translateStoreError converts a store error into the domain error the API reports.
// op names the failed operation for internal errors.
func translateStoreError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrBookNotFound):
		return domainerrors.NotFound("Book not found").WithCause(err)
	case errors.Is(err, store.ErrOpenLoanNotFound):
		return domainerrors.NotFound("No open loan found for this book and user").WithCause(err)
	case errors.Is(err, store.ErrBookUnavailable):
		return domainerrors.BookUnavailable("Book is not available").WithCause(err)
	case errors.Is(err, store.ErrBookHasLoans):
		return domainerrors.Conflict("Book has loan history and cannot be deleted").WithCause(err)
	case errors.Is(err, store.ErrAvailabilityManaged):
		return domainerrors.Conflict("is_available changes only through borrow and return").WithCause(err)
	case errors.Is(err, store.ErrConflict):
		return domainerrors.Conflict("The record was modified concurrently, retry the request").WithCause(err)
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, op+" failed")
	}
}
