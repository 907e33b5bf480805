package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/librarykit/loan-server/internal/service"
	"github.com/librarykit/loan-server/internal/validation"
)

// ProvideValidator provides the request validator shared by all services.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewBookService(storeHandle.Store, v, log), nil
}

// ProvideLoanService provides the loan service.
func ProvideLoanService(i do.Injector) (*service.LoanService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewLoanService(storeHandle.Store, v, log), nil
}
