package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/librarykit/loan-server/internal/domain"
	"github.com/librarykit/loan-server/internal/service"
)

func (s *Server) registerLoanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLoans",
		Method:      http.MethodGet,
		Path:        "/api/loans",
		Summary:     "List loans",
		Description: "Returns every loan, open and returned, oldest first",
		Tags:        []string{"Loans"},
	}, s.handleListLoans)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserLoans",
		Method:      http.MethodGet,
		Path:        "/api/loans/user",
		Summary:     "List my loans",
		Description: "Returns the loans of the user named by the x-user-id header",
		Tags:        []string{"Loans"},
	}, s.handleListUserLoans)

	huma.Register(s.api, huma.Operation{
		OperationID:   "borrowBook",
		Method:        http.MethodPost,
		Path:          "/api/loans",
		Summary:       "Borrow book",
		Description:   "Opens a loan on an available book for the calling user",
		Tags:          []string{"Loans"},
		DefaultStatus: http.StatusCreated,
	}, s.handleBorrowBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "returnBook",
		Method:      http.MethodPut,
		Path:        "/api/loans/{book_id}/return",
		Summary:     "Return book",
		Description: "Closes the calling user's open loan on a book",
		Tags:        []string{"Loans"},
	}, s.handleReturnBook)
}

// === DTOs ===

// LoanResponse contains loan data in API responses.
// Dates use the fixed layout "2006-01-02 15:04:05" in UTC.
type LoanResponse struct {
	ID         string  `json:"id" doc:"Loan ID"`
	BookID     string  `json:"book_id" doc:"Borrowed book ID"`
	BookTitle  string  `json:"book_title" doc:"Title of the borrowed book"`
	UserID     string  `json:"user_id" doc:"Borrowing user"`
	LoanDate   string  `json:"loan_date" doc:"When the loan was opened" example:"2026-03-01 09:30:00"`
	ReturnDate *string `json:"return_date" doc:"When the book was returned, null while on loan" example:"2026-03-08 17:00:00"`
}

// LoanOutput wraps a single loan for Huma.
type LoanOutput struct {
	Body LoanResponse
}

// LoanListOutput wraps a list of loans for Huma.
type LoanListOutput struct {
	Body []LoanResponse
}

// UserInput carries the caller identity header.
type UserInput struct {
	UserID string `header:"x-user-id" doc:"Caller-supplied user identifier"`
}

// BorrowRequest is the request body for borrowing a book.
type BorrowRequest struct {
	_      struct{} `json:"-" additionalProperties:"true"`
	BookID string   `json:"book_id,omitempty" doc:"Book to borrow (required)"`
}

// BorrowInput wraps the borrow request for Huma.
type BorrowInput struct {
	UserID string `header:"x-user-id" doc:"Caller-supplied user identifier"`
	Body   BorrowRequest
}

// ReturnInput addresses the loan to close.
type ReturnInput struct {
	UserID string `header:"x-user-id" doc:"Caller-supplied user identifier"`
	BookID string `path:"book_id" doc:"Book being returned"`
}

// === Handlers ===

func (s *Server) handleListLoans(ctx context.Context, _ *struct{}) (*LoanListOutput, error) {
	loans, err := s.services.Loan.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	return &LoanListOutput{Body: toLoanResponses(loans)}, nil
}

func (s *Server) handleListUserLoans(ctx context.Context, input *UserInput) (*LoanListOutput, error) {
	loans, err := s.services.Loan.ListUserLoans(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return &LoanListOutput{Body: toLoanResponses(loans)}, nil
}

func (s *Server) handleBorrowBook(ctx context.Context, input *BorrowInput) (*LoanOutput, error) {
	loan, err := s.services.Loan.BorrowBook(ctx, input.UserID, service.BorrowRequest{
		BookID: input.Body.BookID,
	})
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: toLoanResponse(loan)}, nil
}

func (s *Server) handleReturnBook(ctx context.Context, input *ReturnInput) (*LoanOutput, error) {
	loan, err := s.services.Loan.ReturnBook(ctx, input.UserID, input.BookID)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: toLoanResponse(loan)}, nil
}

// === Helpers ===

func toLoanResponse(v *service.LoanView) LoanResponse {
	resp := LoanResponse{
		ID:        v.ID,
		BookID:    v.BookID,
		BookTitle: v.BookTitle,
		UserID:    v.UserID,
		LoanDate:  domain.FormatLoanTime(v.LoanDate),
	}
	if v.ReturnDate != nil {
		returned := domain.FormatLoanTime(*v.ReturnDate)
		resp.ReturnDate = &returned
	}
	return resp
}

func toLoanResponses(loans []*service.LoanView) []LoanResponse {
	resp := make([]LoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = toLoanResponse(l)
	}
	return resp
}
