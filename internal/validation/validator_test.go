package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/librarykit/loan-server/internal/errors"
	"github.com/librarykit/loan-server/internal/validation"
)

type bookRequest struct {
	Title  string  `json:"title" validate:"required,max=100"`
	Author string  `json:"author,omitempty" validate:"required,max=100"`
	Note   *string `json:"note,omitempty" validate:"omitempty,min=1,max=10"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookRequest{Title: "Dune", Author: "Frank Herbert"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()
	empty := ""

	tests := []struct {
		name      string
		req       bookRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing title",
			req:       bookRequest{Author: "Frank Herbert"},
			wantField: "title",
			wantMsg:   "is required",
		},
		{
			name:      "missing author uses json name without options",
			req:       bookRequest{Title: "Dune"},
			wantField: "author",
			wantMsg:   "is required",
		},
		{
			name:      "title too long",
			req:       bookRequest{Title: strings.Repeat("a", 101), Author: "A"},
			wantField: "title",
			wantMsg:   "must not exceed 100 characters",
		},
		{
			name:      "supplied pointer must not be empty",
			req:       bookRequest{Title: "Dune", Author: "A", Note: &empty},
			wantField: "note",
			wantMsg:   "must be at least 1 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok, "details should be a field map")
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_MultipleFields(t *testing.T) {
	v := validation.New()

	err := v.Validate(bookRequest{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Len(t, details, 2)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "author")
}
