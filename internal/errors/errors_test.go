package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeBookUnavailable, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequests, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound("book not found")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := Wrap(cause, CodeInternal, "failed to save book")

	assert.Equal(t, "failed to save book: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestError_WithDetails(t *testing.T) {
	details := map[string]string{"title": "is required"}
	err := ValidationWithDetails("validation failed", nil).WithDetails(details)

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
	assert.Equal(t, details, domainErr.Details)
}

func TestError_WithCauseDoesNotMutateSentinel(t *testing.T) {
	cause := stderrors.New("underlying")
	wrapped := ErrConflict.WithCause(cause)

	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, ErrConflict.Unwrap())
}

func TestFormattedConstructors(t *testing.T) {
	assert.Equal(t, "book book-1 not found", NotFoundf("book %s not found", "book-1").Message)
	assert.Equal(t, "title too long: 101", Validationf("title too long: %d", 101).Message)
	assert.Equal(t, "book b has 2 loans", Conflictf("book %s has %d loans", "b", 2).Message)
	assert.Equal(t, CodeBookUnavailable, BookUnavailable("Book is not available").Code)
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeForStatus(http.StatusBadRequest))
	assert.Equal(t, CodeValidation, CodeForStatus(http.StatusUnprocessableEntity))
	assert.Equal(t, CodeNotFound, CodeForStatus(http.StatusNotFound))
	assert.Equal(t, CodeConflict, CodeForStatus(http.StatusConflict))
	assert.Equal(t, CodeTooManyRequests, CodeForStatus(http.StatusTooManyRequests))
	assert.Equal(t, CodeInternal, CodeForStatus(http.StatusMethodNotAllowed))
}
