package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBook(t *testing.T, ts *testServer, title, author string) BookResponse {
	t.Helper()
	resp := ts.api.Post("/api/books", map[string]any{"title": title, "author": author})
	require.Equal(t, http.StatusCreated, resp.Code, "body: %s", resp.Body.String())
	return decode[BookResponse](t, resp)
}

func TestCreateBook_RoundTrip(t *testing.T) {
	ts := setupTestServer(t, Options{})

	created := createBook(t, ts, "Test Book", "Test Author")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Test Book", created.Title)
	assert.Equal(t, "Test Author", created.Author)
	assert.True(t, created.IsAvailable)

	resp := ts.api.Get("/api/books/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created, decode[BookResponse](t, resp))

	// Exactly the documented fields are serialized.
	raw := decode[map[string]any](t, resp)
	assert.Len(t, raw, 4)
}

func TestCreateBook_Validation(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name string
		body any
	}{
		{"missing title", map[string]any{"author": "A"}},
		{"missing author", map[string]any{"title": "T"}},
		{"empty fields", map[string]any{"title": "", "author": " "}},
		{"not available", map[string]any{"title": "T", "author": "A", "is_available": false}},
		{"wrong type", map[string]any{"title": 42, "author": "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/books", tt.body)
			requireAPIError(t, resp, http.StatusBadRequest, "VALIDATION")
		})
	}

	t.Run("no body", func(t *testing.T) {
		resp := ts.api.Post("/api/books")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	resp := ts.api.Get("/api/books")
	assert.Empty(t, decode[[]BookResponse](t, resp))
}

func TestCreateBook_IgnoresUnknownFields(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/books", map[string]any{"title": "T", "author": "A", "isbn": "123"})
	assert.Equal(t, http.StatusCreated, resp.Code, "body: %s", resp.Body.String())
}

func TestGetBook_NotFound(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/books/book-missing")
	requireAPIError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestListBooks(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/books")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	a := createBook(t, ts, "A", "Author")
	b := createBook(t, ts, "B", "Author")

	resp = ts.api.Get("/api/books")
	books := decode[[]BookResponse](t, resp)
	require.Len(t, books, 2)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, []string{books[0].ID, books[1].ID})
}

func TestUpdateBook(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := createBook(t, ts, "Old", "Author")

	resp := ts.api.Put("/api/books/"+b.ID, map[string]any{"title": "New"})
	require.Equal(t, http.StatusOK, resp.Code, "body: %s", resp.Body.String())

	updated := decode[BookResponse](t, resp)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Author", updated.Author)
	assert.True(t, updated.IsAvailable)

	resp = ts.api.Put("/api/books/"+b.ID, map[string]any{"is_available": true})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Put("/api/books/"+b.ID, map[string]any{"is_available": false})
	requireAPIError(t, resp, http.StatusConflict, "CONFLICT")

	resp = ts.api.Put("/api/books/"+b.ID, map[string]any{"author": ""})
	requireAPIError(t, resp, http.StatusBadRequest, "VALIDATION")

	resp = ts.api.Put("/api/books/book-missing", map[string]any{"title": "x"})
	requireAPIError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteBook(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := createBook(t, ts, "T", "A")

	resp := ts.api.Delete("/api/books/" + b.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"message":"Book deleted successfully"}`, resp.Body.String())

	resp = ts.api.Get("/api/books/" + b.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/books/" + b.ID)
	requireAPIError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteBook_WithLoanHistory(t *testing.T) {
	ts := setupTestServer(t, Options{})
	b := createBook(t, ts, "T", "A")
	borrowBook(t, ts, b.ID, "u-1")

	resp := ts.api.Delete("/api/books/" + b.ID)
	requireAPIError(t, resp, http.StatusConflict, "CONFLICT")

	resp = ts.api.Get("/api/books/" + b.ID)
	assert.Equal(t, http.StatusOK, resp.Code)
}
