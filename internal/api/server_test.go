package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarykit/loan-server/internal/ratelimit"
	"github.com/librarykit/loan-server/internal/service"
	"github.com/librarykit/loan-server/internal/store"
	"github.com/librarykit/loan-server/internal/store/badgerstore"
	"github.com/librarykit/loan-server/internal/validation"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store store.Store
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := badgerstore.NewInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	v := validation.New()
	services := &Services{
		Book: service.NewBookService(st, v, logger),
		Loan: service.NewLoanService(st, v, logger),
	}

	s := NewServer(st, services, opts, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		store:  st,
	}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), "body: %s", resp.Body.String())
	return v
}

func requireAPIError(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) APIError {
	t.Helper()
	require.Equal(t, status, resp.Code, "body: %s", resp.Body.String())
	apiErr := decode[APIError](t, resp)
	assert.Equal(t, code, apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)
	return apiErr
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "disabled", health.Components["rate_limiter"].Message)
}

func TestHealthCheck_StoreDown(t *testing.T) {
	ts := setupTestServer(t, Options{})
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "unhealthy", health.Status)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/nope")
	requireAPIError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestRequestID(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/books")
	assert.Regexp(t, `^[0-9a-f-]{36}$`, resp.Header().Get(RequestIDHeader))

	resp = ts.api.Get("/api/books", RequestIDHeader+": trace-123")
	assert.Equal(t, "trace-123", resp.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t, Options{CORSAllowedOrigins: []string{"https://library.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "https://library.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "https://library.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(0.001, 2, 0)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, Options{RateLimiter: limiter})

	assert.Equal(t, http.StatusOK, ts.api.Get("/api/books").Code)
	assert.Equal(t, http.StatusOK, ts.api.Get("/api/books").Code)

	resp := ts.api.Get("/api/books")
	requireAPIError(t, resp, http.StatusTooManyRequests, "TOO_MANY_REQUESTS")

	// Another client has its own budget.
	resp = ts.api.Get("/api/books", "X-Real-IP: 203.0.113.9")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRecoverer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"INTERNAL","message":"Internal server error"}`, w.Body.String())
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", getClientIP(req))

	req.RemoteAddr = "192.0.2.8"
	assert.Equal(t, "192.0.2.8", getClientIP(req))
}
