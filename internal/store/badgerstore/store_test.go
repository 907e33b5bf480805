package badgerstore

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarykit/loan-server/internal/domain"
	"github.com/librarykit/loan-server/internal/store"
	"github.com/librarykit/loan-server/internal/store/storetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory(testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStoreSuite(t *testing.T) {
	storetest.RunStoreSuite(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestNew_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir, testLogger())
	require.NoError(t, err)

	b := domain.NewBook("book-1", "Persisted", "Someone")
	b.InitTimestamps(time.Now())
	require.NoError(t, s.CreateBook(ctx, b))
	require.NoError(t, s.Close())

	s, err = New(dir, testLogger())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
}

func TestPing_Closed(t *testing.T) {
	s, err := NewInMemory(testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Error(t, s.Ping(context.Background()))
}

func TestCreateLoan_WritesIndexes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := domain.NewBook("book-1", "T", "A")
	b.InitTimestamps(time.Now())
	require.NoError(t, s.CreateBook(ctx, b))
	require.NoError(t, s.CreateLoan(ctx, domain.NewLoan("loan-1", "book-1", "user:with:colons", time.Now())))

	err := s.db.View(func(txn *badger.Txn) error {
		assert.Equal(t, []string{"loan-1"}, scanKeys(txn, loansByBookPrefix("book-1")))
		assert.Equal(t, []string{"loan-1"}, scanKeys(txn, loansByUserPrefix("user:with:colons")))
		assert.Empty(t, scanKeys(txn, loansByUserPrefix("user")))

		open, err := exists(txn, openLoanKey("book-1"))
		assert.True(t, open)
		return err
	})
	require.NoError(t, err)

	_, err = s.ReturnLoan(ctx, "book-1", "user:with:colons", time.Now().Add(time.Minute))
	require.NoError(t, err)

	err = s.db.View(func(txn *badger.Txn) error {
		open, err := exists(txn, openLoanKey("book-1"))
		assert.False(t, open)
		return err
	})
	require.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, context.Canceled)
}
