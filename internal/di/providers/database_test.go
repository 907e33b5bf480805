package providers

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarykit/loan-server/internal/config"
	"github.com/librarykit/loan-server/internal/domain"
	"github.com/librarykit/loan-server/internal/store/badgerstore"
	"github.com/librarykit/loan-server/internal/store/sqlstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore_Drivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name   string
		driver string
		url    string
		check  func(t *testing.T, st any)
	}{
		{
			name:   "sqlite",
			driver: config.StoreDriverSQLite,
			url:    filepath.Join(dir, "nested", "library.db"),
			check: func(t *testing.T, st any) {
				assert.IsType(t, &sqlstore.Store{}, st)
			},
		},
		{
			name:   "badger",
			driver: config.StoreDriverBadger,
			url:    filepath.Join(dir, "badger"),
			check: func(t *testing.T, st any) {
				assert.IsType(t, &badgerstore.Store{}, st)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Store: config.StoreConfig{Driver: tt.driver, DatabaseURL: tt.url}}

			st, err := OpenStore(ctx, cfg, discardLogger())
			require.NoError(t, err)
			t.Cleanup(func() { st.Close() })

			tt.check(t, st)
			require.NoError(t, st.Ping(ctx))

			book := domain.NewBook("book-1", "Dune", "Frank Herbert")
			book.InitTimestamps(time.Now())
			require.NoError(t, st.CreateBook(ctx, book))

			got, err := st.GetBook(ctx, "book-1")
			require.NoError(t, err)
			assert.Equal(t, "Dune", got.Title)
		})
	}
}

func TestOpenStore_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	_, err := OpenStore(context.Background(), cfg, discardLogger())
	assert.ErrorContains(t, err, "unsupported store driver")
}
