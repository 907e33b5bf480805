// Package sqlstore implements store.Store on database/sql, for SQLite and PostgreSQL.
//
// Queries are built with goqu for the selected dialect and scanned with sqlx.
// Borrow and return run in a single transaction each and rely on conditional
// updates, so the losing side of a race sees zero affected rows instead of
// overwriting the winner.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	_ "github.com/jackc/pgx/v5/stdlib"                  // "pgx" database/sql driver
	"github.com/jmoiron/sqlx"

	"github.com/librarykit/loan-server/internal/store"

	_ "modernc.org/sqlite" // "sqlite" database/sql driver
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	tableBooks = "books"
	tableLoans = "loans"

	colID          = "id"
	colTitle       = "title"
	colAuthor      = "author"
	colIsAvailable = "is_available"
	colCreatedAt   = "created_at"
	colUpdatedAt   = "updated_at"
	colBookID      = "book_id"
	colUserID      = "user_id"
	colLoanDate    = "loan_date"
	colReturnDate  = "return_date"
)

var _ store.Store = (*Store)(nil)

// dialect describes how one database flavor is opened and spoken to.
type dialect struct {
	sqlDriver string
	goqu      string
	schema    string
}

var dialects = map[string]dialect{
	DriverSQLite:   {sqlDriver: "sqlite", goqu: "sqlite3", schema: sqliteSchema},
	DriverPostgres: {sqlDriver: "pgx", goqu: "postgres", schema: postgresSchema},
}

// Store provides SQL-backed persistence for books and loans.
type Store struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
	driver  string
	logger  *slog.Logger
}

// Open connects to the database named by driver and dsn and applies the schema.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := applySchema(ctx, db, d.schema); err != nil {
		db.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("SQL store opened", "driver", driver)

	return &Store{
		db:      db,
		builder: goqu.Dialect(d.goqu),
		driver:  driver,
		logger:  logger,
	}, nil
}

// OpenSQLite opens (creating if needed) the SQLite database file at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	return Open(ctx, DriverSQLite, SQLiteDSN(path), logger)
}

// SQLiteDSN returns the connection string for the database file at path.
// Pragmas are applied per connection; transactions take the write lock up front
// so concurrent writers queue on busy_timeout instead of failing mid-transaction.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func applySchema(ctx context.Context, db *sqlx.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

func stripComments(stmt string) string {
	var b strings.Builder
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing SQL store", "driver", s.driver)
	return s.db.Close()
}

// sqlBuilder is satisfied by every goqu dataset.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (s *Store) exec(ctx context.Context, ex sqlx.ExecerContext, q sqlBuilder) (sql.Result, error) {
	query, args, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return ex.ExecContext(ctx, query, args...)
}

func (s *Store) get(ctx context.Context, qr sqlx.QueryerContext, dest any, q sqlBuilder) error {
	query, args, err := q.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.GetContext(ctx, qr, dest, query, args...)
}

func (s *Store) selectAll(ctx context.Context, qr sqlx.QueryerContext, dest any, q sqlBuilder) error {
	query, args, err := q.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, qr, dest, query, args...)
}

// inTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapWriteErr(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapWriteErr(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// timeValue converts t to the value stored in a timestamp column.
func (s *Store) timeValue(t time.Time) any {
	t = t.UTC()
	if s.driver == DriverSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

func (s *Store) books() *goqu.SelectDataset {
	return s.builder.From(tableBooks).Prepared(true).
		Select(colID, colTitle, colAuthor, colIsAvailable, colCreatedAt, colUpdatedAt)
}

func (s *Store) loans() *goqu.SelectDataset {
	return s.builder.From(tableLoans).Prepared(true).
		Select(colID, colBookID, colUserID, colLoanDate, colReturnDate)
}
