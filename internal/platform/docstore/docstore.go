package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/altscribe/altscribe-api/internal/store"

	// Register the database/sql drivers.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL engine behind a Store.
type Dialect string

// Supported dialects
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "pgx"
}

// ParseURL maps a database URL to its dialect and driver DSN.
// postgres:// and postgresql:// URLs are passed to pgx unchanged;
// sqlite://path and sqlite:path select SQLite on the given file.
func ParseURL(url string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "sqlite:"):
		return DialectSQLite, strings.TrimPrefix(url, "sqlite:"), nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme")
	}
}

// Store is a store.Backend on a partitioned document table.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	now     func() time.Time
}

var _ store.Backend = (*Store)(nil)

// Open connects to the database at url, verifies the connection and applies
// pending migrations.
func Open(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	dialect, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := New(db, dialect, logger)
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db, dialect, s.logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. The schema must already be migrated.
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger.With("component", "docstore", "dialect", string(dialect)),
		now:     time.Now,
	}
}

// DB exposes the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Collection returns the named container.
func (s *Store) Collection(name string) store.Collection {
	return &container{store: s, name: name}
}

// Name returns the dialect name.
func (s *Store) Name() string {
	return string(s.dialect)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const (
	upsertQuery = `INSERT INTO documents (container, partition_key, id, data, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (container, partition_key, id)
DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at, updated_at = excluded.updated_at`

	getQuery = `SELECT data, expires_at FROM documents
WHERE container = ? AND partition_key = ? AND id = ?`

	deleteQuery = `DELETE FROM documents WHERE container = ? AND partition_key = ? AND id = ?`

	listQuery = `SELECT data FROM documents
WHERE container = ? AND (expires_at IS NULL OR expires_at > ?)`

	purgeQuery = `DELETE FROM documents WHERE expires_at IS NOT NULL AND expires_at <= ?`
)

// PurgeExpired deletes every expired document and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(purgeQuery), s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired documents: %w", err)
	}
	return res.RowsAffected()
}

// container is one collection. The partition key of every document equals
// its id, so point reads hit a single partition and ListAll scans them all.
type container struct {
	store *Store
	name  string
}

func (c *container) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data      string
		expiresAt sql.NullInt64
	)
	row := c.store.db.QueryRowContext(ctx, c.store.rebind(getQuery), c.name, key, key)
	if err := row.Scan(&data, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document %s/%s: %w", c.name, key, err)
	}

	if expiresAt.Valid && expiresAt.Int64 <= c.store.now().UnixMilli() {
		if err := c.Delete(ctx, key); err != nil {
			c.store.logger.Debug("failed to delete expired document",
				"container", c.name, "error", err)
		}
		return nil, store.ErrNotFound
	}
	return []byte(data), nil
}

func (c *container) Set(ctx context.Context, key string, value []byte) error {
	return c.write(ctx, key, value, sql.NullInt64{})
}

func (c *container) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expires := sql.NullInt64{Int64: c.store.now().Add(ttl).UnixMilli(), Valid: true}
	return c.write(ctx, key, value, expires)
}

func (c *container) write(ctx context.Context, key string, value []byte, expires sql.NullInt64) error {
	_, err := c.store.db.ExecContext(ctx, c.store.rebind(upsertQuery),
		c.name, key, key, string(value), expires, c.store.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", c.name, key, err)
	}
	return nil
}

func (c *container) Delete(ctx context.Context, key string) error {
	_, err := c.store.db.ExecContext(ctx, c.store.rebind(deleteQuery), c.name, key, key)
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", c.name, key, err)
	}
	return nil
}

func (c *container) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *container) ListAll(ctx context.Context) ([][]byte, error) {
	rows, err := c.store.db.QueryContext(ctx, c.store.rebind(listQuery), c.name, c.store.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list container %s: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	var out [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan document in %s: %w", c.name, err)
		}
		out = append(out, []byte(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate container %s: %w", c.name, err)
	}
	return out, nil
}
