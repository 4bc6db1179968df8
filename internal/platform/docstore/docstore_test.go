package docstore

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens an in-memory SQLite database and applies the migrations.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(context.Background(), db, DialectSQLite, logger.Discard()))
	return New(db, DialectSQLite, logger.Discard())
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		dialect Dialect
		dsn     string
		wantErr bool
	}{
		{url: "postgres://u:p@localhost:5432/db", dialect: DialectPostgres, dsn: "postgres://u:p@localhost:5432/db"},
		{url: "postgresql://localhost/db", dialect: DialectPostgres, dsn: "postgresql://localhost/db"},
		{url: "sqlite://data/altscribe.db", dialect: DialectSQLite, dsn: "data/altscribe.db"},
		{url: "sqlite::memory:", dialect: DialectSQLite, dsn: ":memory:"},
		{url: "mysql://localhost/db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialect, dsn, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, dialect)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: DialectPostgres}
	lite := &Store{dialect: DialectSQLite}

	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}

func TestContainerCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jobs := s.Collection("jobs")

	_, err := jobs.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, jobs.Set(ctx, "a", []byte(`{"v":1}`)))
	require.NoError(t, jobs.Set(ctx, "a", []byte(`{"v":2}`)), "set is an upsert")

	data, err := jobs.Get(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	ok, err := jobs.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, jobs.Delete(ctx, "a"))
	require.NoError(t, jobs.Delete(ctx, "a"))

	ok, err = jobs.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContainerExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	sessions := s.Collection("sessions")

	require.NoError(t, sessions.SetWithTTL(ctx, "s1", []byte(`{}`), time.Minute))
	require.NoError(t, sessions.SetWithTTL(ctx, "s2", []byte(`{}`), time.Hour))

	_, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, err = sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := sessions.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	purged, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestContainerListAllIsolatesContainers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	users := s.Collection("users")

	require.NoError(t, users.Set(ctx, "u1", []byte(`"one"`)))
	require.NoError(t, users.Set(ctx, "u2", []byte(`"two"`)))
	require.NoError(t, s.Collection("jobs").Set(ctx, "j1", []byte(`"job"`)))

	raw, err := users.ListAll(ctx)
	require.NoError(t, err)

	got := []string{}
	for _, r := range raw {
		got = append(got, string(r))
	}
	sort.Strings(got)
	assert.Equal(t, []string{`"one"`, `"two"`}, got)
}

func TestMigrationStatusAndDown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	statuses, err := Status(ctx, s.DB(), DialectSQLite)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.True(t, st.Applied, "migration %d should be applied", st.Version)
	}

	require.NoError(t, MigrateDown(ctx, s.DB(), DialectSQLite, logger.Discard()))

	statuses, err = Status(ctx, s.DB(), DialectSQLite)
	require.NoError(t, err)
	assert.False(t, statuses[len(statuses)-1].Applied)
}

func TestOpenSQLiteFile(t *testing.T) {
	path := t.TempDir() + "/docs.db"

	s, err := Open(context.Background(), "sqlite://"+path, logger.Discard())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, "sqlite", s.Name())
	require.NoError(t, s.Collection("settings").Set(context.Background(), "k", []byte(`{}`)))
}

func TestOpenUnsupportedURL(t *testing.T) {
	_, err := Open(context.Background(), "mongodb://localhost", logger.Discard())
	assert.Error(t, err)
}
