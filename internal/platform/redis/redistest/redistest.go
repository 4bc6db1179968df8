// Package redistest starts in-process Redis servers for tests.
package redistest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/altscribe/altscribe-api/internal/platform/redis"
	goredis "github.com/redis/go-redis/v9"
)

// NewBackend starts a miniredis server for the duration of the test and
// returns a backend connected to it.
func NewBackend(t testing.TB) (*redis.Backend, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	backend := redis.NewBackend(client, logger.Discard())
	t.Cleanup(func() { _ = backend.Close() })

	return backend, mr
}
