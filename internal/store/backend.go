package store

import (
	"context"
	"time"
)

// Collection names used by the application.
const (
	CollectionJobs      = "jobs"
	CollectionProposals = "proposals"
	CollectionUsers     = "users"
	CollectionSettings  = "settings"
	CollectionSessions  = "sessions"
)

// Collection is a named set of JSON documents addressed by key.
// Implementations must behave identically regardless of the backing store.
// Version: 1.0
type Collection interface {
	// Get returns the document stored under key, or ErrNotFound when it is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set upserts a document with no expiry.
	Set(ctx context.Context, key string, value []byte) error

	// SetWithTTL upserts a document that expires after ttl.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a document. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an unexpired document is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// ListAll returns every unexpired document in the collection, unordered.
	ListAll(ctx context.Context) ([][]byte, error)
}

// Backend hands out collections backed by one storage engine.
// Version: 1.0
type Backend interface {
	// Collection returns the named collection.
	Collection(name string) Collection

	// Name identifies the engine, e.g. "redis" or "postgres".
	Name() string

	// Ping checks that the engine is reachable.
	Ping(ctx context.Context) error

	// Close releases the engine's resources.
	Close() error
}
