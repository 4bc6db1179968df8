// Package store defines the storage abstraction shared by every stateful
// component: a key/value Collection over JSON documents, a Backend that hands
// out named collections, startup backend selection, and the typed
// repositories for jobs, proposals and users built on top of it.
//
// Backends live under internal/platform: redis provides the ephemeral TTL
// cache and docstore provides the durable partitioned document table.
package store
