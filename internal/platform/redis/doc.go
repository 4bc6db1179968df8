// Package redis implements the ephemeral storage backend and the shared job
// queue on Redis. Documents are stored as plain string values under
// "<collection>:<key>"; expiry uses native Redis TTLs.
package redis
