// Package auth provides session management and password hashing.
//
// Sessions are server-side records with a fixed TTL; clients receive an
// HS256-signed envelope carrying only the session id, either as a bearer
// token or in an HttpOnly cookie.
package auth
