// Package api translates HTTP requests into calls on the job, user and
// settings services and renders their results as JSON. Handlers decode and
// validate input, map service errors to status codes and error codes, and
// never return raw internal error text to clients.
package api
