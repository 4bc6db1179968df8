// Package secrets manages the third-party API keys the application calls out
// with. Keys saved through the admin API are encrypted at rest in the
// settings collection; when none is saved the environment value is used.
package secrets
