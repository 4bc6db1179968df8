// Package domain contains the core business entities of the application:
// jobs and their progress, alt-text proposals, users and sessions. It has no
// dependencies on storage or transport.
package domain
