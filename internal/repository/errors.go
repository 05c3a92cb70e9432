// Package repository defines error types that are reused across the data
// access layer.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.  For
// example, ErrTransactionNotFound indicates that no transaction row
// matches the requested identifier, while ErrSessionAlreadySet signals
// an attempt to overwrite a checkout session id that has already been
// persisted (the id is immutable for the life of the row).
package repository

import "errors"

// ErrTransactionNotFound is returned when a lookup or update targets a
// transaction id or checkout session id with no matching row.  Handlers
// should translate this into an HTTP 404 response.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrSessionAlreadySet is returned when a write would change a
// checkout_session_id that is already populated.  The session id is set
// exactly once, right after the provider responds, and never mutated.
var ErrSessionAlreadySet = errors.New("checkout session id already set")
