// Package store persists fingerprint documents in SQLite and serves the
// lookups the worker needs: fetching a raw document by identifier and
// counting how many of a batch's identifiers exist for verification.
package store
