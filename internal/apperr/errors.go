// Package apperr defines the error taxonomy shared by the store and API
// layers. Handlers map these sentinels to HTTP statuses; everything else is
// treated as an internal store failure.
package apperr

import "errors"

var (
	// ErrNotFound: machine, building or page absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: operation precondition violated, e.g. starting a
	// machine that is not available.
	ErrInvalidState = errors.New("invalid state")
	// ErrConfigNotLoaded: the residence configuration is not resolved; the
	// caller should retry after selecting a known residence.
	ErrConfigNotLoaded = errors.New("residence configuration not loaded")
	// ErrStoreUnavailable: the underlying store gave up, e.g. the
	// optimistic-concurrency retry limit was exhausted.
	ErrStoreUnavailable = errors.New("store unavailable")
)
