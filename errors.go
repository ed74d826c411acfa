package kilnlog

import "errors"

var (
	// ErrNotFound is returned when an item or photo does not exist, or when it
	// exists but belongs to a different owner. The two cases are deliberately
	// indistinguishable to callers.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when input fields fail validation
	ErrValidation = errors.New("validation failure")
	// ErrStoreUnavailable is returned on transport or connectivity faults
	// against the document store or the blob store
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUpstream is returned for any other unexpected store-client fault
	ErrUpstream = errors.New("upstream failure")
	// ErrInvariant is reserved for defensive checks that are not expected to
	// fire; assert it rather than silently tolerate a broken state
	ErrInvariant = errors.New("invariant violation")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
)
