package model

import "errors"

// Sentinel errors shared by the store, the lifecycle engine, and the API.
var (
	ErrNotFound          = errors.New("item not found")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrForbidden         = errors.New("not permitted for this actor")
	ErrStaleState        = errors.New("status changed concurrently")
	ErrItemNotAvailable  = errors.New("item is not available")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPersistence       = errors.New("persistence failure")
)

// Reason codes returned to clients. They are stable across releases.
const (
	ReasonNotFound          = "not_found"
	ReasonInvalidTransition = "invalid_transition"
	ReasonForbidden         = "forbidden"
	ReasonStaleState        = "stale_state"
	ReasonItemNotAvailable  = "item_not_available"
	ReasonInvalidInput      = "invalid_input"
	ReasonPersistence       = "persistence_failure"
)

var reasons = []struct {
	err  error
	code string
}{
	{ErrNotFound, ReasonNotFound},
	{ErrInvalidTransition, ReasonInvalidTransition},
	{ErrForbidden, ReasonForbidden},
	{ErrItemNotAvailable, ReasonItemNotAvailable},
	{ErrStaleState, ReasonStaleState},
	{ErrInvalidInput, ReasonInvalidInput},
	{ErrPersistence, ReasonPersistence},
}

// Reason returns the stable reason code for err. Unknown errors are
// persistence failures.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return ReasonPersistence
}
