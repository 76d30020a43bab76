package domain

import (
	"errors"
	"fmt"
)

// ErrMissingPrice is returned when a vehicle has neither a TND nor a EUR price.
// Callers treat it as "calculation unavailable", not as a hard failure.
var ErrMissingPrice = errors.New("vehicle has no usable price")

// InvalidFilterError reports an unrecognized enum value in a filter dimension.
// It is rejected at the request boundary, before the pipeline runs.
type InvalidFilterError struct {
	Field string
	Value string
}

func (e InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %s=%q", e.Field, e.Value)
}

// UpstreamFetchError wraps a candidate-fetch failure. The pipeline reports an
// empty result instead of propagating it to the end user.
type UpstreamFetchError struct {
	Err error
}

func (e UpstreamFetchError) Error() string {
	return fmt.Sprintf("candidate fetch failed: %v", e.Err)
}

func (e UpstreamFetchError) Unwrap() error { return e.Err }
