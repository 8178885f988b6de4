package provider

import "errors"

var (
	// ErrProviderUnavailable indicates the provider could not be reached
	ErrProviderUnavailable = errors.New("probability provider unavailable")

	// ErrCircuitOpen indicates the client stopped calling after repeated failures
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrInvalidResponse indicates the provider returned an unusable payload
	ErrInvalidResponse = errors.New("invalid response from probability provider")
)
