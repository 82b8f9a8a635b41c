// internal/types/errors.go
package types

import "errors"

// Orchestration failure kinds. Callers classify with errors.Is; wrapped
// errors carry the human-readable detail.
var (
	// ErrInvalidInput marks malformed, oversized, or wrong-typed content.
	// It is raised before any gateway call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGatewayTimeout marks an inference call that exceeded its deadline.
	ErrGatewayTimeout = errors.New("inference gateway timeout")

	// ErrGatewayFailure marks any other inference gateway error.
	ErrGatewayFailure = errors.New("inference gateway failure")

	// ErrSessionStore marks a persistence failure. Losing history never
	// blocks answering the user, so this is reported, not returned.
	ErrSessionStore = errors.New("session store unavailable")
)
