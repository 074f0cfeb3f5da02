package types

import "errors"

// Sentinel errors for the position controller.
var (
	// Order errors
	ErrInvalidOrder   = errors.New("invalid order request")
	ErrDuplicateOrder = errors.New("duplicate order id")
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderDone      = errors.New("order already in a final state")
	ErrRateLimited    = errors.New("order rate limit exceeded")

	// Market data errors
	ErrPriceUnavailable = errors.New("mid price unavailable")

	// Connector errors
	ErrConnectorClosed = errors.New("connector closed")

	// Executor errors
	ErrExecutorStopped = errors.New("executor stopped")
	ErrNotTerminal     = errors.New("executor not in a terminal state")
	ErrMaxPositions    = errors.New("position limit reached")

	// Validation errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidSide      = errors.New("invalid side")
	ErrInvalidOrderType = errors.New("invalid order type")
)
