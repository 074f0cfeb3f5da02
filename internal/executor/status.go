package executor

// Status is the lifecycle state of a position executor.
type Status int

const (
	StatusNotStarted Status = iota
	StatusOrderPlaced
	StatusActivePosition
	StatusClosePlaced
	StatusClosedByTakeProfit
	StatusClosedByStopLoss
	StatusClosedByTimeLimit
	StatusCanceledByTimeLimit
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusOrderPlaced:
		return "ORDER_PLACED"
	case StatusActivePosition:
		return "ACTIVE_POSITION"
	case StatusClosePlaced:
		return "CLOSE_PLACED"
	case StatusClosedByTakeProfit:
		return "CLOSED_BY_TAKE_PROFIT"
	case StatusClosedByStopLoss:
		return "CLOSED_BY_STOP_LOSS"
	case StatusClosedByTimeLimit:
		return "CLOSED_BY_TIME_LIMIT"
	case StatusCanceledByTimeLimit:
		return "CANCELED_BY_TIME_LIMIT"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	switch s {
	case StatusClosedByTakeProfit, StatusClosedByStopLoss, StatusClosedByTimeLimit, StatusCanceledByTimeLimit:
		return true
	default:
		return false
	}
}

// CloseReason returns the label used in logs, metrics, and the journal
// for a terminal status.
func (s Status) CloseReason() string {
	switch s {
	case StatusClosedByTakeProfit:
		return "take_profit"
	case StatusClosedByStopLoss:
		return "stop_loss"
	case StatusClosedByTimeLimit:
		return "time_limit"
	case StatusCanceledByTimeLimit:
		return "canceled"
	default:
		return "open"
	}
}

// slotID identifies one of the four tracked order slots. Event dispatch
// checks slots in this order.
type slotID int

const (
	slotNone slotID = iota
	slotEntry
	slotStopLoss
	slotTimeLimit
	slotTakeProfit
)

func (s slotID) String() string {
	switch s {
	case slotEntry:
		return "entry"
	case slotStopLoss:
		return "stop_loss"
	case slotTimeLimit:
		return "time_limit"
	case slotTakeProfit:
		return "take_profit"
	default:
		return "none"
	}
}
