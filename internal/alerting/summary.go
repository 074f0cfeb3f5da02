package alerting

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionOutcome is one finished position's contribution to the
// session summary.
type PositionOutcome struct {
	Pair   string
	Side   string
	Reason string // take_profit, stop_loss, time_limit, canceled
	PnL    decimal.Decimal
}

// SessionSummary contains the statistics for one bot session.
type SessionSummary struct {
	Start          time.Time
	End            time.Time
	TotalPositions int
	Wins           int
	Losses         int
	Canceled       int
	WinRate        decimal.Decimal // percent of decided positions
	TotalPnL       decimal.Decimal
	AvgPnL         decimal.Decimal
	BestPnL        decimal.Decimal
	WorstPnL       decimal.Decimal
	ByReason       map[string]int
}

// NewSessionSummary builds a session summary from the finished
// positions. Cancelled entries count toward the total but are excluded
// from the PnL statistics and the win rate.
func NewSessionSummary(start, end time.Time, outcomes []PositionOutcome) SessionSummary {
	s := SessionSummary{
		Start:          start,
		End:            end,
		TotalPositions: len(outcomes),
		ByReason:       make(map[string]int),
	}

	decided := 0
	first := true
	for _, o := range outcomes {
		s.ByReason[o.Reason]++
		if o.Reason == "canceled" {
			s.Canceled++
			continue
		}

		decided++
		s.TotalPnL = s.TotalPnL.Add(o.PnL)
		if o.PnL.IsPositive() {
			s.Wins++
		} else if o.PnL.IsNegative() {
			s.Losses++
		}

		if first {
			s.BestPnL = o.PnL
			s.WorstPnL = o.PnL
			first = false
			continue
		}
		if o.PnL.GreaterThan(s.BestPnL) {
			s.BestPnL = o.PnL
		}
		if o.PnL.LessThan(s.WorstPnL) {
			s.WorstPnL = o.PnL
		}
	}

	if decided > 0 {
		n := decimal.NewFromInt(int64(decided))
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(n).Mul(decimal.NewFromInt(100))
		s.AvgPnL = s.TotalPnL.Div(n)
	}
	return s
}
