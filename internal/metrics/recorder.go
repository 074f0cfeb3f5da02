package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recorder provides methods for recording metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordOrderSubmitted records an order sent to the venue.
func (r *Recorder) RecordOrderSubmitted(pair, slot string) {
	OrdersSubmittedTotal.WithLabelValues(pair, slot).Inc()
}

// RecordOrderEvent records a venue order event being handled.
func (r *Recorder) RecordOrderEvent(kind string) {
	OrderEventsTotal.WithLabelValues(kind).Inc()
}

// RecordOrderFailed records an order the venue rejected.
func (r *Recorder) RecordOrderFailed(pair, slot string) {
	OrderFailuresTotal.WithLabelValues(pair, slot).Inc()
}

// RecordPositionOpened records a position reaching the active state.
func (r *Recorder) RecordPositionOpened(pair, side string) {
	PositionsOpen.WithLabelValues(pair).Inc()
	PositionsOpenedTotal.WithLabelValues(pair, side).Inc()
}

// RecordPositionClosed records an open position being closed and its
// realized PnL.
func (r *Recorder) RecordPositionClosed(pair, side, reason string, pnl decimal.Decimal) {
	PositionsOpen.WithLabelValues(pair).Dec()
	PositionsClosedTotal.WithLabelValues(pair, side, reason).Inc()
	PositionPnL.WithLabelValues(pair).Set(pnl.InexactFloat64())
}

// RecordPositionCanceled records a position whose entry never filled.
// The open-positions gauge is untouched because the position never
// opened.
func (r *Recorder) RecordPositionCanceled(pair, side string) {
	PositionsClosedTotal.WithLabelValues(pair, side, "canceled").Inc()
}

// RecordUnrealizedPnL records the mark-to-mid PnL of an open position.
func (r *Recorder) RecordUnrealizedPnL(pair string, pnl decimal.Decimal) {
	UnrealizedPnL.WithLabelValues(pair).Set(pnl.InexactFloat64())
}

// RecordMidPrice records the last observed venue mid price.
func (r *Recorder) RecordMidPrice(pair string, price decimal.Decimal) {
	VenueMidPrice.WithLabelValues(pair).Set(price.InexactFloat64())
}

// RecordTickDuration records how long one control pass took.
func (r *Recorder) RecordTickDuration(duration time.Duration) {
	TickDuration.Observe(duration.Seconds())
}

// RecordHeartbeat records a runner heartbeat.
func (r *Recorder) RecordHeartbeat() {
	HeartbeatTimestamp.Set(float64(time.Now().Unix()))
}

// RecordUptime records the process uptime.
func (r *Recorder) RecordUptime(uptime time.Duration) {
	UptimeSeconds.Set(uptime.Seconds())
}

// RecordError records a recoverable error.
func (r *Recorder) RecordError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}

// Timer is a helper for measuring latency.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed duration.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveTick observes the elapsed time as a control pass duration.
func (t *Timer) ObserveTick() {
	TickDuration.Observe(t.Elapsed().Seconds())
}
