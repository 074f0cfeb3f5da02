// Package metrics defines the Prometheus instruments for the position
// bot and a small HTTP server exposing them together with health
// probes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersSubmittedTotal counts orders sent to the venue by trading
	// pair and the role the order plays in the position.
	OrdersSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbot_orders_submitted_total",
		Help: "Orders submitted to the venue, by trading pair and role.",
	}, []string{"pair", "slot"})

	// OrderEventsTotal counts venue order events handled by executors.
	OrderEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbot_order_events_total",
		Help: "Venue order events handled, by event kind.",
	}, []string{"kind"})

	// OrderFailuresTotal counts orders the venue rejected.
	OrderFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbot_order_failures_total",
		Help: "Orders rejected by the venue, by trading pair and role.",
	}, []string{"pair", "slot"})

	// PositionsOpen tracks currently open positions per trading pair.
	PositionsOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "posbot_positions_open",
		Help: "Number of currently open positions.",
	}, []string{"pair"})

	// PositionsOpenedTotal counts positions that reached the active
	// state.
	PositionsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbot_positions_opened_total",
		Help: "Positions opened, by trading pair and side.",
	}, []string{"pair", "side"})

	// PositionsClosedTotal counts finished positions by the exit that
	// ended them.
	PositionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbot_positions_closed_total",
		Help: "Positions finished, by trading pair, side, and close reason.",
	}, []string{"pair", "side", "reason"})

	// PositionPnL holds the fractional PnL of the most recently closed
	// position per trading pair.
	PositionPnL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "posbot_position_pnl",
		Help: "Fractional PnL of the last closed position.",
	}, []string{"pair"})

	// UnrealizedPnL holds the mark-to-mid PnL of the open position per
	// trading pair.
	UnrealizedPnL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "posbot_unrealized_pnl",
		Help: "Fractional unrealized PnL of the open position.",
	}, []string{"pair"})

	// VenueMidPrice holds the last observed mid price per trading pair.
	VenueMidPrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "posbot_mid_price",
		Help: "Last observed venue mid price.",
	}, []string{"pair"})

	// TickDuration observes how long one executor control pass takes.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "posbot_tick_duration_seconds",
		Help:    "Duration of one executor control pass.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	// HeartbeatTimestamp is the unix time of the runner's last
	// heartbeat.
	HeartbeatTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "posbot_heartbeat_timestamp",
		Help: "Unix timestamp of the last runner heartbeat.",
	})

	// UptimeSeconds is the process uptime.
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "posbot_uptime_seconds",
		Help: "Process uptime in seconds.",
	})

	// ErrorsTotal counts recoverable errors by origin.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbot_errors_total",
		Help: "Recoverable errors, by origin.",
	}, []string{"type"})

	// BuildInfo carries version metadata as labels on a constant gauge.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "posbot_build_info",
		Help: "Build metadata.",
	}, []string{"version", "commit", "build_date"})
)

// SetBuildInfo publishes the build metadata gauge.
func SetBuildInfo(version, commit, buildDate string) {
	BuildInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
