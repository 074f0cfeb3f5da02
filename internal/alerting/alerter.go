// Package alerting provides notification capabilities for the position bot.
package alerting

import (
	"context"
	"fmt"
)

// Severity represents the alert severity level.
type Severity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning is for warning messages.
	SeverityWarning
	// SeverityHigh is for high priority alerts.
	SeverityHigh
	// SeverityCritical is for critical alerts requiring immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Emoji returns an emoji for the severity level.
func (s Severity) Emoji() string {
	switch s {
	case SeverityInfo:
		return "ℹ️"
	case SeverityWarning:
		return "⚠️"
	case SeverityHigh:
		return "🔴"
	case SeverityCritical:
		return "🚨"
	default:
		return "❓"
	}
}

// Alerter defines the interface for sending alerts.
type Alerter interface {
	// Alert sends an alert with the given severity and message.
	Alert(ctx context.Context, severity Severity, message string, fields ...any) error
	// Name returns the name of the alerter.
	Name() string
}

// Field represents a key-value pair for structured alert data.
type Field struct {
	Key   string
	Value any
}

// FormatFields converts variadic fields to a formatted string.
func FormatFields(fields ...any) string {
	if len(fields) == 0 {
		return ""
	}

	result := ""
	for i := 0; i < len(fields)-1; i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		value := fields[i+1]
		if result != "" {
			result += "\n"
		}
		result += fmt.Sprintf("• %s: %v", key, value)
	}
	return result
}

// AlertEvent represents a pre-defined alert event type.
type AlertEvent string

const (
	// EventPositionOpened is sent when an entry order fills.
	EventPositionOpened AlertEvent = "position_opened"
	// EventTakeProfitHit is sent when a position closes at its target.
	EventTakeProfitHit AlertEvent = "take_profit_hit"
	// EventStopLossHit is sent when a position closes at its stop.
	EventStopLossHit AlertEvent = "stop_loss_hit"
	// EventTimeLimitHit is sent when a position is force-closed at its deadline.
	EventTimeLimitHit AlertEvent = "time_limit_hit"
	// EventPositionCanceled is sent when an entry expires unfilled.
	EventPositionCanceled AlertEvent = "position_canceled"
	// EventPositionClosed is the generic close event when no specific
	// exit applies.
	EventPositionClosed AlertEvent = "position_closed"
	// EventOrderFailed is sent when the venue rejects an order.
	EventOrderFailed AlertEvent = "order_failed"
	// EventSessionSummary is sent with the end-of-session statistics.
	EventSessionSummary AlertEvent = "session_summary"
	// EventConnectionLost is sent when the venue connection is lost.
	EventConnectionLost AlertEvent = "connection_lost"
	// EventConnectionRestored is sent when the venue connection is restored.
	EventConnectionRestored AlertEvent = "connection_restored"
	// EventBotStarted is sent when the bot starts.
	EventBotStarted AlertEvent = "bot_started"
	// EventBotStopped is sent when the bot stops.
	EventBotStopped AlertEvent = "bot_stopped"
)

// EventSeverity returns the default severity for an event.
func EventSeverity(event AlertEvent) Severity {
	switch event {
	case EventStopLossHit:
		return SeverityHigh
	case EventOrderFailed, EventTimeLimitHit, EventConnectionLost:
		return SeverityWarning
	case EventPositionOpened, EventTakeProfitHit, EventPositionCanceled, EventPositionClosed:
		return SeverityInfo
	case EventSessionSummary, EventBotStarted, EventBotStopped, EventConnectionRestored:
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// EventForCloseReason maps a position close reason to its alert event.
func EventForCloseReason(reason string) AlertEvent {
	switch reason {
	case "take_profit":
		return EventTakeProfitHit
	case "stop_loss":
		return EventStopLossHit
	case "time_limit":
		return EventTimeLimitHit
	case "canceled":
		return EventPositionCanceled
	default:
		return EventPositionClosed
	}
}
