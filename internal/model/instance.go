package model

import "time"

// AlertStatus is the lifecycle state of a triggered alert instance.
type AlertStatus string

const (
	AlertStatusTriggered    AlertStatus = "triggered"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusSuppressed   AlertStatus = "suppressed"
)

// IsValid checks if the alert status is valid.
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusTriggered, AlertStatusAcknowledged, AlertStatusResolved, AlertStatusSuppressed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s AlertStatus) String() string {
	return string(s)
}

// DeliveryOutcome classifies one notification attempt.
type DeliveryOutcome string

const (
	OutcomeSuccess     DeliveryOutcome = "success"
	OutcomeFailure     DeliveryOutcome = "failure"
	OutcomeRateLimited DeliveryOutcome = "rate_limited"
	OutcomeSkipped     DeliveryOutcome = "skipped"
)

// String returns the string representation of the outcome.
func (o DeliveryOutcome) String() string {
	return string(o)
}

// MetricValue preserves per-condition observation detail on an instance.
type MetricValue struct {
	MetricType          string   `json:"metric_type"`
	SensorID            string   `json:"sensor_id,omitempty"`
	Observed            float64  `json:"observed"`
	Threshold           float64  `json:"threshold"`
	WindowMinutes       int      `json:"window_minutes"`
	SampleCount         int      `json:"sample_count"`
	ContributingFactors []string `json:"contributing_factors,omitempty"`
}

// NotificationLogEntry records one delivery attempt. Entries are append-only.
type NotificationLogEntry struct {
	Channel         ChannelType     `json:"channel"`
	Outcome         DeliveryOutcome `json:"outcome"`
	AttemptedAt     time.Time       `json:"attempted_at"`
	EscalationLevel int             `json:"escalation_level"`
	Error           string          `json:"error,omitempty"`
}

// AlertInstance is one triggered alert. The engine creates it and never
// mutates it afterwards except to append notification log entries;
// acknowledge/resolve are collaborator actions.
type AlertInstance struct {
	ID              string                 `json:"id"`
	ConfigurationID string                 `json:"configuration_id"`
	RuleID          string                 `json:"rule_id"`
	Status          AlertStatus            `json:"status"`
	Severity        Priority               `json:"severity"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description,omitempty"`
	Metrics         []MetricValue          `json:"metrics"`
	TriggeredAt     time.Time              `json:"triggered_at"`
	EscalationLevel int                    `json:"escalation_level"`
	Signature       string                 `json:"signature,omitempty"`
	NotificationLog []NotificationLogEntry `json:"notification_log"`
	Context         map[string]any         `json:"context,omitempty"`
	AcknowledgedAt  *time.Time             `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time             `json:"resolved_at,omitempty"`
}

// Acknowledge marks the instance acknowledged. Collaborator action.
func (a *AlertInstance) Acknowledge(at time.Time) {
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedAt = &at
}

// Resolve marks the instance resolved. Collaborator action.
func (a *AlertInstance) Resolve(at time.Time) {
	a.Status = AlertStatusResolved
	a.ResolvedAt = &at
}

// Open reports whether the instance still wants delivery attention
// (escalations stop once it is acknowledged or resolved).
func (a *AlertInstance) Open() bool {
	return a.Status == AlertStatusTriggered
}
