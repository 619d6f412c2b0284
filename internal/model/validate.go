package model

import (
	"fmt"
	"time"

	pkgErrors "alert-engine/pkg/errors"
)

// ValidateConfiguration checks an AlertConfiguration at load time so
// malformed configurations fail fast and loudly outside the hot evaluation
// path. It returns nil when the configuration is well formed.
func ValidateConfiguration(cfg *AlertConfiguration) error {
	c := pkgErrors.NewValidationErrorCollector()

	if cfg.ID == "" {
		c.Addf("id", "configuration id is required")
	}
	if !cfg.Status.IsValid() {
		c.Addf("status", "unknown configuration status %q", cfg.Status)
	}
	if len(cfg.Rules) == 0 {
		c.Addf("rules", "configuration must define at least one rule")
	}
	for i, rule := range cfg.Rules {
		validateRule(c, fmt.Sprintf("rules[%d]", i), rule)
	}
	validateNotificationSettings(c, cfg.Notifications)

	if c.HasError() {
		return c
	}
	return nil
}

func validateRule(c *pkgErrors.ValidationErrorCollector, field string, rule AlertRule) {
	if rule.ID == "" {
		c.Addf(field+".id", "rule id is required")
	}
	if !rule.Priority.IsValid() {
		c.Addf(field+".priority", "unknown priority %q", rule.Priority)
	}
	if !rule.LogicalOperator.IsValid() {
		c.Addf(field+".logical_operator", "logical operator must be AND or OR, got %q", rule.LogicalOperator)
	}
	if len(rule.Conditions) == 0 {
		c.Addf(field+".conditions", "rule must define at least one condition")
	}
	if rule.CooldownPeriod < 0 {
		c.Addf(field+".cooldown_period", "cooldown period must not be negative")
	}

	maxPeriod := 0
	for i, cond := range rule.Conditions {
		validateCondition(c, fmt.Sprintf("%s.conditions[%d]", field, i), cond)
		if cond.Aggregation.PeriodMinutes > maxPeriod {
			maxPeriod = cond.Aggregation.PeriodMinutes
		}
	}
	if rule.EvaluationWindow < maxPeriod {
		c.Addf(field+".evaluation_window",
			"evaluation window (%dm) must cover the largest condition period (%dm)",
			rule.EvaluationWindow, maxPeriod)
	}
}

func validateCondition(c *pkgErrors.ValidationErrorCollector, field string, cond AlertCondition) {
	if cond.Metric.Type == "" && cond.Metric.SensorID == "" {
		c.Addf(field+".metric", "metric must name a type or a sensor id")
	}
	if !cond.Operator.IsValid() {
		c.Addf(field+".operator", "unknown comparison operator %q", cond.Operator)
	}
	if !cond.Aggregation.Function.IsValid() {
		c.Addf(field+".aggregation.function", "unknown aggregation function %q", cond.Aggregation.Function)
	}
	if cond.Aggregation.PeriodMinutes <= 0 {
		c.Addf(field+".aggregation.period_minutes", "aggregation period must be positive")
	}
	if cond.Aggregation.MinimumDataPoints < 0 {
		c.Addf(field+".aggregation.minimum_data_points", "minimum data points must not be negative")
	}
	if cond.Aggregation.Function == AggregatePercentile {
		if r := cond.Aggregation.PercentileRank; r < 0 || r > 100 {
			c.Addf(field+".aggregation.percentile_rank", "percentile rank must be within [0,100], got %v", r)
		}
	}
	if cond.Threshold.Hysteresis < 0 {
		c.Addf(field+".threshold.hysteresis", "hysteresis must not be negative")
	}
	for i, f := range cond.Filters {
		if !f.Operator.IsValid() {
			c.Addf(fmt.Sprintf("%s.filters[%d].operator", field, i), "unknown filter operator %q", f.Operator)
		}
		switch f.Field {
		case "sensor_id", "unit", "quality", "value":
		default:
			c.Addf(fmt.Sprintf("%s.filters[%d].field", field, i), "unknown filter field %q", f.Field)
		}
	}
}

func validateNotificationSettings(c *pkgErrors.ValidationErrorCollector, s NotificationSettings) {
	for i, ch := range s.Channels {
		field := fmt.Sprintf("notifications.channels[%d]", i)
		if !ch.Type.IsValid() {
			c.Addf(field+".type", "unknown channel type %q", ch.Type)
		}
		for j, p := range ch.PriorityFilter {
			if !p.IsValid() {
				c.Addf(fmt.Sprintf("%s.priority_filter[%d]", field, j), "unknown priority %q", p)
			}
		}
	}

	if s.FrequencyLimits.MaxPerHour < 0 || s.FrequencyLimits.MaxPerDay < 0 {
		c.Addf("notifications.frequency_limits", "frequency limits must not be negative")
	}
	if s.FrequencyLimits.CooldownBetweenSimilar < 0 {
		c.Addf("notifications.frequency_limits.cooldown_between_similar", "cooldown must not be negative")
	}

	if s.QuietHours.Enabled {
		if _, err := ParseClockTime(s.QuietHours.Start); err != nil {
			c.Addf("notifications.quiet_hours.start", "invalid time %q: %v", s.QuietHours.Start, err)
		}
		if _, err := ParseClockTime(s.QuietHours.End); err != nil {
			c.Addf("notifications.quiet_hours.end", "invalid time %q: %v", s.QuietHours.End, err)
		}
		if s.QuietHours.Timezone != "" {
			if _, err := time.LoadLocation(s.QuietHours.Timezone); err != nil {
				c.Addf("notifications.quiet_hours.timezone", "unknown timezone %q", s.QuietHours.Timezone)
			}
		}
		for i, p := range s.QuietHours.Exceptions {
			if !p.IsValid() {
				c.Addf(fmt.Sprintf("notifications.quiet_hours.exceptions[%d]", i), "unknown priority %q", p)
			}
		}
	}

	for i, d := range s.EscalationDelays {
		if d < 0 {
			c.Addf(fmt.Sprintf("notifications.escalation_delays[%d]", i), "delay must not be negative")
		}
	}
}

// ClockTime is a minutes-since-midnight wall time used by quiet hours.
type ClockTime int

// ParseClockTime parses "HH:MM" into a ClockTime.
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("want HH:MM: %w", err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range: %02d:%02d", h, m)
	}
	return ClockTime(h*60 + m), nil
}
