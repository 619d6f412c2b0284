package model

import "time"

// ConfigurationStatus is the lifecycle status of an alert configuration.
type ConfigurationStatus string

const (
	ConfigurationStatusActive   ConfigurationStatus = "active"
	ConfigurationStatusDisabled ConfigurationStatus = "disabled"
	ConfigurationStatusDraft    ConfigurationStatus = "draft"
)

// IsValid checks if the configuration status is valid.
func (s ConfigurationStatus) IsValid() bool {
	switch s {
	case ConfigurationStatusActive, ConfigurationStatusDisabled, ConfigurationStatusDraft:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s ConfigurationStatus) String() string {
	return string(s)
}

// Priority is the severity a rule assigns to the alerts it emits.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// IsValid checks if the priority is valid.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// LogicalOperator combines a rule's conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// IsValid checks if the logical operator is valid.
func (o LogicalOperator) IsValid() bool {
	return o == LogicalAnd || o == LogicalOr
}

// ComparisonOperator compares an aggregated value against a threshold.
type ComparisonOperator string

const (
	OperatorGreaterThan        ComparisonOperator = "greater_than"
	OperatorLessThan           ComparisonOperator = "less_than"
	OperatorEquals             ComparisonOperator = "equals"
	OperatorNotEquals          ComparisonOperator = "not_equals"
	OperatorGreaterThanOrEqual ComparisonOperator = "greater_than_or_equal"
	OperatorLessThanOrEqual    ComparisonOperator = "less_than_or_equal"
)

// IsValid checks if the comparison operator is valid.
func (o ComparisonOperator) IsValid() bool {
	switch o {
	case OperatorGreaterThan, OperatorLessThan, OperatorEquals,
		OperatorNotEquals, OperatorGreaterThanOrEqual, OperatorLessThanOrEqual:
		return true
	default:
		return false
	}
}

// AggregationFunction is the statistic computed over a condition's window.
type AggregationFunction string

const (
	AggregateAverage           AggregationFunction = "average"
	AggregateSum               AggregationFunction = "sum"
	AggregateMin               AggregationFunction = "min"
	AggregateMax               AggregationFunction = "max"
	AggregateCount             AggregationFunction = "count"
	AggregateStandardDeviation AggregationFunction = "standard_deviation"
	AggregateVariance          AggregationFunction = "variance"
	AggregatePercentile        AggregationFunction = "percentile"
	AggregateRateOfChange      AggregationFunction = "rate_of_change"
)

// IsValid checks if the aggregation function is valid.
func (f AggregationFunction) IsValid() bool {
	switch f {
	case AggregateAverage, AggregateSum, AggregateMin, AggregateMax,
		AggregateCount, AggregateStandardDeviation, AggregateVariance,
		AggregatePercentile, AggregateRateOfChange:
		return true
	default:
		return false
	}
}

// String returns the string representation of the function.
func (f AggregationFunction) String() string {
	return string(f)
}

// FilterOperator applies to raw readings before aggregation.
type FilterOperator string

const (
	FilterEquals      FilterOperator = "equals"
	FilterNotEquals   FilterOperator = "not_equals"
	FilterGreaterThan FilterOperator = "greater_than"
	FilterLessThan    FilterOperator = "less_than"
	FilterIn          FilterOperator = "in"
)

// IsValid checks if the filter operator is valid.
func (o FilterOperator) IsValid() bool {
	switch o {
	case FilterEquals, FilterNotEquals, FilterGreaterThan, FilterLessThan, FilterIn:
		return true
	default:
		return false
	}
}

// Metric selects which readings a condition aggregates.
type Metric struct {
	Type     string `json:"type"`
	SensorID string `json:"sensor_id,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// Threshold is the comparison target of a condition. Hysteresis, when set,
// widens the effective threshold for re-triggers to dampen flapping.
type Threshold struct {
	Value      float64 `json:"value"`
	Hysteresis float64 `json:"hysteresis,omitempty"`
}

// TimeAggregation describes the statistic computed over the trailing window.
type TimeAggregation struct {
	Function          AggregationFunction `json:"function"`
	PeriodMinutes     int                 `json:"period_minutes"`
	MinimumDataPoints int                 `json:"minimum_data_points"`
	// PercentileRank applies to the percentile function only; defaults to 95.
	PercentileRank float64 `json:"percentile_rank,omitempty"`
}

// ReadingFilter is a field/operator/value triple applied to raw readings
// before aggregation. Supported fields: sensor_id, unit, quality, value.
type ReadingFilter struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value"`
}

// AlertCondition compares one aggregated statistic against a threshold.
type AlertCondition struct {
	Metric      Metric             `json:"metric"`
	Operator    ComparisonOperator `json:"operator"`
	Threshold   Threshold          `json:"threshold"`
	Aggregation TimeAggregation    `json:"aggregation"`
	Filters     []ReadingFilter    `json:"filters,omitempty"`
}

// AlertRule is one evaluatable rule inside a configuration. Invariants
// (enforced at load time): at least one condition; evaluation window >= the
// largest condition aggregation period.
type AlertRule struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Enabled            bool             `json:"enabled"`
	Priority           Priority         `json:"priority"`
	Conditions         []AlertCondition `json:"conditions"`
	LogicalOperator    LogicalOperator  `json:"logical_operator"`
	EvaluationWindow   int              `json:"evaluation_window"`
	CooldownPeriod     int              `json:"cooldown_period"`
	SuppressDuplicates bool             `json:"suppress_duplicates"`
	Tags               []string         `json:"tags,omitempty"`
}

// AlertConfiguration is the collaborator-owned unit of alerting: identity,
// lifecycle status, rules, notification settings and metadata. The engine
// consumes it read-only per evaluation pass.
type AlertConfiguration struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description,omitempty"`
	OwnerID        string               `json:"owner_id"`
	OrganizationID string               `json:"organization_id"`
	Status         ConfigurationStatus  `json:"status"`
	Rules          []AlertRule          `json:"rules"`
	Notifications  NotificationSettings `json:"notifications"`
	BusinessImpact string               `json:"business_impact,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}
