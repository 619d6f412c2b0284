package model

import "time"

// ReadingQuality flags how trustworthy a sensor reading is.
type ReadingQuality string

const (
	QualityGood    ReadingQuality = "good"
	QualityWarning ReadingQuality = "warning"
	QualityError   ReadingQuality = "error"
)

// IsValid checks if the reading quality is valid.
func (q ReadingQuality) IsValid() bool {
	switch q {
	case QualityGood, QualityWarning, QualityError:
		return true
	default:
		return false
	}
}

// Rank orders qualities from worst (0) to best. Used by quality-floor
// filters: a reading passes a floor when its rank is >= the floor's rank.
func (q ReadingQuality) Rank() int {
	switch q {
	case QualityGood:
		return 2
	case QualityWarning:
		return 1
	default:
		return 0
	}
}

// String returns the string representation of the quality.
func (q ReadingQuality) String() string {
	return string(q)
}

// SensorReading is one immutable measurement supplied by the collaborator
// per evaluation pass.
type SensorReading struct {
	SensorID  string         `json:"sensor_id"`
	Timestamp time.Time      `json:"timestamp"`
	Value     float64        `json:"value"`
	Unit      string         `json:"unit"`
	Quality   ReadingQuality `json:"quality"`
}

// EvaluationContext carries everything one evaluation pass needs. It is
// read-only and safely shared across concurrent evaluators; it is not
// retained after the pass.
type EvaluationContext struct {
	CurrentTime    time.Time       `json:"current_time"`
	Readings       []SensorReading `json:"readings"`
	HistoricalData []SensorReading `json:"historical_data,omitempty"`
	SystemStatus   map[string]any  `json:"system_status,omitempty"`
	WeatherStatus  map[string]any  `json:"weather_status,omitempty"`
}
