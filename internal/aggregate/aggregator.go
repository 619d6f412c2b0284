package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"alert-engine/internal/model"
)

// Result is the outcome of aggregating one condition's window. Sufficient is
// false when fewer qualifying readings survived than the condition's
// minimum_data_points; that is a first-class "condition not met" outcome,
// not an error.
type Result struct {
	Value       float64
	Count       int
	Sufficient  bool
	Sensors     []string
	WindowStart time.Time
	WindowEnd   time.Time
}

// Aggregator computes a single statistic over the readings matching a
// condition's metric and filters within a trailing window. It is a pure
// function of its inputs apart from the optional result cache.
type Aggregator struct {
	cache *Cache
}

// New returns an Aggregator backed by the given cache. A nil cache disables
// memoization.
func New(cache *Cache) *Aggregator {
	return &Aggregator{cache: cache}
}

// Aggregate selects readings matching the condition's metric and filters
// within [now-period, now] and reduces them with the configured function.
func (a *Aggregator) Aggregate(readings []model.SensorReading, cond model.AlertCondition, now time.Time) (Result, error) {
	if !cond.Aggregation.Function.IsValid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFunction, cond.Aggregation.Function)
	}

	windowStart := now.Add(-time.Duration(cond.Aggregation.PeriodMinutes) * time.Minute)
	key := cacheKey(cond, windowStart)
	if cached, ok := a.cache.get(key); ok {
		return cached, nil
	}

	qualifying := selectReadings(readings, cond, windowStart, now)
	result := reduce(qualifying, cond.Aggregation)
	result.WindowStart = windowStart
	result.WindowEnd = now
	result.Sensors = contributingSensors(qualifying)

	a.cache.put(key, result)
	return result, nil
}

func selectReadings(readings []model.SensorReading, cond model.AlertCondition, from, to time.Time) []model.SensorReading {
	var out []model.SensorReading
	for _, r := range readings {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		if cond.Metric.SensorID != "" && r.SensorID != cond.Metric.SensorID {
			continue
		}
		if cond.Metric.Unit != "" && r.Unit != cond.Metric.Unit {
			continue
		}
		if !passesFilters(r, cond.Filters) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func passesFilters(r model.SensorReading, filters []model.ReadingFilter) bool {
	for _, f := range filters {
		if !matchFilter(r, f) {
			return false
		}
	}
	return true
}

func matchFilter(r model.SensorReading, f model.ReadingFilter) bool {
	switch f.Field {
	case "value":
		want, ok := toFloat(f.Value)
		if !ok {
			return false
		}
		switch f.Operator {
		case model.FilterEquals:
			return r.Value == want
		case model.FilterNotEquals:
			return r.Value != want
		case model.FilterGreaterThan:
			return r.Value > want
		case model.FilterLessThan:
			return r.Value < want
		}
		return false
	case "quality":
		// Quality comparisons order by rank so a greater_than filter acts
		// as a quality floor (good > warning > error).
		switch f.Operator {
		case model.FilterEquals:
			return string(r.Quality) == fmt.Sprint(f.Value)
		case model.FilterNotEquals:
			return string(r.Quality) != fmt.Sprint(f.Value)
		case model.FilterGreaterThan:
			return r.Quality.Rank() > model.ReadingQuality(fmt.Sprint(f.Value)).Rank()
		case model.FilterLessThan:
			return r.Quality.Rank() < model.ReadingQuality(fmt.Sprint(f.Value)).Rank()
		case model.FilterIn:
			return inList(string(r.Quality), f.Value)
		}
		return false
	case "sensor_id", "unit":
		field := r.SensorID
		if f.Field == "unit" {
			field = r.Unit
		}
		switch f.Operator {
		case model.FilterEquals:
			return field == fmt.Sprint(f.Value)
		case model.FilterNotEquals:
			return field != fmt.Sprint(f.Value)
		case model.FilterIn:
			return inList(field, f.Value)
		}
		return false
	default:
		return false
	}
}

func inList(field string, value any) bool {
	list, ok := value.([]any)
	if !ok {
		return false
	}
	for _, v := range list {
		if field == fmt.Sprint(v) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func reduce(readings []model.SensorReading, agg model.TimeAggregation) Result {
	n := len(readings)
	result := Result{Count: n}

	minPoints := agg.MinimumDataPoints
	if minPoints < 1 {
		minPoints = 1
	}
	if agg.Function == model.AggregateRateOfChange && minPoints < 2 {
		minPoints = 2
	}
	if agg.Function == model.AggregateCount {
		// Counting zero readings is still a meaningful value.
		result.Sufficient = n >= agg.MinimumDataPoints
		result.Value = float64(n)
		return result
	}
	if n < minPoints {
		return result
	}
	result.Sufficient = true

	switch agg.Function {
	case model.AggregateAverage:
		var sum float64
		for _, r := range readings {
			sum += r.Value
		}
		result.Value = sum / float64(n)
	case model.AggregateSum:
		for _, r := range readings {
			result.Value += r.Value
		}
	case model.AggregateMin:
		result.Value = math.Inf(1)
		for _, r := range readings {
			result.Value = math.Min(result.Value, r.Value)
		}
	case model.AggregateMax:
		result.Value = math.Inf(-1)
		for _, r := range readings {
			result.Value = math.Max(result.Value, r.Value)
		}
	case model.AggregateStandardDeviation, model.AggregateVariance:
		var w welford
		for _, r := range readings {
			w.add(r.Value)
		}
		if agg.Function == model.AggregateVariance {
			result.Value = w.variance()
		} else {
			result.Value = w.stddev()
		}
	case model.AggregatePercentile:
		result.Value = nearestRank(readings, agg.PercentileRank)
	case model.AggregateRateOfChange:
		result.Value = rateOfChange(readings, &result)
	}
	return result
}

// nearestRank computes the nearest-rank percentile over the sorted window.
// Rank defaults to the 95th when unset.
func nearestRank(readings []model.SensorReading, rank float64) float64 {
	if rank <= 0 {
		rank = 95
	}
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}
	sort.Float64s(values)
	idx := int(math.Ceil(rank/100*float64(len(values)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

// rateOfChange is the delta between the latest and earliest qualifying
// reading divided by elapsed minutes.
func rateOfChange(readings []model.SensorReading, result *Result) float64 {
	earliest, latest := readings[0], readings[0]
	for _, r := range readings[1:] {
		if r.Timestamp.Before(earliest.Timestamp) {
			earliest = r
		}
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	elapsed := latest.Timestamp.Sub(earliest.Timestamp).Minutes()
	if elapsed <= 0 {
		result.Sufficient = false
		return 0
	}
	return (latest.Value - earliest.Value) / elapsed
}

func contributingSensors(readings []model.SensorReading) []string {
	seen := make(map[string]struct{}, len(readings))
	var out []string
	for _, r := range readings {
		if _, ok := seen[r.SensorID]; ok {
			continue
		}
		seen[r.SensorID] = struct{}{}
		out = append(out, r.SensorID)
	}
	sort.Strings(out)
	return out
}

func cacheKey(cond model.AlertCondition, windowStart time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s|%d|%v|%d",
		cond.Metric.Type, cond.Metric.SensorID, cond.Metric.Unit,
		cond.Aggregation.Function, cond.Aggregation.PeriodMinutes,
		cond.Aggregation.PercentileRank, windowStart.UnixNano())
	for _, f := range cond.Filters {
		fmt.Fprintf(&b, "|%s %s %v", f.Field, f.Operator, f.Value)
	}
	return b.String()
}
