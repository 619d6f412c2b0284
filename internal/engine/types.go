package engine

import "alert-engine/internal/model"

// EvaluationResult summarizes one evaluation pass. Per-configuration
// failures never abort the batch; they are counted here and aggregated into
// the error returned alongside the result.
type EvaluationResult struct {
	Alerts []*model.AlertInstance
	// Evaluated counts configurations that completed evaluation.
	Evaluated int
	// Skipped counts configurations bypassed for lifecycle reasons
	// (status not active).
	Skipped int
	// Failed counts configurations that were malformed or errored.
	Failed int
	// DeadlineExceeded is set when the pass stopped starting new
	// configuration evaluations because the soft deadline elapsed. Results
	// gathered up to that point are still returned.
	DeadlineExceeded bool
}
