package models

import "time"

// DimensionResult is the outcome of one dimension: either a populated
// Assessment or a failure marker with a human-readable Cause.
type DimensionResult struct {
	Dimension  Dimension  `json:"dimension"`
	Assessment Assessment `json:"assessment,omitempty"`
	Cause      string     `json:"cause,omitempty"`
	Attempts   int        `json:"attempts"`
}

// Succeeded reports whether the dimension produced an assessment.
func (r DimensionResult) Succeeded() bool {
	return r.Assessment != nil
}

// SuccessResult builds a successful result.
func SuccessResult(a Assessment, attempts int) DimensionResult {
	return DimensionResult{Dimension: a.Dimension(), Assessment: a, Attempts: attempts}
}

// FailureResult builds a failure marker for d.
func FailureResult(d Dimension, cause string, attempts int) DimensionResult {
	if cause == "" {
		cause = "unknown failure"
	}
	return DimensionResult{Dimension: d, Cause: cause, Attempts: attempts}
}

// ScoreSource records where the overall score came from.
type ScoreSource string

const (
	ScoreFromRecommendation ScoreSource = "recommendation"
	ScoreFromFallback       ScoreSource = "fallback"
	ScoreNone               ScoreSource = "none"
)

// AnalysisReport aggregates one result per dimension for a single record.
// Results is indexed by Dimension, so every dimension has exactly one slot.
type AnalysisReport struct {
	RecordID     string                          `json:"record_id"`
	Results      [DimensionCount]DimensionResult `json:"results"`
	OverallScore int                             `json:"overall_score"`
	ScoreSource  ScoreSource                     `json:"score_source"`
	CompletedAt  time.Time                       `json:"completed_at"`
}

// Result returns the result slot for d.
func (r *AnalysisReport) Result(d Dimension) DimensionResult {
	return r.Results[d]
}

// HasScore reports whether an overall score could be determined.
func (r *AnalysisReport) HasScore() bool {
	return r.ScoreSource != ScoreNone && r.ScoreSource != ""
}

// Counts returns the number of succeeded and failed dimensions.
func (r *AnalysisReport) Counts() (succeeded, failed int) {
	for _, res := range r.Results {
		if res.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
