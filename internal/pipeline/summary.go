package pipeline

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// DimensionSummary is one dimension's line in a run summary.
type DimensionSummary struct {
	Dimension string `json:"dimension"`
	Succeeded bool   `json:"succeeded"`
	Attempts  int    `json:"attempts"`
	Cause     string `json:"cause,omitempty"`
}

// Summary is the user-facing account of a run. Dimensions is empty when
// the run failed before analysis.
type Summary struct {
	RunID       string             `json:"run_id"`
	RecordID    string             `json:"record_id"`
	State       State              `json:"state"`
	FailedStage State              `json:"failed_stage,omitempty"`
	Cause       string             `json:"cause,omitempty"`
	Dimensions  []DimensionSummary `json:"dimensions,omitempty"`
	Succeeded   int                `json:"succeeded"`
	Failed      int                `json:"failed"`
	Score       *int               `json:"score,omitempty"`
	ScoreSource models.ScoreSource `json:"score_source,omitempty"`
	ChildPages  int                `json:"child_pages,omitempty"`
}

func summarize(o *Outcome) Summary {
	s := Summary{
		RunID:       o.RunID,
		RecordID:    o.RecordID,
		State:       o.State,
		FailedStage: o.FailedStage,
		ChildPages:  o.ChildPages,
	}
	if o.Err != nil {
		s.Cause = o.Err.Error()
	}
	if o.Report == nil {
		return s
	}

	for _, res := range o.Report.Results {
		s.Dimensions = append(s.Dimensions, DimensionSummary{
			Dimension: res.Dimension.String(),
			Succeeded: res.Succeeded(),
			Attempts:  res.Attempts,
			Cause:     res.Cause,
		})
	}
	s.Succeeded, s.Failed = o.Report.Counts()
	s.ScoreSource = o.Report.ScoreSource
	if o.Report.HasScore() {
		score := o.Report.OverallScore
		s.Score = &score
	}
	return s
}

// String renders the summary for terminal output.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s for record %s: %s\n", s.RunID, s.RecordID, s.State)
	if s.State == StateFailed {
		fmt.Fprintf(&b, "  failed while %s: %s\n", s.FailedStage, s.Cause)
	}
	for _, d := range s.Dimensions {
		if d.Succeeded {
			fmt.Fprintf(&b, "  %-15s ok (%d attempt(s))\n", d.Dimension, d.Attempts)
		} else {
			fmt.Fprintf(&b, "  %-15s FAILED: %s\n", d.Dimension, d.Cause)
		}
	}
	if len(s.Dimensions) > 0 {
		fmt.Fprintf(&b, "  %d succeeded, %d failed\n", s.Succeeded, s.Failed)
		if s.Score != nil {
			fmt.Fprintf(&b, "  priority score %d (%s)\n", *s.Score, s.ScoreSource)
		} else {
			b.WriteString("  no priority score\n")
		}
	}
	return b.String()
}
