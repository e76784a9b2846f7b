// Package pipeline drives one analysis run: fetch the record, analyze it,
// and write the results back.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/projectlens/internal/notion"
	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// State is a pipeline stage.
type State string

const (
	StateFetching  State = "fetching"
	StateAnalyzing State = "analyzing"
	StateWriting   State = "writing"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Analyzer produces a report for a record. It never fails; dimension
// failures are carried inside the report.
type Analyzer interface {
	Analyze(ctx context.Context, rec models.ProjectRecord) *models.AnalysisReport
}

// Outcome is the result of a run.
type Outcome struct {
	RunID       string
	RecordID    string
	State       State
	FailedStage State
	Err         error
	Report      *models.AnalysisReport
	// WriteAttempts counts Update calls for the results, not status markers.
	WriteAttempts int
	// ChildPages counts report pages created beneath the record.
	ChildPages int
	Summary    Summary
}

// ExitCode is 0 for a completed run and 1 for a failed one.
func (o Outcome) ExitCode() int {
	if o.State == StateDone {
		return 0
	}
	return 1
}

// Orchestrator runs the pipeline. It holds no per-run state and is safe
// for concurrent use.
type Orchestrator struct {
	records       notion.Client
	analyzer      Analyzer
	statusMarkers bool
	pages         notion.PageWriter
	newRunID      func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStatusMarkers toggles the best-effort Status writes around a run.
func WithStatusMarkers(enabled bool) Option {
	return func(o *Orchestrator) { o.statusMarkers = enabled }
}

// WithChildPages creates a report page beneath the record for each
// analyzed dimension once the results are written. Page failures are
// logged and do not fail the run.
func WithChildPages(w notion.PageWriter) Option {
	return func(o *Orchestrator) { o.pages = w }
}

func WithRunIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newRunID = fn }
}

// New creates an Orchestrator.
func New(records notion.Client, analyzer Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		records:       records,
		analyzer:      analyzer,
		statusMarkers: true,
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewRunID returns a fresh identifier for RunWithID.
func (o *Orchestrator) NewRunID() string {
	return o.newRunID()
}

// Run executes one pipeline run for recordID under a freshly generated run ID.
func (o *Orchestrator) Run(ctx context.Context, recordID string) Outcome {
	return o.RunWithID(ctx, o.newRunID(), recordID)
}

// RunWithID executes one pipeline run for recordID under a caller-chosen
// run ID, so callers can hand the ID out before the run finishes.
func (o *Orchestrator) RunWithID(ctx context.Context, runID, recordID string) Outcome {
	out := Outcome{RunID: runID, RecordID: recordID}
	log := slog.With("run_id", out.RunID, "record_id", recordID)

	out.State = StateFetching
	log.Info("run started")
	rec, err := o.records.Fetch(ctx, recordID)
	if err != nil {
		return o.fail(log, out, StateFetching, fmt.Errorf("fetching record: %w", err))
	}

	out.State = StateAnalyzing
	o.mark(ctx, log, recordID, notion.StatusAnalyzing)
	out.Report = o.analyzer.Analyze(ctx, rec)

	out.State = StateWriting
	props := Flatten(out.Report)
	out.WriteAttempts, err = o.write(ctx, log, recordID, props)
	if err != nil {
		o.logReport(log, out.Report)
		o.mark(ctx, log, recordID, notion.StatusError)
		return o.fail(log, out, StateWriting, fmt.Errorf("writing results: %w", err))
	}

	out.State = StateDone
	out.ChildPages = o.writeChildPages(ctx, log, rec, out.Report)
	out.Summary = summarize(&out)
	log.Info("run complete",
		"succeeded", out.Summary.Succeeded,
		"failed", out.Summary.Failed,
		"score", out.Report.OverallScore,
		"score_source", out.Report.ScoreSource,
		"write_attempts", out.WriteAttempts,
		"child_pages", out.ChildPages,
	)
	return out
}

// write sends the update, retrying once on a transport failure.
func (o *Orchestrator) write(ctx context.Context, log *slog.Logger, recordID string, props notion.Properties) (int, error) {
	err := o.records.Update(ctx, recordID, props)
	if err == nil || !errors.Is(err, notion.ErrTransport) {
		return 1, err
	}
	log.Warn("write failed, retrying once", "error", err)
	return 2, o.records.Update(ctx, recordID, props)
}

// writeChildPages creates one page per analyzed dimension. The
// recommendation already lives on the record and gets no page.
func (o *Orchestrator) writeChildPages(ctx context.Context, log *slog.Logger, rec models.ProjectRecord, report *models.AnalysisReport) int {
	if o.pages == nil {
		return 0
	}
	created := 0
	for _, res := range report.Results {
		if !res.Succeeded() || res.Dimension == models.DimensionRecommendation || !res.Dimension.Valid() {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("child pages skipped", "error", ctx.Err())
			break
		}
		page := notion.ChildPage{Title: childPageTitle(res.Dimension, rec.Name), Body: res.Assessment.Render()}
		if _, err := o.pages.CreateChildPage(ctx, rec.ID, page); err != nil {
			log.Warn("child page not created", "dimension", res.Dimension.String(), "error", err)
			continue
		}
		created++
	}
	return created
}

func childPageTitle(d models.Dimension, project string) string {
	if project == "" {
		return textProps[d]
	}
	return textProps[d] + ": " + project
}

// mark writes the Status property. Failures are logged and ignored.
func (o *Orchestrator) mark(ctx context.Context, log *slog.Logger, recordID, status string) {
	if !o.statusMarkers {
		return
	}
	if err := o.records.Update(ctx, recordID, notion.Properties{notion.PropStatus: notion.Select(status)}); err != nil {
		log.Warn("status marker not written", "status", status, "error", err)
	}
}

// logReport dumps the report so the results can be recovered by hand.
func (o *Orchestrator) logReport(log *slog.Logger, report *models.AnalysisReport) {
	data, err := json.Marshal(report)
	if err != nil {
		log.Error("report could not be encoded", "error", err)
		return
	}
	log.Error("unsaved analysis report", "report", string(data))
}

func (o *Orchestrator) fail(log *slog.Logger, out Outcome, stage State, err error) Outcome {
	out.State = StateFailed
	out.FailedStage = stage
	out.Err = err
	out.Summary = summarize(&out)
	log.Error("run failed", "stage", string(stage), "error", err)
	return out
}
