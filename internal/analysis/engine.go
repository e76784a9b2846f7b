package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/projectlens/internal/ai"
	"github.com/kiranshivaraju/projectlens/pkg/models"
	"golang.org/x/sync/errgroup"
)

const defaultCallTimeout = 60 * time.Second

// Clock supplies the report completion time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Engine runs every analysis dimension for a record and aggregates the
// results into a scored report.
type Engine struct {
	provider       models.CompletionProvider
	opts           models.CompletionOptions
	retry          RetryPolicy
	callTimeout    time.Duration
	maxConcurrency int
	clock          Clock
}

// Option configures an Engine.
type Option func(*Engine)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) { e.retry = p }
}

// WithCallTimeout bounds each completion attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// WithMaxConcurrency caps how many dimensions are in flight at once.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// NewEngine creates an engine that sends every prompt to provider with opts.
func NewEngine(provider models.CompletionProvider, opts models.CompletionOptions, options ...Option) *Engine {
	e := &Engine{
		provider:       provider,
		opts:           opts,
		retry:          DefaultRetryPolicy(),
		callTimeout:    defaultCallTimeout,
		maxConcurrency: models.DimensionCount,
		clock:          SystemClock{},
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Analyze runs all dimensions and always returns a report with one result
// per dimension. Dimension failures are recorded in their slot and never
// stop the others.
func (e *Engine) Analyze(ctx context.Context, rec models.ProjectRecord) *models.AnalysisReport {
	report := &models.AnalysisReport{RecordID: rec.ID}

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)
	for _, d := range models.AllDimensions() {
		g.Go(func() error {
			// Each goroutine owns exactly one slot.
			report.Results[d] = e.analyzeDimension(ctx, d, rec)
			return nil
		})
	}
	_ = g.Wait()

	report.OverallScore, report.ScoreSource = OverallScore(report.Results[:])
	report.CompletedAt = e.clock.Now().UTC()

	succeeded, failed := report.Counts()
	slog.Info("analysis complete",
		"record_id", rec.ID,
		"succeeded", succeeded,
		"failed", failed,
		"score", report.OverallScore,
		"score_source", report.ScoreSource,
	)
	return report
}

func (e *Engine) analyzeDimension(ctx context.Context, d models.Dimension, rec models.ProjectRecord) (res models.DimensionResult) {
	attempts := 0
	defer func() {
		if r := recover(); r != nil {
			res = models.FailureResult(d, fmt.Sprintf("panic: %v", r), attempts)
		}
		logResult(rec.ID, res)
	}()

	prompt := BuildPrompt(d, rec)
	raw, attempts, err := e.retry.do(ctx, func(attempt int) (string, error) {
		return e.complete(ctx, prompt)
	}, func(err error, next time.Duration) {
		slog.Warn("completion failed, retrying",
			"record_id", rec.ID,
			"dimension", d.String(),
			"retry_in", next,
			"error", err,
		)
	})
	if err != nil {
		return models.FailureResult(d, fmt.Sprintf("completion failed after %d attempt(s): %v", attempts, err), attempts)
	}

	a, err := ParseAssessment(d, raw)
	if err != nil {
		return models.FailureResult(d, err.Error(), attempts)
	}
	return models.SuccessResult(a, attempts)
}

// complete makes one attempt under its own deadline. A provider that
// outlives the deadline without saying so is reported as a timeout.
func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	out, err := e.provider.Complete(callCtx, prompt, e.opts)
	if err == nil {
		return out, nil
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, ai.ErrTimeout) {
		return "", fmt.Errorf("%w: %v", ai.ErrTimeout, err)
	}
	return "", err
}

func logResult(recordID string, res models.DimensionResult) {
	if res.Succeeded() {
		slog.Info("dimension analyzed",
			"record_id", recordID,
			"dimension", res.Dimension.String(),
			"attempts", res.Attempts,
		)
		return
	}
	slog.Warn("dimension failed",
		"record_id", recordID,
		"dimension", res.Dimension.String(),
		"attempts", res.Attempts,
		"cause", res.Cause,
	)
}
