// Package handler holds the webhook endpoints that trigger and report
// pipeline runs.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/projectlens/internal/api/response"
	"github.com/kiranshivaraju/projectlens/internal/notion"
	"github.com/kiranshivaraju/projectlens/internal/pipeline"
)

const (
	maxBodyBytes = 1 << 16
	storeTimeout = 5 * time.Second

	// stateRunning marks a background run whose summary is not in yet.
	stateRunning pipeline.State = "running"
)

// Runner executes pipeline runs under caller-chosen run IDs.
type Runner interface {
	NewRunID() string
	RunWithID(ctx context.Context, runID, recordID string) pipeline.Outcome
}

// SummaryStore keeps run summaries so runs can be looked up after they finish.
type SummaryStore interface {
	SetRunSummary(ctx context.Context, runID string, summary []byte, ttl time.Duration) error
	GetRunSummary(ctx context.Context, runID string) ([]byte, bool, error)
}

// Runs serves POST /api/v1/runs and GET /api/v1/runs/{runID}.
type Runs struct {
	runner     Runner
	summaries  SummaryStore
	runTimeout time.Duration
	summaryTTL time.Duration
	background sync.WaitGroup
}

// NewRuns creates the runs handlers. runTimeout bounds each run once it is
// detached from the triggering request.
func NewRuns(runner Runner, summaries SummaryStore, runTimeout, summaryTTL time.Duration) *Runs {
	return &Runs{
		runner:     runner,
		summaries:  summaries,
		runTimeout: runTimeout,
		summaryTTL: summaryTTL,
	}
}

type triggerRequest struct {
	RecordID string `json:"record_id"`
	Async    bool   `json:"async"`
}

type runFailure struct {
	RunID string `json:"run_id"`
	Stage string `json:"stage"`
	Cause string `json:"cause"`
}

// Trigger starts a run for the record named in the body. Automation hooks
// tend to hang up early, so the run does not inherit request cancellation.
func (h *Runs) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "Invalid JSON body", nil)
		return
	}
	recordID := strings.TrimSpace(req.RecordID)
	if recordID == "" {
		response.Error(w, http.StatusBadRequest, response.CodeInvalidRequest, "record_id is required", nil)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	runID := h.runner.NewRunID()

	if req.Async {
		pending := pipeline.Summary{RunID: runID, RecordID: recordID, State: stateRunning}
		h.store(ctx, pending)
		h.background.Add(1)
		go func() {
			defer h.background.Done()
			defer func() {
				if p := recover(); p != nil {
					slog.Error("background run panicked", "run_id", runID, "record_id", recordID, "panic", p)
				}
			}()
			h.run(ctx, runID, recordID)
		}()
		response.Accepted(w, pending)
		return
	}

	writeOutcome(w, h.run(ctx, runID, recordID))
}

// Get returns the stored summary of a run.
func (h *Runs) Get(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	data, ok, err := h.summaries.GetRunSummary(r.Context(), runID)
	if err != nil {
		slog.Error("run summary lookup failed", "run_id", runID, "error", err)
		response.Error(w, http.StatusServiceUnavailable, response.CodeUnavailable,
			"Run summaries are unavailable", nil)
		return
	}
	if !ok {
		response.Error(w, http.StatusNotFound, response.CodeRunNotFound, "Run not found", nil)
		return
	}
	response.JSON(w, json.RawMessage(data))
}

// Wait blocks until background runs finish or ctx is done.
func (h *Runs) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Runs) run(ctx context.Context, runID, recordID string) pipeline.Outcome {
	runCtx := ctx
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}
	out := h.runner.RunWithID(runCtx, runID, recordID)
	h.store(ctx, out.Summary)
	return out
}

// store saves a summary. The run result is already in the record store, so
// a failure here is only logged.
func (h *Runs) store(ctx context.Context, s pipeline.Summary) {
	data, err := json.Marshal(s)
	if err != nil {
		slog.Error("run summary not encoded", "run_id", s.RunID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := h.summaries.SetRunSummary(ctx, s.RunID, data, h.summaryTTL); err != nil {
		slog.Warn("run summary not stored", "run_id", s.RunID, "error", err)
	}
}

func writeOutcome(w http.ResponseWriter, out pipeline.Outcome) {
	if out.State == pipeline.StateDone {
		response.JSON(w, out.Summary)
		return
	}

	failure := runFailure{RunID: out.RunID, Stage: string(out.FailedStage)}
	if out.Err != nil {
		failure.Cause = out.Err.Error()
	}
	if errors.Is(out.Err, notion.ErrNotFound) {
		response.Error(w, http.StatusNotFound, response.CodeRecordNotFound, "Record not found", failure)
		return
	}
	response.Error(w, http.StatusBadGateway, response.CodeRunFailed, "Run failed", failure)
}
