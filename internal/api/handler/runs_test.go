package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/projectlens/internal/notion"
	"github.com/kiranshivaraju/projectlens/internal/pipeline"
	"go.uber.org/goleak"
)

// --- fakes ---

type fakeRunner struct {
	mu      sync.Mutex
	fn      func(ctx context.Context, runID, recordID string) pipeline.Outcome
	calls   []string
	nextIDs int
}

func (f *fakeRunner) NewRunID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIDs++
	return fmt.Sprintf("run-%d", f.nextIDs)
}

func (f *fakeRunner) RunWithID(ctx context.Context, runID, recordID string) pipeline.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, recordID)
	f.mu.Unlock()
	return f.fn(ctx, runID, recordID)
}

func doneOutcome(_ context.Context, runID, recordID string) pipeline.Outcome {
	score := 78
	return pipeline.Outcome{
		RunID:    runID,
		RecordID: recordID,
		State:    pipeline.StateDone,
		Summary: pipeline.Summary{
			RunID:     runID,
			RecordID:  recordID,
			State:     pipeline.StateDone,
			Succeeded: 6,
			Score:     &score,
		},
	}
}

func failedOutcome(stage pipeline.State, err error) func(context.Context, string, string) pipeline.Outcome {
	return func(_ context.Context, runID, recordID string) pipeline.Outcome {
		return pipeline.Outcome{
			RunID:       runID,
			RecordID:    recordID,
			State:       pipeline.StateFailed,
			FailedStage: stage,
			Err:         err,
			Summary: pipeline.Summary{
				RunID:       runID,
				RecordID:    recordID,
				State:       pipeline.StateFailed,
				FailedStage: stage,
				Cause:       err.Error(),
			},
		}
	}
}

type memSummaries struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemSummaries() *memSummaries {
	return &memSummaries{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memSummaries) SetRunSummary(_ context.Context, runID string, summary []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[runID] = summary
	m.ttls[runID] = ttl
	return nil
}

func (m *memSummaries) GetRunSummary(_ context.Context, runID string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	d, ok := m.data[runID]
	return d, ok, nil
}

// --- helpers ---

func newTestRuns(runner *fakeRunner, store *memSummaries) (*Runs, http.Handler) {
	h := NewRuns(runner, store, time.Minute, time.Hour)
	r := chi.NewRouter()
	r.Post("/api/v1/runs", h.Trigger)
	r.Get("/api/v1/runs/{runID}", h.Get)
	return h, r
}

func triggerReq(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func parseData(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]any {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func parseErr(t *testing.T, rec *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Error.Code, env.Error.Details
}

// --- tests ---

func TestTrigger_DoneReturnsSummary(t *testing.T) {
	runner := &fakeRunner{fn: doneOutcome}
	store := newMemSummaries()
	_, router := newTestRuns(runner, store)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, triggerReq(`{"record_id": " proj-42 "}`))

	data := parseData(t, rec, http.StatusOK)
	if data["run_id"] != "run-1" {
		t.Errorf("unexpected run_id: %v", data["run_id"])
	}
	if data["record_id"] != "proj-42" {
		t.Errorf("record id should be trimmed, got %v", data["record_id"])
	}
	if data["score"] != float64(78) {
		t.Errorf("unexpected score: %v", data["score"])
	}
	if _, ok := store.data["run-1"]; !ok {
		t.Error("summary of a sync run should be stored")
	}
	if store.ttls["run-1"] != time.Hour {
		t.Errorf("unexpected ttl: %v", store.ttls["run-1"])
	}
}

func TestTrigger_NotFoundMapsTo404(t *testing.T) {
	err := fmt.Errorf("fetching record: %w", notion.ErrNotFound)
	runner := &fakeRunner{fn: failedOutcome(pipeline.StateFetching, err)}
	_, router := newTestRuns(runner, newMemSummaries())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, triggerReq(`{"record_id": "proj-43"}`))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	code, details := parseErr(t, rec)
	if code != "RECORD_NOT_FOUND" {
		t.Errorf("unexpected code: %s", code)
	}
	if details["stage"] != "fetching" {
		t.Errorf("unexpected stage: %v", details["stage"])
	}
	if details["run_id"] != "run-1" {
		t.Errorf("unexpected run_id: %v", details["run_id"])
	}
}

func TestTrigger_WriteFailureMapsTo502(t *testing.T) {
	err := fmt.Errorf("writing results: %w", notion.ErrTransport)
	runner := &fakeRunner{fn: failedOutcome(pipeline.StateWriting, err)}
	_, router := newTestRuns(runner, newMemSummaries())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, triggerReq(`{"record_id": "proj-42"}`))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	code, details := parseErr(t, rec)
	if code != "RUN_FAILED" {
		t.Errorf("unexpected code: %s", code)
	}
	if details["stage"] != "writing" {
		t.Errorf("unexpected stage: %v", details["stage"])
	}
	if !strings.Contains(details["cause"].(string), "record store unreachable") {
		t.Errorf("cause should carry the error, got %v", details["cause"])
	}
}

func TestTrigger_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"record_id":`},
		{"missing record id", `{}`},
		{"blank record id", `{"record_id": "   "}`},
		{"wrong type", `{"record_id": 42}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{fn: doneOutcome}
			_, router := newTestRuns(runner, newMemSummaries())
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, triggerReq(tc.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if code, _ := parseErr(t, rec); code != "INVALID_REQUEST" {
				t.Errorf("unexpected code: %s", code)
			}
			if len(runner.calls) != 0 {
				t.Errorf("no run should start, got %v", runner.calls)
			}
		})
	}
}

func TestTrigger_OversizedBodyRejected(t *testing.T) {
	runner := &fakeRunner{fn: doneOutcome}
	_, router := newTestRuns(runner, newMemSummaries())
	rec := httptest.NewRecorder()

	body := `{"record_id": "` + strings.Repeat("a", maxBodyBytes) + `"}`
	router.ServeHTTP(rec, triggerReq(body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTrigger_RunSurvivesClientDisconnect(t *testing.T) {
	var ctxErr error
	var hasDeadline bool
	runner := &fakeRunner{fn: func(ctx context.Context, runID, recordID string) pipeline.Outcome {
		ctxErr = ctx.Err()
		_, hasDeadline = ctx.Deadline()
		return doneOutcome(ctx, runID, recordID)
	}}
	_, router := newTestRuns(runner, newMemSummaries())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := triggerReq(`{"record_id": "proj-42"}`).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if ctxErr != nil {
		t.Errorf("run context should not be cancelled with the request, got %v", ctxErr)
	}
	if !hasDeadline {
		t.Error("run context should carry the run timeout")
	}
}

func TestTrigger_AsyncRunCanBePolled(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	runner := &fakeRunner{fn: func(ctx context.Context, runID, recordID string) pipeline.Outcome {
		<-release
		return doneOutcome(ctx, runID, recordID)
	}}
	h, router := newTestRuns(runner, newMemSummaries())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, triggerReq(`{"record_id": "proj-42", "async": true}`))
	data := parseData(t, rec, http.StatusAccepted)
	if data["state"] != "running" || data["run_id"] != "run-1" {
		t.Fatalf("unexpected accepted body: %v", data)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil))
	if got := parseData(t, rec, http.StatusOK)["state"]; got != "running" {
		t.Errorf("expected running before completion, got %v", got)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil))
	data = parseData(t, rec, http.StatusOK)
	if data["state"] != "done" {
		t.Errorf("expected done after completion, got %v", data["state"])
	}
	if data["succeeded"] != float64(6) {
		t.Errorf("unexpected succeeded: %v", data["succeeded"])
	}
}

func TestWait_HonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	runner := &fakeRunner{fn: func(ctx context.Context, runID, recordID string) pipeline.Outcome {
		<-release
		return doneOutcome(ctx, runID, recordID)
	}}
	h, router := newTestRuns(runner, newMemSummaries())
	router.ServeHTTP(httptest.NewRecorder(), triggerReq(`{"record_id": "proj-42", "async": true}`))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestGet_UnknownRun(t *testing.T) {
	_, router := newTestRuns(&fakeRunner{fn: doneOutcome}, newMemSummaries())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code, _ := parseErr(t, rec); code != "RUN_NOT_FOUND" {
		t.Errorf("unexpected code: %s", code)
	}
}

func TestGet_StoreUnavailable(t *testing.T) {
	store := newMemSummaries()
	store.err = errors.New("connection refused")
	_, router := newTestRuns(&fakeRunner{fn: doneOutcome}, store)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestTrigger_StoreFailureDoesNotFailRun(t *testing.T) {
	store := newMemSummaries()
	store.err = errors.New("connection refused")
	_, router := newTestRuns(&fakeRunner{fn: doneOutcome}, store)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, triggerReq(`{"record_id": "proj-42"}`))

	parseData(t, rec, http.StatusOK)
}

func TestTrigger_EachRequestGetsItsOwnRunID(t *testing.T) {
	runner := &fakeRunner{fn: doneOutcome}
	_, router := newTestRuns(runner, newMemSummaries())

	var ids []any
	for range 2 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, triggerReq(`{"record_id": "proj-42"}`))
		ids = append(ids, parseData(t, rec, http.StatusOK)["run_id"])
	}
	if ids[0] == ids[1] {
		t.Errorf("run ids should differ, got %v", ids)
	}
	if got := fmt.Sprint(runner.calls); got != "[proj-42 proj-42]" {
		t.Errorf("unexpected calls: %s", got)
	}
}
