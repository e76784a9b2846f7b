package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/kiranshivaraju/projectlens/internal/ai"
	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// CannedResponse carries every label any dimension asks for, so it parses
// successfully for all of them.
const CannedResponse = `OPPORTUNITY: High
COMPETITION: Medium
COMPLEXITY: Medium
RISK LEVEL: Low
ROI: High
DECISION: GO
SCORE: 80
SUMMARY: Mock assessment generated for testing.
ITEMS:
- First mock finding
- Second mock finding`

// MockProvider satisfies models.CompletionProvider for testing.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, opts)
	}
	return "", nil
}

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received, in arrival order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// NewMockProvider returns a MockProvider that answers every prompt with CannedResponse.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, _ string, _ models.CompletionOptions) (string, error) {
			return CannedResponse, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ string, _ models.CompletionOptions) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ string, _ models.CompletionOptions) (string, error) {
			<-ctx.Done()
			return "", ai.ErrTimeout
		},
	}
}

// CompleteFunc answers one prompt.
type CompleteFunc func(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error)

// Reply answers with text.
func Reply(text string) CompleteFunc {
	return func(context.Context, string, models.CompletionOptions) (string, error) { return text, nil }
}

// Fail answers with err.
func Fail(err error) CompleteFunc {
	return func(context.Context, string, models.CompletionOptions) (string, error) { return "", err }
}

// Block waits for the call's context to end and reports a timeout.
func Block() CompleteFunc {
	return func(ctx context.Context, _ string, _ models.CompletionOptions) (string, error) {
		<-ctx.Done()
		return "", ai.ErrTimeout
	}
}

const dimensionPrefix = "Analysis dimension:"

// DimensionOf returns the dimension named on the first line of an analysis
// prompt, or "" when there is none.
func DimensionOf(prompt string) string {
	first, _, _ := strings.Cut(prompt, "\n")
	if !strings.HasPrefix(first, dimensionPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(first, dimensionPrefix))
}

// NewRoutedProvider dispatches each prompt by its dimension. Dimensions
// without a route answer with CannedResponse.
func NewRoutedProvider(routes map[string]CompleteFunc) *MockProvider {
	return &MockProvider{
		Name_: "mock-routed",
		CompleteFunc: func(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
			if fn, ok := routes[DimensionOf(prompt)]; ok {
				return fn(ctx, prompt, opts)
			}
			return CannedResponse, nil
		},
	}
}

// Compile-time check that MockProvider implements CompletionProvider.
var _ models.CompletionProvider = (*MockProvider)(nil)
