// Package models contains shared data models used across the projectlens codebase.
package models

import (
	"context"
	"errors"
)

// CompletionProvider is the core interface that all AI integrations must implement.
// Callers receive one by injection and never construct a provider directly.
type CompletionProvider interface {
	// Complete sends a single prompt and returns the raw model text.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	// Name returns the provider identifier (e.g., "openai", "ollama").
	Name() string
}

// CompletionOptions tunes a single completion request.
type CompletionOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Completion failure classes. Providers wrap one of these so callers can
// decide whether a retry may help.
var (
	ErrCompletionRateLimited = errors.New("ai provider rate limited")
	ErrCompletionTimeout     = errors.New("ai inference timeout")
	ErrCompletionProvider    = errors.New("ai provider error")
)
