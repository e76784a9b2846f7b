package pipeline

import (
	"fmt"

	"github.com/kiranshivaraju/projectlens/internal/ai"
	"github.com/kiranshivaraju/projectlens/internal/analysis"
	"github.com/kiranshivaraju/projectlens/internal/config"
	"github.com/kiranshivaraju/projectlens/internal/notion"
)

// FromConfig wires the record client, completion provider and analysis
// engine described by cfg into an Orchestrator.
func FromConfig(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("create AI provider: %w", err)
	}

	records := notion.NewHTTPClient(cfg.Notion.BaseURL, cfg.Notion.Token, cfg.Notion.Version,
		cfg.Notion.DatabaseID, cfg.Notion.Timeout)

	engine := analysis.NewEngine(provider, ai.CompletionOptions(cfg.AI),
		analysis.WithRetryPolicy(analysis.RetryPolicy{
			MaxRetries:      cfg.Analysis.MaxRetries,
			InitialInterval: cfg.Analysis.RetryInitial,
			Multiplier:      cfg.Analysis.RetryMultiplier,
		}),
		analysis.WithCallTimeout(cfg.AI.InferenceTimeout),
		analysis.WithMaxConcurrency(cfg.Analysis.MaxConcurrency),
	)

	base := []Option{WithStatusMarkers(cfg.Pipeline.StatusMarkers)}
	if cfg.Pipeline.ChildPages {
		base = append(base, WithChildPages(records))
	}
	opts = append(base, opts...)
	return New(records, engine, opts...), nil
}
