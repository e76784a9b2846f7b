package ai

import (
	"fmt"

	"github.com/kiranshivaraju/projectlens/internal/ai/openai"
	"github.com/kiranshivaraju/projectlens/internal/config"
	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// NewProvider constructs the appropriate completion provider based on config.
// Ollama and vLLM are reached through their OpenAI-compatible endpoints.
func NewProvider(cfg config.AIConfig) (models.CompletionProvider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "ollama":
		return openai.NewCompatibleProvider("ollama", cfg.Ollama.BaseURL, "ollama", cfg.Ollama.Model), nil
	case "vllm":
		return openai.NewCompatibleProvider("vllm", cfg.VLLM.BaseURL, cfg.VLLM.APIKey, cfg.VLLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, ollama, vllm", cfg.Provider)
	}
}

// CompletionOptions derives per-request options from config.
func CompletionOptions(cfg config.AIConfig) models.CompletionOptions {
	opts := models.CompletionOptions{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	switch cfg.Provider {
	case "openai":
		opts.Model = cfg.OpenAI.Model
	case "ollama":
		opts.Model = cfg.Ollama.Model
	case "vllm":
		opts.Model = cfg.VLLM.Model
	}
	return opts
}
