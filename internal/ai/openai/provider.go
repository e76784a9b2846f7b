package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/projectlens/internal/config"
	"github.com/kiranshivaraju/projectlens/pkg/models"
	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4-turbo-preview"

// systemPrompt frames every completion; dimension prompts carry the task.
const systemPrompt = "You are a business analyst providing professional project analysis. " +
	"Answer using the labeled sections requested, one label per line, without extra preamble."

// Provider implements models.CompletionProvider over the OpenAI chat
// completions API or any server exposing a compatible endpoint.
type Provider struct {
	name   string
	model  string
	client *goopenai.Client
}

// NewProvider creates a provider for api.openai.com (or OPENAI_BASE_URL).
func NewProvider(cfg config.OpenAIConfig) *Provider {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Provider{name: "openai", model: cfg.Model, client: goopenai.NewClientWithConfig(clientCfg)}
}

// NewCompatibleProvider creates a provider for an OpenAI-compatible server
// such as Ollama or vLLM. baseURL is the server root; "/v1" is appended.
func NewCompatibleProvider(name, baseURL, apiKey, model string) *Provider {
	clientCfg := goopenai.DefaultConfig(apiKey)
	clientCfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	return &Provider{name: name, model: model, client: goopenai.NewClientWithConfig(clientCfg)}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		model = defaultModel
	}

	req := goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// Reasoning models reject max_tokens and a custom temperature.
	if isReasoningModel(model) {
		req.MaxCompletionTokens = opts.MaxTokens
	} else {
		req.MaxTokens = opts.MaxTokens
		req.Temperature = opts.Temperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", models.ErrCompletionProvider)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion (finish reason %q)",
			models.ErrCompletionProvider, resp.Choices[0].FinishReason)
	}
	return content, nil
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// classifyError maps client errors onto the completion failure classes.
func classifyError(ctx context.Context, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("%w: %v", models.ErrCompletionTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrCompletionTimeout, err)
	}

	return fmt.Errorf("%w: %v", models.ErrCompletionProvider, err)
}

func classifyStatus(status int, err error) error {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %v", models.ErrCompletionRateLimited, err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %v", models.ErrCompletionTimeout, err)
	default:
		return fmt.Errorf("%w: %v", models.ErrCompletionProvider, err)
	}
}

var _ models.CompletionProvider = (*Provider)(nil)
