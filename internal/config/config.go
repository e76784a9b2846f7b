package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for projectlens.
type Config struct {
	Server   ServerConfig
	Notion   NotionConfig
	Redis    RedisConfig
	AI       AIConfig
	Analysis AnalysisConfig
	Pipeline PipelineConfig
	Webhook  WebhookConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type NotionConfig struct {
	Token      string
	DatabaseID string
	BaseURL    string
	Version    string
	Timeout    time.Duration
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Temperature      float32
	MaxTokens        int
	OpenAI           OpenAIConfig
	Ollama           OllamaConfig
	VLLM             VLLMConfig
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// AnalysisConfig controls retries and fan-out of the per-dimension completions.
type AnalysisConfig struct {
	MaxRetries      int
	RetryInitial    time.Duration
	RetryMultiplier float64
	MaxConcurrency  int
}

type PipelineConfig struct {
	StatusMarkers bool
	// ChildPages creates a report page beneath the record per dimension.
	ChildPages bool
}

// WebhookConfig controls the HTTP trigger surface.
type WebhookConfig struct {
	TokenHashes       []string
	RequestsPerMinute int
	RunTimeout        time.Duration
	SummaryTTL        time.Duration
}

var validProviders = map[string]bool{
	"openai": true,
	"ollama": true,
	"vllm":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PROJECTLENS_PORT", 8080),
			Env:  envString("PROJECTLENS_ENV", "development"),
		},
		Notion: NotionConfig{
			Token:      os.Getenv("NOTION_TOKEN"),
			DatabaseID: os.Getenv("NOTION_DATABASE_ID"),
			BaseURL:    strings.TrimRight(envString("NOTION_BASE_URL", "https://api.notion.com"), "/"),
			Version:    envString("NOTION_VERSION", "2022-06-28"),
			Timeout:    envDuration("NOTION_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "openai"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			Temperature:      envFloat32("AI_TEMPERATURE", 0.3),
			MaxTokens:        envInt("AI_MAX_TOKENS", 1500),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4-turbo-preview"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
				APIKey:  os.Getenv("VLLM_API_KEY"),
			},
		},
		Analysis: AnalysisConfig{
			MaxRetries:      envInt("ANALYSIS_MAX_RETRIES", 2),
			RetryInitial:    envDuration("ANALYSIS_RETRY_INITIAL", time.Second),
			RetryMultiplier: envFloat64("ANALYSIS_RETRY_MULTIPLIER", 2),
			MaxConcurrency:  envInt("ANALYSIS_MAX_CONCURRENCY", 6),
		},
		Pipeline: PipelineConfig{
			StatusMarkers: envBool("PIPELINE_STATUS_MARKERS", true),
			ChildPages:    envBool("PIPELINE_CHILD_PAGES", true),
		},
		Webhook: WebhookConfig{
			TokenHashes:       envList("WEBHOOK_TOKEN_HASHES"),
			RequestsPerMinute: envInt("WEBHOOK_RATE_LIMIT", 30),
			RunTimeout:        envDuration("WEBHOOK_RUN_TIMEOUT", 10*time.Minute),
			SummaryTTL:        envDuration("WEBHOOK_SUMMARY_TTL", 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateServer checks the settings only the webhook server needs.
func (c *Config) ValidateServer() error {
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required for the webhook server")
	}
	if len(c.Webhook.TokenHashes) == 0 {
		return fmt.Errorf("WEBHOOK_TOKEN_HASHES is required for the webhook server")
	}
	if c.Webhook.RequestsPerMinute < 1 {
		return fmt.Errorf("WEBHOOK_RATE_LIMIT must be at least 1, got %d", c.Webhook.RequestsPerMinute)
	}
	// The server write timeout is derived from the run timeout.
	if c.Webhook.RunTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_RUN_TIMEOUT must be positive, got %v", c.Webhook.RunTimeout)
	}
	if c.Webhook.SummaryTTL <= 0 {
		return fmt.Errorf("WEBHOOK_SUMMARY_TTL must be positive, got %v", c.Webhook.SummaryTTL)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Notion.Token == "" {
		return fmt.Errorf("NOTION_TOKEN is required")
	}
	if c.Notion.DatabaseID == "" {
		return fmt.Errorf("NOTION_DATABASE_ID is required")
	}
	if !strings.HasPrefix(c.Notion.BaseURL, "http://") && !strings.HasPrefix(c.Notion.BaseURL, "https://") {
		return fmt.Errorf("NOTION_BASE_URL must start with http:// or https://, got %q", c.Notion.BaseURL)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, ollama, vllm; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "vllm" && c.AI.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("AI_MAX_TOKENS must be positive, got %d", c.AI.MaxTokens)
	}

	if c.Analysis.MaxRetries < 0 {
		return fmt.Errorf("ANALYSIS_MAX_RETRIES must not be negative, got %d", c.Analysis.MaxRetries)
	}
	if c.Analysis.RetryInitial <= 0 {
		return fmt.Errorf("ANALYSIS_RETRY_INITIAL must be positive, got %v", c.Analysis.RetryInitial)
	}
	if c.Analysis.RetryMultiplier < 1 {
		return fmt.Errorf("ANALYSIS_RETRY_MULTIPLIER must be at least 1, got %v", c.Analysis.RetryMultiplier)
	}
	if c.Analysis.MaxConcurrency < 1 {
		return fmt.Errorf("ANALYSIS_MAX_CONCURRENCY must be at least 1, got %d", c.Analysis.MaxConcurrency)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat64(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envFloat32(key string, defaultVal float32) float32 {
	return float32(envFloat64(key, float64(defaultVal)))
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
