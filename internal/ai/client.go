package ai

import (
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"leadgen-relay-go/internal/config"
)

// NewClient builds a go-openai client pointed at the configured
// OpenAI-compatible endpoint (OpenRouter by default).
func NewClient(cfg *config.LLMConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientConfig)
}
