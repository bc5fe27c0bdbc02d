package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config describes one OpenAI-compatible endpoint (OpenRouter by default)
// bound to a single model.
type Config struct {
	BaseURL            string
	APIKey             string
	Model              string
	MaxCompletionToken *int
	Temperature        float32
	Timeout            time.Duration
	SiteURL            string
	SiteName           string
	// Stop lists sequences that end generation early.
	Stop []string
}

func (c Config) headers() map[string]string {
	h := map[string]string{}
	if v := strings.TrimSpace(c.SiteURL); v != "" {
		h["HTTP-Referer"] = v
	}
	if v := strings.TrimSpace(c.SiteName); v != "" {
		h["X-Title"] = v
	}
	return h
}

// NewChatModel builds an eino chat model for cfg.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openrouter: api key is required")
	}
	temperature := cfg.Temperature

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		APIKey:      strings.TrimSpace(cfg.APIKey),
		Model:       strings.TrimSpace(cfg.Model),
		MaxTokens:   cfg.MaxCompletionToken,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
		Stop:        cfg.Stop,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openrouter: create chat model: %w", err)
	}

	return m, nil
}

// NewClient creates an OpenAI SDK client configured for OpenRouter. It
// returns nil when no api key is configured.
func NewClient(cfg Config) *openaisdk.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	for k, v := range cfg.headers() {
		opts = append(opts, option.WithHeader(k, v))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
