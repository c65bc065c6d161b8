package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultModel is used when the config leaves the model empty.
	DefaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024
	defaultTimeout   = 30 * time.Second
	keyPrefix        = "sk-ant-"
)

var (
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("advisor: unauthorized (API key invalid or revoked)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("advisor: rate limited")
)

const systemPrompt = "You are a concise personal-finance assistant. " +
	"You answer with a single JSON object and no surrounding prose."

// AnthropicConfig configures the Messages API generator.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	// BaseURL overrides the API endpoint. Tests point it at httptest.
	BaseURL string
	Timeout time.Duration
}

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewAnthropic creates a generator for cfg.
// Returns nil if the key is empty or does not look like an Anthropic key.
func NewAnthropic(cfg AnthropicConfig) *AnthropicGenerator {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" || !KeyLooksValid(key) {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	g := &AnthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = defaultMaxTokens
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	return g
}

// Generate sends prompt as a single user turn and joins the text blocks of
// the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classify(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("advisor: reply had no text")
	}
	return b.String(), nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		case http.StatusTooManyRequests:
			return ErrRateLimited
		}
		return fmt.Errorf("advisor: unexpected status %d: %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("advisor: request failed: %w", err)
}

// NewFromConfig builds an advisor backed by the Messages API, or an
// unconfigured one when cfg has no usable key.
func NewFromConfig(cfg AnthropicConfig, logger *slog.Logger) *Advisor {
	if g := NewAnthropic(cfg); g != nil {
		return New(g, logger)
	}
	a := New(nil, logger)
	if strings.TrimSpace(cfg.APIKey) != "" {
		a.log.Warn("API key ignored, AI insights disabled", "expected_prefix", keyPrefix)
	}
	return a
}

// KeyLooksValid reports whether key has the Anthropic key prefix.
func KeyLooksValid(key string) bool {
	return strings.HasPrefix(strings.TrimSpace(key), keyPrefix)
}
