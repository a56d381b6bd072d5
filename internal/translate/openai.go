package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/cadlingo/cadlingo/internal/common"
	"github.com/cadlingo/cadlingo/internal/service"
)

// ProviderConfig holds configuration for the OpenAI-compatible provider.
type ProviderConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

// OpenAIProvider implements service.Provider against any OpenAI-compatible
// chat-completions endpoint. A circuit breaker fails calls fast once the
// provider is clearly down, instead of burning the whole retry budget on
// every item.
type OpenAIProvider struct {
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
	cfg     ProviderConfig
}

// NewOpenAIProvider creates a provider from config.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: provider API key", common.ErrMissingConfig)
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "translation-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		breaker: breaker,
		cfg:     cfg,
	}, nil
}

// Translate sends one text to the provider and returns the bare translation.
func (p *OpenAIProvider) Translate(ctx context.Context, req service.TranslationRequest) (string, error) {
	out, err := p.breaker.Execute(func() (any, error) {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req)},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
			},
			Temperature: p.cfg.Temperature,
			MaxTokens:   p.cfg.MaxTokens,
		})
		if err != nil {
			return nil, classifyProviderError(err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("%w: empty completion", common.ErrProviderPersistent)
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: circuit open: %v", common.ErrProviderTransient, err)
		}
		return "", err
	}
	return out.(string), nil
}

// classifyProviderError maps API failures onto the transient/persistent
// taxonomy so the orchestrator retries only what is worth retrying.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", common.ErrProviderTransient, err)
		default:
			return fmt.Errorf("%w: %v", common.ErrProviderPersistent, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrProviderTransient, err)
	}
	// Network-level failures are worth a retry.
	return fmt.Errorf("%w: %v", common.ErrProviderTransient, err)
}

func systemPrompt(req service.TranslationRequest) string {
	var b strings.Builder
	b.WriteString("You are a professional translator for engineering drawings and construction documents.\n")
	b.WriteString("Translate annotation text into ")
	b.WriteString(req.TargetLanguage)
	b.WriteString(".\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Return ONLY the translation, no explanations or quotes.\n")
	b.WriteString("- Keep all digits, measurements, and symbols exactly as they appear.\n")
	b.WriteString("- Use standard engineering and architectural terminology.\n")
	if req.SourceLanguage != "" {
		b.WriteString("- The source language is ")
		b.WriteString(req.SourceLanguage)
		b.WriteString(".\n")
	}
	return b.String()
}

func userPrompt(req service.TranslationRequest) string {
	var b strings.Builder
	if req.Context.EntityKind != "" {
		fmt.Fprintf(&b, "Annotation type: %s\n", req.Context.EntityKind)
	}
	if len(req.Context.Nearby) > 0 {
		b.WriteString("Nearby annotations for context (do not translate these):\n")
		for _, n := range req.Context.Nearby {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	b.WriteString("Text to translate:\n")
	b.WriteString(req.Text)
	return b.String()
}
