package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/pkg/anthropic"
	"github.com/sells-group/domain-cli/pkg/openrouter"
)

// Reasoner sends one prompt to a reasoning backend and returns the raw text
// of its answer.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// OpenRouterReasoner adapts an OpenRouter chat-completion client.
type OpenRouterReasoner struct {
	client      openrouter.Client
	temperature float64
	maxTokens   int
}

// NewOpenRouterReasoner creates a Reasoner backed by OpenRouter.
func NewOpenRouterReasoner(client openrouter.Client, cfg config.AIConfig) *OpenRouterReasoner {
	return &OpenRouterReasoner{client: client, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens}
}

func (r *OpenRouterReasoner) Complete(ctx context.Context, prompt string) (string, error) {
	temp := r.temperature
	maxTokens := r.maxTokens
	resp, err := r.client.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Messages:    []openrouter.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

func (r *OpenRouterReasoner) Provider() string { return config.ProviderOpenRouter }

func (r *OpenRouterReasoner) Model() string { return r.client.Model() }

// AnthropicReasoner adapts the Anthropic Messages client.
type AnthropicReasoner struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewAnthropicReasoner creates a Reasoner backed by Anthropic.
func NewAnthropicReasoner(client anthropic.Client, cfg config.AIConfig) *AnthropicReasoner {
	return &AnthropicReasoner{
		client:      client,
		model:       cfg.AnthropicModel,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
	}
}

func (r *AnthropicReasoner) Complete(ctx context.Context, prompt string) (string, error) {
	temp := r.temperature
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.Log(r.model, "disambiguate")
	return resp.Text(), nil
}

func (r *AnthropicReasoner) Provider() string { return config.ProviderAnthropic }

func (r *AnthropicReasoner) Model() string { return r.model }

// NewReasoner picks the backend named by cfg.Provider.
func NewReasoner(cfg config.AIConfig) (Reasoner, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter, "":
		client := openrouter.NewClient(cfg.Key,
			openrouter.WithBaseURL(cfg.BaseURL),
			openrouter.WithModel(cfg.Model),
		)
		return NewOpenRouterReasoner(client, cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropicReasoner(anthropic.NewClient(cfg.AnthropicKey), cfg), nil
	default:
		return nil, eris.Errorf("pipeline: unknown ai provider %q", cfg.Provider)
	}
}
