package openai

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/generation"
)

// Generator is a generation backend using the chat completions API.
// Instructions go in the system message and the question in the user message.
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// GeneratorConfig holds the chat completion provider settings.
type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat generation backend.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

// Name identifies the backend in metrics and logs.
func (g *Generator) Name() string { return "openai" }

// Complete sends one chat completion. The API has no minimum length knob, so MinTokens is ignored.
func (g *Generator) Complete(ctx context.Context, p generation.Prompt, params generation.Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: requestTemperature(params.Temperature),
		MaxTokens:   params.MaxTokens,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion %s: %w", describeAPIError(err), domain.ErrGenerationFailed)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", domain.ErrGenerationFailed)
	}

	g.logger.Debug("Chat completion finished",
		zap.String("model", g.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// requestTemperature maps 0 to the smallest positive float32.
// The request field is omitempty, and an omitted temperature makes the provider use its default of 1.
func requestTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
