// Package local is the generation backend for a locally hosted model server
// (Ollama, llama.cpp server, vLLM) speaking the OpenAI-compatible protocol.
package local

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/generation"
)

// Config holds the local model server settings.
type Config struct {
	ServerURL string
	Model     string
	// Token is sent as bearer credential; local servers usually ignore it.
	Token string
	// SinglePrompt sends one flat prompt instead of system and user messages,
	// for completion-only models without a chat template.
	SinglePrompt bool
	Logger       *zap.Logger
}

// Generator calls a local model through langchaingo.
type Generator struct {
	llm          llms.Model
	model        string
	singlePrompt bool
	logger       *zap.Logger
}

// New creates a local generation backend.
func New(cfg *Config) (*Generator, error) {
	token := cfg.Token
	if token == "" {
		token = "none"
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.ServerURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create local llm client: %w", err)
	}
	return newWithModel(llm, cfg), nil
}

func newWithModel(llm llms.Model, cfg *Config) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		llm:          llm,
		model:        cfg.Model,
		singlePrompt: cfg.SinglePrompt,
		logger:       logger.With(zap.String("component", "local-generator")),
	}
}

// Name identifies the backend in metrics and logs.
func (g *Generator) Name() string { return "local" }

// Complete runs one generation with the mode's sampling settings.
func (g *Generator) Complete(ctx context.Context, p generation.Prompt, params generation.Params) (string, error) {
	opts := callOptions(params)

	if g.singlePrompt {
		text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, p.Flat(), opts...)
		if err != nil {
			return "", fmt.Errorf("local completion: %w: %w", err, domain.ErrGenerationFailed)
		}
		return text, nil
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, p.System),
		llms.TextParts(llms.ChatMessageTypeHuman, p.User),
	}
	resp, err := g.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("local chat: %w: %w", err, domain.ErrGenerationFailed)
	}
	if len(resp.Choices) < 1 {
		return "", fmt.Errorf("local chat returned no choices: %w", domain.ErrGenerationFailed)
	}

	choice := resp.Choices[0]
	g.logger.Debug("Local generation finished",
		zap.String("model", g.model),
		zap.String("stop_reason", choice.StopReason),
	)
	return choice.Content, nil
}

// callOptions maps mode params to langchaingo options. The OpenAI-compatible client
// ignores llms.WithMinLength, so MinTokens is not sent.
func callOptions(params generation.Params) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(params.Temperature)}
	if params.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(params.MaxTokens))
	}
	return opts
}
