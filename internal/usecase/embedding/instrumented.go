// Package embedding holds the decorators around the query embedder.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
)

// InstrumentedEmbedder wraps Embedder with a dimension guard and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	dimension int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. A positive dimension makes every
// returned vector checked against it; the corpus dimension is passed here so a
// misconfigured model fails loudly instead of producing meaningless scores.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	dimension int, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		dimension: dimension,
		logger:    logger,
	}
}

// Embed delegates to the inner embedder and validates the vector length.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if p.dimension > 0 && len(result.Embedding) != p.dimension {
		p.logger.Error("Embedding dimension mismatch",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("expected", p.dimension),
			zap.Int("got", len(result.Embedding)),
		)
		return domain.EmbeddingResult{}, fmt.Errorf(
			"query vector has %d dimensions, corpus has %d: %w",
			len(result.Embedding), p.dimension, domain.ErrVectorDimMismatch,
		)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through decorator
	}
	return nil
}
