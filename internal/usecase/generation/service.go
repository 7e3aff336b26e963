// Package generation wraps a generation backend so that every failure becomes "no result".
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	domgen "github.com/kailas-cloud/faqdex/internal/domain/generation"
	"github.com/kailas-cloud/faqdex/internal/domain/generation/mode"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// Generation status labels.
const (
	statusOK          = "ok"
	statusError       = "error"
	statusEmpty       = "empty"
	statusTimeout     = "timeout"
	statusRateLimited = "rate_limited"
	statusPanic       = "panic"
)

// Config configures the generation client.
type Config struct {
	Instructions domgen.Instructions
	// Params holds sampling settings per mode; a missing mode uses zero values.
	Params map[mode.Mode]domgen.Params
	// Timeout bounds one call including the rate-limit wait; zero disables it.
	Timeout time.Duration
	// Limiter throttles outbound calls; nil means unlimited.
	Limiter *rate.Limiter
}

// Client absorbs every backend failure into an absent result.
type Client struct {
	backend Backend
	cfg     Config
	logger  *zap.Logger
}

// New creates a generation client.
func New(backend Backend, cfg Config, logger *zap.Logger) *Client {
	return &Client{backend: backend, cfg: cfg, logger: logger}
}

// Generate asks the backend for a grounded answer. ok is false on any error, timeout,
// rate-limit rejection, panic, or blank output; the error never escapes.
func (c *Client) Generate(ctx context.Context, question, contextText, topic string, m mode.Mode) (text string, ok bool) {
	log := logger.FromContextOr(ctx, c.logger)
	backend := c.backend.Name()
	start := time.Now()

	status := statusOK
	defer func() {
		metrics.GenerationRequestsTotal.WithLabelValues(backend, string(m), status).Inc()
		metrics.GenerationDuration.WithLabelValues(backend, string(m)).Observe(time.Since(start).Seconds())
	}()

	text, err := c.call(ctx, question, contextText, topic, m)
	if err != nil {
		status = classify(err)
		log.Warn("Generation failed, falling back to stored answer",
			zap.String("backend", backend),
			zap.String("mode", string(m)),
			zap.String("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		status = statusEmpty
		log.Warn("Generation returned empty text",
			zap.String("backend", backend),
			zap.String("mode", string(m)),
		)
		return "", false
	}

	log.Debug("Generation completed",
		zap.String("backend", backend),
		zap.String("mode", string(m)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("chars", len(text)),
	)
	return text, true
}

var errRateLimited = errors.New("generation rate limit wait aborted")

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("generation backend panic: %v", p.v) }

func (c *Client) call(
	ctx context.Context, question, contextText, topic string, m mode.Mode,
) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError{v: rec}
		}
	}()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if c.cfg.Limiter != nil {
		if werr := c.cfg.Limiter.Wait(ctx); werr != nil {
			return "", fmt.Errorf("%w: %w", errRateLimited, werr)
		}
	}

	prompt := c.cfg.Instructions.Build(question, contextText, topic)
	text, err = c.backend.Complete(ctx, prompt, c.cfg.Params[m])
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return "", err
	}
	return text, nil
}

func classify(err error) string {
	var pe panicError
	switch {
	case errors.As(err, &pe):
		return statusPanic
	case errors.Is(err, errRateLimited):
		return statusRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		return statusTimeout
	default:
		return statusError
	}
}
