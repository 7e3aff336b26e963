// Package answer routes a question to a stored answer, a generated answer, or the fallback.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/faqdex/internal/usecase/answer"

// Config configures routing.
type Config struct {
	Thresholds Thresholds
	// ContextSnippets is the total snippet count passed to generation, best match included.
	ContextSnippets int
}

// Service answers single questions. It holds no mutable state and is safe for concurrent use.
type Service struct {
	embed   Embedder
	matcher Matcher
	gen     Generator
	corpus  Corpus
	cfg     Config
	logger  *zap.Logger
}

// New creates an answer service.
func New(embed Embedder, matcher Matcher, gen Generator, c Corpus, cfg Config, logger *zap.Logger) *Service {
	if cfg.ContextSnippets < 1 {
		cfg.ContextSnippets = 1
	}
	return &Service{embed: embed, matcher: matcher, gen: gen, corpus: c, cfg: cfg, logger: logger}
}

// Answer embeds the question, finds the best match and routes by its score.
// Generation failures are absorbed by falling back to the stored answer.
func (s *Service) Answer(ctx context.Context, question string) (domanswer.Result, error) {
	log := logger.FromContextOr(ctx, s.logger)

	question = strings.TrimSpace(question)
	if question == "" {
		return domanswer.Result{}, fmt.Errorf("question is empty: %w", domain.ErrInvalidQuestion)
	}

	vec, err := s.embedQuestion(ctx, question)
	if err != nil {
		return domanswer.Result{}, err
	}

	_, span := otel.Tracer(tracerName).Start(ctx, "answer.match")
	best := s.matcher.FindBestMatch(vec)
	span.SetAttributes(attribute.Float64("match.score", best.Score), attribute.Bool("match.found", best.Found))
	span.End()

	route := RouteFallback
	if best.Found {
		route = s.cfg.Thresholds.Classify(best.Score)
		metrics.MatchScore.Observe(best.Score)
	}

	var res domanswer.Result
	switch route {
	case RouteDirect:
		res = domanswer.Direct(best.Record, best.Score)
	case RouteGenerate:
		res = s.generate(ctx, question, best.Record, best.Score)
	default:
		res = domanswer.Fallback(best.Score)
	}

	metrics.AnswersTotal.WithLabelValues(string(res.Outcome())).Inc()
	log.Info("Question answered",
		zap.Int("question_len", len(question)),
		zap.Bool("matched", best.Found),
		zap.Float64("score", domanswer.Round(best.Score)),
		zap.String("route", route.String()),
		zap.String("outcome", string(res.Outcome())),
	)
	return res, nil
}

// Encode returns the query embedding for text, as used for matching.
func (s *Service) Encode(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is empty: %w", domain.ErrInvalidQuestion)
	}
	return s.embedQuestion(ctx, text)
}

// Topics returns the distinct corpus topics in corpus order.
func (s *Service) Topics() []string {
	topics := s.corpus.Topics()
	if topics == nil {
		return []string{}
	}
	return topics
}

// RecordCount returns the number of loaded records.
func (s *Service) RecordCount() int { return s.corpus.Len() }

func (s *Service) embedQuestion(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "answer.embed")
	defer span.End()

	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		if !errors.Is(err, domain.ErrEmbeddingProviderError) && !errors.Is(err, domain.ErrVectorDimMismatch) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return nil, fmt.Errorf("embed question: %w", err)
	}
	span.SetAttributes(attribute.Int("embedding.dimensions", len(res.Embedding)))
	return res.Embedding, nil
}

func (s *Service) generate(ctx context.Context, question string, best qa.Record, score float64) domanswer.Result {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "answer.generate")
	defer span.End()

	m := s.cfg.Thresholds.Mode(score)
	span.SetAttributes(attribute.String("generation.mode", string(m)))

	contextText := BuildContext(s.corpus, best, s.cfg.ContextSnippets)
	text, ok := s.gen.Generate(ctx, question, contextText, best.Topic(), m)
	if !ok {
		span.SetAttributes(attribute.Bool("generation.fallback", true))
		return domanswer.Direct(best, score)
	}
	return domanswer.Generated(text, best, score)
}
