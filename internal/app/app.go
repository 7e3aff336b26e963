// Package app assembles the FAQ service from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/faqdex/internal/config"
	"github.com/kailas-cloud/faqdex/internal/db"
	dbRedis "github.com/kailas-cloud/faqdex/internal/db/redis"
	"github.com/kailas-cloud/faqdex/internal/domain"
	domcorpus "github.com/kailas-cloud/faqdex/internal/domain/corpus"
	domgen "github.com/kailas-cloud/faqdex/internal/domain/generation"
	"github.com/kailas-cloud/faqdex/internal/domain/generation/mode"
	"github.com/kailas-cloud/faqdex/internal/metrics"
	corpusrepo "github.com/kailas-cloud/faqdex/internal/repository/corpus"
	"github.com/kailas-cloud/faqdex/internal/repository/embcache"
	"github.com/kailas-cloud/faqdex/internal/transport/local"
	openaiTransport "github.com/kailas-cloud/faqdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/faqdex/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/faqdex/internal/usecase/batch"
	embeddinguc "github.com/kailas-cloud/faqdex/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/faqdex/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
	matchuc "github.com/kailas-cloud/faqdex/internal/usecase/match"
)

// Runtime is the immutable set of initialized services.
type Runtime struct {
	Corpus   *domcorpus.Corpus
	Answers  *answeruc.Service
	Batch    *batchuc.Service
	Embedder domain.Embedder

	store     db.Store
	checkEmbd bool
}

// Build loads the corpus and wires every service. Any error is fatal to startup.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Runtime, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterAnswerMetrics()

	c, err := corpusrepo.Load(cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	metrics.CorpusRecords.Set(float64(c.Len()))
	logger.Info("Corpus loaded",
		zap.String("path", cfg.Corpus.Path),
		zap.Int("records", c.Len()),
		zap.Int("dimension", c.Dimension()),
		zap.Int("topics", len(c.Topics())),
	)

	if d := cfg.Embedding.Dimensions; d > 0 && !c.Empty() && d != c.Dimension() {
		return nil, fmt.Errorf("embedding.dimensions=%d but corpus vectors have %d: %w",
			d, c.Dimension(), domain.ErrVectorDimMismatch)
	}

	rt := &Runtime{Corpus: c, checkEmbd: cfg.Startup.HealthChecksEmbedding}

	if cfg.Embedding.Cache.Enabled {
		store, err := openStore(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		rt.store = store
		logger.Info("Connected to cache database", zap.Strings("addrs", cfg.Database.Addrs))
	}

	rt.Embedder = buildEmbedder(cfg.Embedding, c.Dimension(), rt.store, logger)

	backend, err := buildBackend(cfg.Generation, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	genClient := generationuc.New(backend, generationConfig(cfg.Generation), logger)

	if cfg.Startup.ProbeProviders {
		if err := probe(ctx, rt.Embedder, backend, logger); err != nil {
			rt.Close()
			return nil, err
		}
	}

	rt.Answers = answeruc.New(rt.Embedder, matchuc.New(c), genClient, c, answeruc.Config{
		Thresholds: answeruc.Thresholds{
			High:         *cfg.Routing.High,
			Low:          *cfg.Routing.Low,
			BalancedFrom: *cfg.Routing.BalancedFrom,
		},
		ContextSnippets: cfg.Routing.ContextSnippets,
	}, logger)

	batch, err := batchuc.New(rt.Answers, cfg.Batch.Workers, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build batch service: %w", err)
	}
	rt.Batch = batch.WithMaxBatchSize(cfg.Batch.MaxSize).WithDeadline(cfg.BatchDeadline())

	logger.Info("Runtime ready",
		zap.String("generation_backend", backend.Name()),
		zap.Float64("threshold_high", *cfg.Routing.High),
		zap.Float64("threshold_low", *cfg.Routing.Low),
	)
	return rt, nil
}

// HealthComponents returns the parts checked by /health.
func (rt *Runtime) HealthComponents() healthuc.Components {
	comp := healthuc.Components{Records: rt.Answers}
	if rt.store != nil {
		comp.Cache = rt.store
	}
	if rt.checkEmbd {
		if hc, ok := rt.Embedder.(domain.HealthChecker); ok {
			comp.Embedding = hc
		}
	}
	return comp
}

// Close releases the batch pool and the cache connection.
func (rt *Runtime) Close() {
	if rt.Batch != nil {
		rt.Batch.Release()
	}
	if rt.store != nil {
		rt.store.Close()
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	// Valkey speaks the Redis protocol; both drivers share the rueidis store.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
	}
	return store, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(cfg config.EmbeddingConfig, dimension int, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		embedder = embcache.New(base, store, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, dimension, logger)

	// Instruction prefix is outermost so the cache key includes it.
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return embedder
}

func buildBackend(cfg config.GenerationConfig, logger *zap.Logger) (generationuc.Backend, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		g, err := local.New(&local.Config{
			ServerURL:    cfg.Local.ServerURL,
			Model:        cfg.Local.Model,
			Token:        cfg.Local.Token,
			SinglePrompt: cfg.Local.SinglePrompt,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create local generation backend: %w", err)
		}
		return g, nil
	case config.BackendOpenAI:
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown generation backend %q", cfg.Backend)
	}
}

func generationConfig(cfg config.GenerationConfig) generationuc.Config {
	out := generationuc.Config{
		Instructions: domgen.Instructions{Persona: cfg.Persona, Domain: cfg.Domain},
		Params: map[mode.Mode]domgen.Params{
			mode.Strict:   modeParams(cfg.Strict),
			mode.Balanced: modeParams(cfg.Balanced),
		},
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
	}
	if cfg.RateLimit.RPS > 0 {
		out.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}
	return out
}

func modeParams(m config.ModeConfig) domgen.Params {
	p := domgen.Params{MaxTokens: m.MaxTokens, MinTokens: m.MinTokens}
	if m.Temperature != nil {
		p.Temperature = *m.Temperature
	}
	return p
}

// probe checks the providers once so misconfiguration fails startup instead of the first request.
func probe(ctx context.Context, embedder domain.Embedder, backend generationuc.Backend, logger *zap.Logger) error {
	if hc, ok := embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("probe embedding provider: %w", err)
		}
	}
	if hc, ok := backend.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("probe generation backend %s: %w", backend.Name(), err)
		}
	}
	logger.Info("Providers reachable")
	return nil
}
