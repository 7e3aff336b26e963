package faqdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	domcorpus "github.com/kailas-cloud/faqdex/internal/domain/corpus"
	domgen "github.com/kailas-cloud/faqdex/internal/domain/generation"
	"github.com/kailas-cloud/faqdex/internal/domain/generation/mode"
	corpusrepo "github.com/kailas-cloud/faqdex/internal/repository/corpus"
	answeruc "github.com/kailas-cloud/faqdex/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/faqdex/internal/usecase/batch"
	embeddinguc "github.com/kailas-cloud/faqdex/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/faqdex/internal/usecase/generation"
	matchuc "github.com/kailas-cloud/faqdex/internal/usecase/match"
)

// Internal interfaces for substitution in tests.
type answerUseCase interface {
	Answer(ctx context.Context, question string) (domanswer.Result, error)
	Encode(ctx context.Context, text string) ([]float32, error)
	Topics() []string
	RecordCount() int
}

type batchUseCase interface {
	AnswerMany(ctx context.Context, questions []string) ([]dombatch.Result, error)
	Release()
}

// Client is the faqdex SDK entry point. It is safe for concurrent use.
type Client struct {
	answers answerUseCase
	batch   batchUseCase
	obs     *observer
}

// New loads the corpus and wires the router.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("faqdex: embedder required (use WithEmbedder)")
	}
	if cfg.low < 0 || cfg.low >= cfg.high || cfg.high > 1 {
		return nil, fmt.Errorf("faqdex: thresholds must satisfy 0 <= low < high <= 1, got low=%v high=%v",
			cfg.low, cfg.high)
	}
	balancedFrom := (cfg.high + cfg.low) / 2
	if cfg.balancedFrom != nil {
		balancedFrom = *cfg.balancedFrom
	}
	if balancedFrom < cfg.low || balancedFrom > cfg.high {
		return nil, fmt.Errorf("faqdex: balanced_from must be within [low, high], got %v", balancedFrom)
	}
	cfg.balancedFrom = &balancedFrom

	c, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return wireClient(c, cfg, obs)
}

func loadCorpus(cfg *clientConfig) (*domcorpus.Corpus, error) {
	if cfg.corpusFile != "" {
		c, err := corpusrepo.Load(cfg.corpusFile)
		if err != nil {
			return nil, fmt.Errorf("faqdex: %w", err)
		}
		return c, nil
	}
	if cfg.records == nil {
		return nil, errors.New("faqdex: corpus required (use WithCorpusFile or WithRecords)")
	}
	records, err := recordsToDomain(cfg.records)
	if err != nil {
		return nil, fmt.Errorf("faqdex: %w", err)
	}
	c, err := domcorpus.New(records)
	if err != nil {
		return nil, fmt.Errorf("faqdex: %w", err)
	}
	return c, nil
}

func wireClient(c *domcorpus.Corpus, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal services log through the observer only.
	logger := zap.NewNop()

	var backend generationuc.Backend = noopBackend{}
	if cfg.generator != nil {
		backend = &generatorAdapter{inner: cfg.generator}
	}
	gen := generationuc.New(backend, generationuc.Config{
		Instructions: domgen.Instructions{Persona: cfg.persona, Domain: cfg.domain},
		Params: map[mode.Mode]domgen.Params{
			mode.Strict:   {Temperature: 0, MaxTokens: 200, MinTokens: 30},
			mode.Balanced: {Temperature: 0.5, MaxTokens: 300, MinTokens: 30},
		},
		Timeout: cfg.generationTimeout,
	}, logger)

	// Query vectors must match the corpus dimension before they reach the matcher.
	embed := embeddinguc.NewInstrumentedEmbedder(&embedderAdapter{inner: cfg.embedder}, "sdk", "", c.Dimension(), logger)

	answers := answeruc.New(embed, matchuc.New(c), gen, c, answeruc.Config{
		Thresholds: answeruc.Thresholds{
			High:         cfg.high,
			Low:          cfg.low,
			BalancedFrom: *cfg.balancedFrom,
		},
		ContextSnippets: cfg.contextSnippets,
	}, logger)

	batch, err := batchuc.New(answers, cfg.workers, logger)
	if err != nil {
		return nil, fmt.Errorf("faqdex: %w", err)
	}
	if cfg.maxBatchSize > 0 {
		batch = batch.WithMaxBatchSize(cfg.maxBatchSize)
	}

	return &Client{answers: answers, batch: batch, obs: obs}, nil
}

// Close releases the batch worker pool.
func (c *Client) Close() {
	if c.batch != nil {
		c.batch.Release()
	}
}

// Answer routes one question. Generation failures never surface as errors.
func (c *Client) Answer(ctx context.Context, question string) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("answer", start, err) }()

	res, err := c.answers.Answer(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("answer: %w", err)
	}
	ans = answerFromDomain(res)
	c.obs.answered(ans)
	return ans, nil
}

// AnswerMany answers each question independently. The result has the input's length and order;
// a failed item carries OutcomeError. Only an oversized batch returns an error.
func (c *Client) AnswerMany(ctx context.Context, questions []string) (out []Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("answer_many", start, err) }()

	results, err := c.batch.AnswerMany(ctx, questions)
	if err != nil {
		return nil, fmt.Errorf("answer many: %w", err)
	}
	out = make([]Answer, len(results))
	for i, r := range results {
		out[i] = answerFromDomain(r.Answer())
	}
	c.obs.answered(out...)
	return out, nil
}

// Encode returns the query embedding used for matching.
func (c *Client) Encode(ctx context.Context, text string) (vec []float32, err error) {
	start := time.Now()
	defer func() { c.obs.observe("encode", start, err) }()

	vec, err = c.answers.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return vec, nil
}

// Topics returns the distinct corpus topics in corpus order.
func (c *Client) Topics() []string {
	return c.answers.Topics()
}

// Len returns the number of corpus records.
func (c *Client) Len() int {
	return c.answers.RecordCount()
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps public Generator as a generation backend.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Name() string { return "sdk" }

func (a *generatorAdapter) Complete(ctx context.Context, p domgen.Prompt, params domgen.Params) (string, error) {
	out, err := a.inner.Generate(ctx, GenerationRequest{
		System:      p.System,
		User:        p.User,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		MinTokens:   params.MinTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	return out, nil
}

// noopBackend is used when no Generator is configured; every call falls back to the stored answer.
type noopBackend struct{}

func (noopBackend) Name() string { return "none" }

func (noopBackend) Complete(context.Context, domgen.Prompt, domgen.Params) (string, error) {
	return "", domain.ErrGenerationFailed
}
