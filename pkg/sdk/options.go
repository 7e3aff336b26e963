package faqdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	corpusFile string
	records    []Record

	embedder  Embedder
	generator Generator

	high, low       float64
	balancedFrom    *float64
	contextSnippets int

	persona, domain   string
	generationTimeout time.Duration

	maxBatchSize int
	workers      int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		high:              0.85,
		low:               0.70,
		contextSnippets:   3,
		persona:           "a friendly support assistant",
		domain:            "this service",
		generationTimeout: 15 * time.Second,
	}
}

// WithCorpusFile loads the corpus from a JSON file written by faqctl build.
func WithCorpusFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusFile = path
	})
}

// WithRecords uses an in-memory corpus. Ignored when WithCorpusFile is set.
func WithRecords(records []Record) Option {
	return optionFunc(func(c *clientConfig) {
		c.records = records
	})
}

// WithEmbedder sets the query embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the text generation provider.
// Without it, scores between the thresholds return the stored answer.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithThresholds sets the routing thresholds. Defaults: high=0.85, low=0.70.
func WithThresholds(high, low float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.high = high
		c.low = low
	})
}

// WithBalancedFrom sets the score from which generation uses the balanced mode.
// Defaults to the midpoint of the thresholds.
func WithBalancedFrom(score float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.balancedFrom = &score
	})
}

// WithContextSnippets sets how many records are passed to the generator. Default: 3.
func WithContextSnippets(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.contextSnippets = n
	})
}

// WithInstructions sets the assistant persona and the domain it answers for.
func WithInstructions(persona, domain string) Option {
	return optionFunc(func(c *clientConfig) {
		c.persona = persona
		c.domain = domain
	})
}

// WithGenerationTimeout bounds one generation call. Default: 15s.
func WithGenerationTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.generationTimeout = d
	})
}

// WithMaxBatchSize sets the maximum number of questions per AnswerMany call.
// Default: 100.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithWorkers sets the batch worker pool size. Default: CPU count.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
