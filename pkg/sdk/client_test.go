package faqdex

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/faqdex/internal/domain/qa"
	corpusrepo "github.com/kailas-cloud/faqdex/internal/repository/corpus"
)

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// vectors embeds known questions to fixed vectors and anything else to an orthogonal one.
func vectors(m map[string][]float32) *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		if v, ok := m[text]; ok {
			return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
		}
		return EmbeddingResult{Embedding: []float32{0, 0, 1}}, nil
	}}
}

type mockGenerator struct {
	mu   sync.Mutex
	reqs []GenerationRequest
	out  string
	err  error
}

func (m *mockGenerator) Generate(_ context.Context, req GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return m.out, m.err
}

func testRecords() []Record {
	return []Record{
		{ID: 1, Topic: "billing", Question: "Do you store payment info?",
			Answer: "No, payments are processed via a secure partner.", Embedding: []float32{1, 0, 0}},
		{ID: 2, Topic: "billing", Question: "How do refunds work?",
			Answer: "Refunds take five days.", Embedding: []float32{0.8, 0.6, 0}},
		{ID: 3, Topic: "account", Question: "How do I reset my password?",
			Answer: "Use the reset link on the login page.", Embedding: []float32{0, 1, 0}},
	}
}

var testVectors = map[string][]float32{
	"Do you keep my card details?": {0.9, 0.43588989, 0},
	"Is my card data stored?":      {0.75, 0, 0.66143783},
}

func TestNew_Validation(t *testing.T) {
	emb := vectors(nil)
	tests := []struct {
		name string
		opts []Option
	}{
		{"no embedder", []Option{WithRecords(testRecords())}},
		{"no corpus", []Option{WithEmbedder(emb)}},
		{"bad thresholds", []Option{WithEmbedder(emb), WithRecords(testRecords()), WithThresholds(0.6, 0.8)}},
		{"balanced outside band", []Option{WithEmbedder(emb), WithRecords(testRecords()), WithBalancedFrom(0.95)}},
		{"missing file", []Option{WithEmbedder(emb), WithCorpusFile(filepath.Join(t.TempDir(), "nope.json"))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_MalformedRecords(t *testing.T) {
	records := testRecords()
	records[1].Answer = " "

	_, err := New(WithEmbedder(vectors(nil)), WithRecords(records))
	if !errors.Is(err, ErrMalformedCorpus) {
		t.Fatalf("expected ErrMalformedCorpus, got %v", err)
	}

	records = testRecords()
	records[2].Embedding = []float32{1, 0}
	_, err = New(WithEmbedder(vectors(nil)), WithRecords(records))
	if !errors.Is(err, ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestAnswer_Routes(t *testing.T) {
	gen := &mockGenerator{out: "  We never keep card data.  "}
	client, err := New(
		WithEmbedder(vectors(testVectors)),
		WithGenerator(gen),
		WithRecords(testRecords()),
		WithInstructions("Ava", "Acme Pay"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()

	direct, err := client.Answer(ctx, "Do you keep my card details?")
	if err != nil {
		t.Fatal(err)
	}
	if direct.Outcome != OutcomeDirect || direct.Text != "No, payments are processed via a secure partner." ||
		direct.Confidence != 0.9 || direct.Topic != "billing" || !direct.HasTopic {
		t.Errorf("unexpected direct answer: %+v", direct)
	}

	generated, err := client.Answer(ctx, "Is my card data stored?")
	if err != nil {
		t.Fatal(err)
	}
	if generated.Outcome != OutcomeGenerated || generated.Text != "We never keep card data." {
		t.Errorf("unexpected generated answer: %+v", generated)
	}
	if generated.MatchedQuestion != "Generated from: Do you store payment info?" {
		t.Errorf("MatchedQuestion = %q", generated.MatchedQuestion)
	}
	if len(gen.reqs) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(gen.reqs))
	}
	req := gen.reqs[0]
	if req.User != "Is my card data stored?" || !strings.Contains(req.System, "Acme Pay") {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.Temperature != 0 || req.MaxTokens != 200 {
		t.Errorf("score 0.75 must use strict params, got %+v", req)
	}

	fallback, err := client.Answer(ctx, "What's the weather?")
	if err != nil {
		t.Fatal(err)
	}
	if fallback.Outcome != OutcomeFallback || fallback.HasTopic || fallback.Confidence != 0 {
		t.Errorf("unexpected fallback answer: %+v", fallback)
	}
}

func TestAnswer_GeneratorFailureReturnsStoredAnswer(t *testing.T) {
	for _, gen := range []Generator{nil, &mockGenerator{err: errors.New("model offline")}, &mockGenerator{out: "   "}} {
		opts := []Option{WithEmbedder(vectors(testVectors)), WithRecords(testRecords())}
		if gen != nil {
			opts = append(opts, WithGenerator(gen))
		}
		client, err := New(opts...)
		if err != nil {
			t.Fatal(err)
		}

		ans, err := client.Answer(context.Background(), "Is my card data stored?")
		client.Close()
		if err != nil {
			t.Fatal(err)
		}
		if ans.Outcome != OutcomeDirect || ans.Text != "No, payments are processed via a secure partner." ||
			ans.MatchedQuestion != "Do you store payment info?" || ans.Confidence != 0.75 {
			t.Errorf("generator %T: unexpected answer %+v", gen, ans)
		}
	}
}

func TestAnswer_InvalidQuestion(t *testing.T) {
	client, err := New(WithEmbedder(vectors(nil)), WithRecords(testRecords()))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if _, err := client.Answer(context.Background(), "   "); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestAnswer_EmbedderError(t *testing.T) {
	emb := &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{}, errors.New("provider down")
	}}
	client, err := New(WithEmbedder(emb), WithRecords(testRecords()))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if _, err := client.Answer(context.Background(), "hello"); !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestAnswer_DimensionMismatch(t *testing.T) {
	emb := &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{Embedding: []float32{1}}, nil
	}}
	client, err := New(WithEmbedder(emb), WithRecords(testRecords()))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	ans, err := client.Answer(context.Background(), "Do you store payment info?")
	if !errors.Is(err, ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got answer=%+v err=%v", ans, err)
	}
	if _, err := client.Encode(context.Background(), "anything"); !errors.Is(err, ErrVectorDimMismatch) {
		t.Fatalf("Encode: expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestAnswerMany(t *testing.T) {
	emb := &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		if text == "boom" {
			return EmbeddingResult{}, errors.New("provider down")
		}
		if v, ok := testVectors[text]; ok {
			return EmbeddingResult{Embedding: v}, nil
		}
		return EmbeddingResult{Embedding: []float32{0, 0, 1}}, nil
	}}
	client, err := New(WithEmbedder(emb), WithRecords(testRecords()), WithWorkers(2), WithMaxBatchSize(3))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	out, err := client.AnswerMany(context.Background(), []string{"Do you keep my card details?", "boom", "weather"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Outcome{OutcomeDirect, OutcomeError, OutcomeFallback}
	for i, o := range want {
		if out[i].Outcome != o {
			t.Errorf("out[%d].Outcome = %q, want %q", i, out[i].Outcome, o)
		}
	}

	if _, err := client.AnswerMany(context.Background(), []string{"a", "b", "c", "d"}); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestCorpusFileAndTopics(t *testing.T) {
	var records []qa.Record
	for _, r := range testRecords() {
		rec, err := qa.New(r.ID, r.Topic, r.Question, r.Answer, nil, nil, r.Embedding)
		if err != nil {
			t.Fatal(err)
		}
		records = append(records, rec)
	}
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := corpusrepo.Save(path, records); err != nil {
		t.Fatal(err)
	}

	client, err := New(WithEmbedder(vectors(nil)), WithCorpusFile(path))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if client.Len() != 3 {
		t.Errorf("Len() = %d, want 3", client.Len())
	}
	topics := client.Topics()
	if len(topics) != 2 || topics[0] != "billing" || topics[1] != "account" {
		t.Errorf("Topics() = %v", topics)
	}

	vec, err := client.Encode(context.Background(), "anything")
	if err != nil || len(vec) != 3 {
		t.Errorf("Encode() = %v, %v", vec, err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := defaultConfig()

	WithThresholds(0.9, 0.6).apply(cfg)
	WithBalancedFrom(0.8).apply(cfg)
	WithContextSnippets(5).apply(cfg)
	WithGenerationTimeout(time.Second).apply(cfg)
	WithMaxBatchSize(10).apply(cfg)
	WithWorkers(4).apply(cfg)

	if cfg.high != 0.9 || cfg.low != 0.6 || cfg.balancedFrom == nil || *cfg.balancedFrom != 0.8 {
		t.Errorf("thresholds = (%v, %v, %v)", cfg.high, cfg.low, cfg.balancedFrom)
	}
	if cfg.contextSnippets != 5 || cfg.generationTimeout != time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.maxBatchSize != 10 || cfg.workers != 4 {
		t.Errorf("batch = (%d, %d)", cfg.maxBatchSize, cfg.workers)
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}
}

func TestObserverMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client, err := New(WithEmbedder(vectors(testVectors)), WithRecords(testRecords()), WithPrometheus(reg))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	_, _ = client.Answer(context.Background(), "Do you keep my card details?")
	_, _ = client.Answer(context.Background(), "")
	_, _ = client.AnswerMany(context.Background(), []string{"What's the weather?", "Do you keep my card details?"})

	if got := testutil.ToFloat64(client.obs.metrics.operations.WithLabelValues("answer", "ok")); got != 1 {
		t.Errorf("answer ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(client.obs.metrics.operations.WithLabelValues("answer", "error")); got != 1 {
		t.Errorf("answer error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(client.obs.metrics.answers.WithLabelValues(string(OutcomeDirect))); got != 2 {
		t.Errorf("answers{direct} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(client.obs.metrics.answers.WithLabelValues(string(OutcomeFallback))); got != 1 {
		t.Errorf("answers{fallback} = %v, want 1", got)
	}

	// A second client on the same registry reuses the collectors.
	other, err := New(WithEmbedder(vectors(nil)), WithRecords(testRecords()), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("second client: %v", err)
	}
	other.Close()
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("answer", time.Now(), nil)
	o.answered(Answer{Outcome: OutcomeDirect})
}
