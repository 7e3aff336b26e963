package build

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

type mapSource map[string][]qa.Draft

func (m mapSource) ReadFile(path string) ([]qa.Draft, error) {
	d, ok := m[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return d, nil
}

type lenEmbedder struct {
	dims  map[string]int
	err   error
	calls []string
}

func (e *lenEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls = append(e.calls, text)
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	n := 3
	if d, ok := e.dims[text]; ok {
		n = d
	}
	return domain.EmbeddingResult{Embedding: make([]float32, n), TotalTokens: 2}, nil
}

func testSource() mapSource {
	return mapSource{
		"a_billing.yaml": {
			{Topic: "billing", Question: "Do you store payment info?", Answer: "No."},
			{Topic: "billing", Question: "  ", Answer: "orphan answer"},
			{Topic: "billing", Question: "Can I get a refund?", Answer: ""},
		},
		"b_misc.yaml": {
			{Question: "Who are you?", Answer: "A support assistant.", Keywords: []string{"about"}},
		},
	}
}

func TestCollect(t *testing.T) {
	svc := New(testSource(), &lenEmbedder{}, zap.NewNop())

	drafts, stats, err := svc.Collect([]string{"a_billing.yaml", "b_misc.yaml"})
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "Do you store payment info?", drafts[0].Question)
	assert.Equal(t, qa.DefaultTopic, drafts[1].Topic)
	assert.Equal(t, Stats{Files: 2, Entries: 4, Kept: 2, SkippedQuestion: 1, SkippedAnswer: 1}, stats)
}

func TestCollect_ReadError(t *testing.T) {
	svc := New(testSource(), &lenEmbedder{}, zap.NewNop())
	_, _, err := svc.Collect([]string{"missing.yaml"})
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	emb := &lenEmbedder{}
	svc := New(testSource(), emb, zap.NewNop())

	ticks := 0
	records, stats, err := svc.Build(context.Background(), []string{"a_billing.yaml", "b_misc.yaml"}, func() { ticks++ })
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].ID())
	assert.Equal(t, 2, records[1].ID())
	assert.Equal(t, "billing", records[0].Topic())
	assert.Equal(t, []string{"about"}, records[1].Keywords())
	assert.Equal(t, 3, records[1].Dimension())
	assert.Equal(t, 2, ticks)
	assert.Equal(t, 4, stats.Tokens)
	assert.Equal(t, []string{"Do you store payment info?", "Who are you?"}, emb.calls)
}

func TestBuild_EmbedError(t *testing.T) {
	emb := &lenEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := New(testSource(), emb, zap.NewNop())

	_, _, err := svc.Build(context.Background(), []string{"b_misc.yaml"}, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	emb := &lenEmbedder{dims: map[string]int{"Who are you?": 5}}
	svc := New(testSource(), emb, zap.NewNop())

	_, _, err := svc.Build(context.Background(), []string{"a_billing.yaml", "b_misc.yaml"}, nil)
	assert.ErrorIs(t, err, domain.ErrVectorDimMismatch)
	assert.ErrorIs(t, err, domain.ErrMalformedCorpus)
}

func TestBuild_LimiterRejects(t *testing.T) {
	emb := &lenEmbedder{}
	svc := New(testSource(), emb, zap.NewNop()).WithLimiter(rate.NewLimiter(rate.Limit(1), 0))

	_, _, err := svc.Build(context.Background(), []string{"a_billing.yaml"}, nil)
	require.Error(t, err)
	assert.Empty(t, emb.calls)
}

func TestBuild_LimiterAllows(t *testing.T) {
	emb := &lenEmbedder{}
	svc := New(testSource(), emb, zap.NewNop()).WithLimiter(rate.NewLimiter(rate.Inf, 1))

	records, _, err := svc.Build(context.Background(), []string{"a_billing.yaml", "b_misc.yaml"}, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
