package answer

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/generation/mode"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
	"github.com/kailas-cloud/faqdex/internal/usecase/match"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Matcher finds the closest corpus record.
type Matcher interface {
	FindBestMatch(query []float32) match.Result
}

// Generator produces a grounded answer; ok is false whenever it has nothing usable.
type Generator interface {
	Generate(ctx context.Context, question, contextText, topic string, m mode.Mode) (text string, ok bool)
}

// Corpus provides related records and corpus facts.
type Corpus interface {
	Len() int
	Topics() []string
	Related(seed qa.Record, limit int) []qa.Record
}
