package build

import (
	"context"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// SourceReader parses one topic file into drafts.
type SourceReader interface {
	ReadFile(path string) ([]qa.Draft, error)
}

// Embedder vectorizes questions.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
