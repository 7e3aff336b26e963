package batch

import (
	"context"

	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
)

// Answerer runs the single-question pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (domanswer.Result, error)
}
