package generation

import (
	"context"

	domgen "github.com/kailas-cloud/faqdex/internal/domain/generation"
)

// Backend is a text-generation capability (remote chat API or local model server).
type Backend interface {
	Name() string
	Complete(ctx context.Context, p domgen.Prompt, params domgen.Params) (string, error)
}
