package faqdex

import "context"

// Embedder converts text to a vector. It must use the model the corpus was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator produces a grounded answer from a prompt.
// Errors and blank output fall back to the stored answer and never reach the caller.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GenerationRequest is one generation call.
// System holds the instructions and context, User the literal question.
type GenerationRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	MinTokens   int
}
