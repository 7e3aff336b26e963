package faqdex

import "github.com/kailas-cloud/faqdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuestion        = domain.ErrInvalidQuestion
	ErrBatchTooLarge          = domain.ErrBatchTooLarge
	ErrMalformedCorpus        = domain.ErrMalformedCorpus
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
