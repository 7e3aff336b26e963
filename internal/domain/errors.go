package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady signals that the corpus, embedder or generation client is not initialized yet.
	ErrNotReady = errors.New("service not ready")
	// ErrInvalidQuestion signals an empty or otherwise unusable question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrBatchTooLarge signals a batch request above the configured limit.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrMalformedCorpus signals a corpus entry that failed load-time validation.
	ErrMalformedCorpus = errors.New("malformed corpus")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a generation backend failure. It never leaves the generation client.
	ErrGenerationFailed = errors.New("generation failed")
)

// CorpusEntryError describes the first invalid entry found while loading a corpus.
type CorpusEntryError struct {
	Index  int
	ID     int
	Field  string
	Reason string
}

func (e *CorpusEntryError) Error() string {
	return fmt.Sprintf("%s: entry #%d (id=%d) field %q: %s",
		ErrMalformedCorpus.Error(), e.Index, e.ID, e.Field, e.Reason)
}

func (e *CorpusEntryError) Unwrap() error { return ErrMalformedCorpus }
