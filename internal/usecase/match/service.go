// Package match finds the corpus record closest to a query embedding.
package match

import (
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
	"github.com/kailas-cloud/faqdex/internal/domain/similarity"
)

// Result is the best match for a query. Found is false only for an empty corpus.
type Result struct {
	Record qa.Record
	Score  float64
	Found  bool
}

// Service is an exact linear-scan matcher. It never decides "no match";
// thresholds belong to the caller.
type Service struct {
	corpus Corpus
}

// New creates a matcher over c.
func New(c Corpus) *Service {
	return &Service{corpus: c}
}

// FindBestMatch scans every record in corpus order and keeps a running maximum.
// Only a strictly greater score replaces the current best, so the earliest record wins ties.
func (s *Service) FindBestMatch(query []float32) Result {
	n := s.corpus.Len()
	if n == 0 {
		return Result{}
	}

	best := Result{Record: s.corpus.At(0), Score: similarity.Cosine(query, s.corpus.At(0).Embedding()), Found: true}
	for i := 1; i < n; i++ {
		rec := s.corpus.At(i)
		if score := similarity.Cosine(query, rec.Embedding()); score > best.Score {
			best.Record = rec
			best.Score = score
		}
	}
	return best
}
