// Package build turns topic source files into corpus records with precomputed embeddings.
package build

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/faqdex/internal/domain/corpus"
	"github.com/kailas-cloud/faqdex/internal/domain/qa"
)

// Stats summarizes one build.
type Stats struct {
	Files           int
	Entries         int
	Kept            int
	SkippedQuestion int
	SkippedAnswer   int
	Tokens          int
}

// Service builds corpora.
type Service struct {
	source  SourceReader
	embed   Embedder
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a build service.
func New(source SourceReader, embed Embedder, logger *zap.Logger) *Service {
	return &Service{source: source, embed: embed, logger: logger}
}

// WithLimiter throttles embedding requests. nil disables throttling.
func (s *Service) WithLimiter(l *rate.Limiter) *Service {
	s.limiter = l
	return s
}

// Collect reads files in the given order and returns the drafts that will become records.
// Entries with a blank question or answer are skipped; a blank topic becomes qa.DefaultTopic.
func (s *Service) Collect(files []string) ([]qa.Draft, Stats, error) {
	var (
		drafts []qa.Draft
		stats  Stats
	)
	for _, f := range files {
		entries, err := s.source.ReadFile(f)
		if err != nil {
			return nil, stats, fmt.Errorf("read source: %w", err)
		}
		stats.Files++
		stats.Entries += len(entries)

		for _, e := range entries {
			d := e.Normalize()
			switch {
			case d.Question == "":
				stats.SkippedQuestion++
				continue
			case d.Answer == "":
				stats.SkippedAnswer++
				s.logger.Warn("Skipping entry without answer",
					zap.String("file", f), zap.String("question", d.Question))
				continue
			}
			drafts = append(drafts, d)
		}
		s.logger.Debug("Source file read", zap.String("file", f), zap.Int("entries", len(entries)))
	}
	stats.Kept = len(drafts)
	return drafts, stats, nil
}

// Embed numbers drafts from 1 in order, embeds each question, and validates the result
// as a corpus. progress, when non-nil, is called after each embedded question.
func (s *Service) Embed(ctx context.Context, drafts []qa.Draft, progress func()) ([]qa.Record, int, error) {
	records := make([]qa.Record, 0, len(drafts))
	tokens := 0
	for i, d := range drafts {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, tokens, fmt.Errorf("wait for rate limiter: %w", err)
			}
		}
		res, err := s.embed.Embed(ctx, d.Question)
		if err != nil {
			return nil, tokens, fmt.Errorf("embed question %q: %w", d.Question, err)
		}
		tokens += res.TotalTokens

		rec, err := d.Build(i+1, res.Embedding)
		if err != nil {
			return nil, tokens, fmt.Errorf("build record %d: %w", i+1, err)
		}
		records = append(records, rec)
		if progress != nil {
			progress()
		}
	}

	if _, err := corpus.New(records); err != nil {
		return nil, tokens, fmt.Errorf("validate corpus: %w", err)
	}
	return records, tokens, nil
}

// Build runs Collect and Embed.
func (s *Service) Build(ctx context.Context, files []string, progress func()) ([]qa.Record, Stats, error) {
	drafts, stats, err := s.Collect(files)
	if err != nil {
		return nil, stats, err
	}
	records, tokens, err := s.Embed(ctx, drafts, progress)
	stats.Tokens = tokens
	if err != nil {
		return nil, stats, err
	}
	return records, stats, nil
}
