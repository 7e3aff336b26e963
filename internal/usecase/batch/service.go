// Package batch answers ordered lists of questions on a bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	"github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// MaxBatchSize is the default maximum number of questions per batch request.
const MaxBatchSize = 100

// Service answers batches with per-item failure isolation: a failed question becomes an
// error entry and never aborts the rest of the batch.
type Service struct {
	answerer     Answerer
	pool         *ants.Pool
	maxBatchSize int
	deadline     time.Duration
	logger       *zap.Logger
}

// New creates a batch service with a pool of workers shared by all batch requests.
// workers <= 0 uses the CPU count.
func New(answerer Answerer, workers int, logger *zap.Logger) (*Service, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	return &Service{
		answerer:     answerer,
		pool:         pool,
		maxBatchSize: MaxBatchSize,
		logger:       logger,
	}, nil
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// WithDeadline bounds the whole batch. Items still queued when it expires become error entries,
// and in-flight generation is cut short and falls back to the stored answer.
func (s *Service) WithDeadline(d time.Duration) *Service {
	if d > 0 {
		s.deadline = d
	}
	return s
}

// AnswerMany answers every question; results have the input's length and order.
// Only an oversized batch fails as a whole.
func (s *Service) AnswerMany(ctx context.Context, questions []string) ([]dombatch.Result, error) {
	if len(questions) > s.maxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds %d: %w", len(questions), s.maxBatchSize, domain.ErrBatchTooLarge)
	}
	if s.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}

	results := make([]dombatch.Result, len(questions))
	var wg sync.WaitGroup
	for i, q := range questions {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = s.answerOne(ctx, i, q)
		})
		if err != nil {
			wg.Done()
			results[i] = dombatch.NewError(i, fmt.Errorf("submit: %w", err))
		}
	}
	wg.Wait()

	log := logger.FromContextOr(ctx, s.logger)
	failed := 0
	for _, r := range results {
		if r.Status() == dombatch.StatusError {
			failed++
			metrics.AnswersTotal.WithLabelValues(string(r.Answer().Outcome())).Inc()
			log.Warn("Batch item failed", zap.Int("index", r.Index()), zap.Error(r.Err()))
		}
	}
	log.Info("Batch answered", zap.Int("size", len(questions)), zap.Int("failed", failed))

	return results, nil
}

func (s *Service) answerOne(ctx context.Context, i int, q string) (res dombatch.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = dombatch.NewError(i, fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := ctx.Err(); err != nil {
		return dombatch.NewError(i, fmt.Errorf("batch deadline: %w", err))
	}
	a, err := s.answerer.Answer(ctx, q)
	if err != nil {
		return dombatch.NewError(i, err)
	}
	return dombatch.NewOK(i, a)
}

// Release stops the worker pool. The service must not be used afterwards.
func (s *Service) Release() {
	s.pool.Release()
}
