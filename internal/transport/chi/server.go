// Package chi is the HTTP transport of the FAQ service.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
)

const maxBodyBytes = 1 << 20

// Answerer answers single questions and exposes corpus metadata.
type Answerer interface {
	Answer(ctx context.Context, question string) (domanswer.Result, error)
	Encode(ctx context.Context, text string) ([]float32, error)
	Topics() []string
}

// BatchAnswerer answers a list of questions.
type BatchAnswerer interface {
	AnswerMany(ctx context.Context, questions []string) ([]dombatch.Result, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Backend is the initialized service set. It is installed once startup completes.
type Backend struct {
	Answers Answerer
	Batch   BatchAnswerer
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the HTTP API. Until Attach is called every answer route returns 503.
type Server struct {
	backend       atomic.Pointer[Backend]
	health        HealthChecker
	name          string
	version       string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server in the not-ready state.
func NewServer(health HealthChecker, name, version string, logger *zap.Logger) *Server {
	s := &Server{
		health:  health,
		name:    name,
		version: version,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, ErrorCodeNotReady),
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
	}
	return s
}

// Attach installs the initialized backend. The server is ready afterwards.
func (s *Server) Attach(b Backend) {
	s.backend.Store(&b)
}

func (s *Server) ready() (*Backend, error) {
	b := s.backend.Load()
	if b == nil {
		return nil, domain.ErrNotReady
	}
	return b, nil
}

// Info handles GET /.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message:   s.name,
		Version:   s.version,
		Endpoints: endpoints(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())
	status := http.StatusOK
	if !rep.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToResponse(rep))
}

// Answer handles POST /answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	b, err := s.ready()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req QuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := b.Answers.Answer(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerToResponse(res))
}

// BatchAnswer handles POST /batch-answer.
func (s *Server) BatchAnswer(w http.ResponseWriter, r *http.Request) {
	b, err := s.ready()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var questions []string
	if !decodeBody(w, r, &questions) {
		return
	}

	results, err := b.Batch.AnswerMany(r.Context(), questions)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]AnswerResponse, len(results))
	for i, res := range results {
		items[i] = answerToResponse(res.Answer())
	}
	writeJSON(w, http.StatusOK, items)
}

// Encode handles POST /encode.
func (s *Server) Encode(w http.ResponseWriter, r *http.Request) {
	b, err := s.ready()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req QuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	vec, err := b.Answers.Encode(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, EncodeResponse{
		Question:  req.Question,
		Embedding: vec,
		Dimension: len(vec),
	})
}

// Topics handles GET /topics.
func (s *Server) Topics(w http.ResponseWriter, r *http.Request) {
	b, err := s.ready()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	topics := b.Answers.Topics()
	writeJSON(w, http.StatusOK, TopicsResponse{Topics: topics, Count: len(topics)})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns the client-facing message for a known domain error.
// Wrapped upstream detail (provider bodies, addresses) is never exposed.
func safeDomainMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotReady):
		return "service is starting, try again shortly"
	case errors.Is(err, domain.ErrInvalidQuestion):
		return "question must not be empty"
	case errors.Is(err, domain.ErrBatchTooLarge):
		return err.Error()
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return "embedding provider returned an unexpected vector dimension"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "embedding provider is unavailable"
	default:
		return "internal error"
	}
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
