package chi

import (
	domanswer "github.com/kailas-cloud/faqdex/internal/domain/answer"
	healthuc "github.com/kailas-cloud/faqdex/internal/usecase/health"
)

// ErrorCode is the machine-readable error kind returned to clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeNotReady               ErrorCode = "not_ready"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QuestionRequest is the body of POST /answer and POST /encode.
type QuestionRequest struct {
	Question string `json:"question"`
}

// AnswerResponse is the wire form of an answer. Topic is null when no record matched.
type AnswerResponse struct {
	Answer          string  `json:"answer"`
	Confidence      float64 `json:"confidence"`
	MatchedQuestion string  `json:"matched_question"`
	Topic           *string `json:"topic"`
}

// EncodeResponse is the body of POST /encode.
type EncodeResponse struct {
	Question  string    `json:"question"`
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string            `json:"status"`
	ModelLoaded    bool              `json:"model_loaded"`
	TotalQuestions int               `json:"total_questions"`
	Checks         map[string]string `json:"checks,omitempty"`
}

// TopicsResponse is the body of GET /topics.
type TopicsResponse struct {
	Topics []string `json:"topics"`
	Count  int      `json:"count"`
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func answerToResponse(r domanswer.Result) AnswerResponse {
	resp := AnswerResponse{
		Answer:          r.Text(),
		Confidence:      r.Confidence(),
		MatchedQuestion: r.MatchedQuestion(),
	}
	if topic, ok := r.Topic(); ok {
		resp.Topic = &topic
	}
	return resp
}

func healthToResponse(rep healthuc.Report) HealthResponse {
	resp := HealthResponse{
		Status:         string(rep.Status),
		ModelLoaded:    rep.Ready,
		TotalQuestions: rep.TotalRecords,
	}
	if len(rep.Checks) > 0 {
		resp.Checks = make(map[string]string, len(rep.Checks))
		for k, v := range rep.Checks {
			resp.Checks[k] = string(v)
		}
	}
	return resp
}

func endpoints() map[string]string {
	return map[string]string{
		"/health":       "Health check",
		"/answer":       "Get answer for a question (POST)",
		"/batch-answer": "Get answers for a list of questions (POST)",
		"/encode":       "Encode a question to embedding (POST)",
		"/topics":       "List corpus topics",
		"/metrics":      "Prometheus metrics",
	}
}
