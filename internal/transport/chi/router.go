package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	ServiceName   string
	AllowedOrigin string
	APIKeys       []string
}

// NewRouter mounts the server routes behind the middleware chain.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(OTel(cfg.ServiceName))
	r.Use(WideEvent(logger))
	r.Use(CORS(cfg.AllowedOrigin))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/", s.Info)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/answer", s.Answer)
	r.Post("/batch-answer", s.BatchAnswer)
	r.Post("/encode", s.Encode)
	r.Get("/topics", s.Topics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
	return r
}
