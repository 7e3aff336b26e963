package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/answer", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("POST", "/answer", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/answer", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/notfound", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		path           string
		expectedStatus string
	}{
		{"/ok", "200"},
		{"/notfound", "404"},
		{"/error", "500"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestMetricsMiddleware_DifferentMethods(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Get("/resource", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("get"))
	})
	r.Post("/resource", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("post"))
	})
	r.Delete("/resource", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("delete"))
	})

	methods := []string{"GET", "POST", "DELETE"}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/resource", http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(method, "/resource", "200"))
			if val < 1 {
				t.Errorf("expected requests_total for %s >= 1, got %f", method, val)
			}
		})
	}
}

func TestRouteLabel_WithoutRouter(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", http.NoBody)
	if got := routeLabel(req); got != unmatchedRoute {
		t.Errorf("routeLabel() = %q, want %q", got, unmatchedRoute)
	}
}

func TestMetricsMiddleware_InFlight(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	var during float64
	r.Post("/batch-answer", func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(httpInFlight)
		_, _ = w.Write([]byte("[]"))
	})

	before := testutil.ToFloat64(httpInFlight)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/batch-answer", http.NoBody))

	if during != before+1 {
		t.Errorf("expected in-flight %v while serving, got %v", before+1, during)
	}
	if after := testutil.ToFloat64(httpInFlight); after != before {
		t.Errorf("expected in-flight back to %v, got %v", before, after)
	}
}

func TestMetricsMiddleware_RouteTemplate(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/topics/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/topics/billing", http.NoBody))

	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/topics/{name}", "200")); val < 1 {
		t.Errorf("expected the route pattern as label, got %f", val)
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/topics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	req := httptest.NewRequest("GET", "/does-not-exist", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	if val < 1 {
		t.Errorf("expected unmatched route to be recorded as %q, got %f", unmatchedRoute, val)
	}
}

func TestRegisterAnswerMetrics_Idempotent(t *testing.T) {
	RegisterAnswerMetrics()
	RegisterAnswerMetrics()

	AnswersTotal.WithLabelValues("direct").Inc()
	if got := testutil.ToFloat64(AnswersTotal.WithLabelValues("direct")); got < 1 {
		t.Errorf("expected answers_total{outcome=direct} >= 1, got %f", got)
	}

	MatchScore.Observe(0.9)
	if n := testutil.CollectAndCount(MatchScore); n != 1 {
		t.Errorf("expected one match_score series, got %d", n)
	}
}
