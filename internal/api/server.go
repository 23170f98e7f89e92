// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"insider-risk-index/internal/assessment"
	"insider-risk-index/internal/common/logger"
	"insider-risk-index/internal/scoring"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const defaultMaxBodyBytes = 1 << 20

// AssessmentComputer is the scoring entry point. *assessment.Service
// satisfies it.
type AssessmentComputer interface {
	ComputeAssessment(ctx context.Context, sub assessment.Submission) (*assessment.AssessmentResult, error)
}

// CatalogSource lists questionnaire versions. *scoring.Registry satisfies it.
type CatalogSource interface {
	Engine(version string) (*scoring.Engine, error)
	Versions() []string
	DefaultVersion() string
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	RateLimit    float64
	RateBurst    int
	MaxBodyBytes int64
	Readiness    map[string]ReadinessCheck
}

// Server is the JSON-over-HTTP adapter for web callers.
type Server struct {
	assessments AssessmentComputer
	catalogs    CatalogSource
	limiter     *rate.Limiter
	maxBody     int64
	readiness   map[string]ReadinessCheck
	logger      logger.Logger
}

func NewServer(assessments AssessmentComputer, catalogs CatalogSource, opts Options, log logger.Logger) *Server {
	s := &Server{
		assessments: assessments,
		catalogs:    catalogs,
		maxBody:     opts.MaxBodyBytes,
		readiness:   opts.Readiness,
		logger:      log.WithFields(map[string]interface{}{"component": "http"}),
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed handler including health and metrics
// endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /v1/assessments", s.rateLimited(http.HandlerFunc(s.handleComputeAssessment)))
	mux.HandleFunc("GET /v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			return
		}
		s.logger.Info("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.readiness))
	for name, check := range s.readiness {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []scoring.FieldError `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, fields []scoring.FieldError) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message, Fields: fields}})
}
