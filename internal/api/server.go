package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/novacarriers/claimdesk/internal/engine"
	"github.com/novacarriers/claimdesk/internal/store"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// Server holds the HTTP handlers and dependencies.
type Server struct {
	store      store.ClaimRepository
	intake     *engine.Pipeline
	composer   engine.Composer
	mux        *http.ServeMux
	corsOrigin string
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigin sets the allowed CORS origin (default "*").
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithClock overrides the time source used for overdue checks.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new API server.
func New(s store.ClaimRepository, intake *engine.Pipeline, composer engine.Composer, opts ...Option) *Server {
	srv := &Server{
		store:      s,
		intake:     intake,
		composer:   composer,
		mux:        http.NewServeMux(),
		corsOrigin: "*",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return requestLogger(s.corsMiddleware(limitBody(jsonContent(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/extract-claim", s.handleExtractClaim)
	s.mux.HandleFunc("POST /api/claims", s.handleCreateClaim)
	s.mux.HandleFunc("GET /api/claims", s.handleListClaims)
	s.mux.HandleFunc("GET /api/claims/{id}", s.handleGetClaim)
	s.mux.HandleFunc("POST /api/claims/update", s.handleUpdateClaim)

	s.mux.HandleFunc("POST /api/tasks/set-status", s.handleSetTaskStatus)

	s.mux.HandleFunc("GET /api/reminders", s.handleListReminders)
	s.mux.HandleFunc("POST /api/reminders/add", s.handleAddReminder)
	s.mux.HandleFunc("POST /api/reminders/done", s.handleReminderDone)

	s.mux.HandleFunc("POST /api/drafts/create", s.handleCreateDraft)
	s.mux.HandleFunc("POST /api/drafts/sent", s.handleDraftSent)

	s.mux.HandleFunc("GET /api/finance/summary", s.handleFinanceSummary)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// corsMiddleware sets CORS headers for the configured origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs method, path, status and latency of every request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).String(),
		)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps a store or engine failure to a response: unknown ids
// are 404, rejected input 400, duplicate ids 409 and everything else a 500
// carrying the underlying message.
func writeStoreError(w http.ResponseWriter, err error, notFound, failure string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, engine.ErrEmptyIncident):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error(failure, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   failure,
			"details": err.Error(),
		})
	}
}

// decodeBody decodes the JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
