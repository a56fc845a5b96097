package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/analytics"
	"github.com/ajitpratap0/conceptgraph/internal/curation"
	"github.com/ajitpratap0/conceptgraph/internal/ingest"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
)

const maxBodyBytes = 4 << 20 // 4 MB

// Services are the components the API exposes.
type Services struct {
	Store     store.Store
	Ingest    *ingest.Service
	Analytics *analytics.Service
	Curation  *curation.Service
}

// Server is an HTTP API server that exposes the concept graph.
type Server struct {
	store     store.Store
	ingest    *ingest.Service
	analytics *analytics.Service
	curation  *curation.Service
	logger    *zap.Logger
	authToken string // empty = no auth required
}

// NewServer creates a new Server with the given dependencies.
func NewServer(svc Services, logger *zap.Logger, authToken string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     svc.Store,
		ingest:    svc.Ingest,
		analytics: svc.Analytics,
		curation:  svc.Curation,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check, no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /debug/vars", s.auth(expvar.Handler().ServeHTTP))

	mux.HandleFunc("POST /v1/documents", s.auth(s.handleIngest))
	mux.HandleFunc("GET /v1/documents", s.auth(s.handleListDocuments))
	mux.HandleFunc("GET /v1/documents/{id}", s.auth(s.handleGetDocument))
	mux.HandleFunc("PATCH /v1/documents/{id}/status", s.auth(s.handleSetStatus))
	mux.HandleFunc("GET /v1/sentences/{id}", s.auth(s.handleGetSentence))
	mux.HandleFunc("GET /v1/tokens/{id}", s.auth(s.handleGetToken))

	mux.HandleFunc("POST /v1/entities", s.auth(s.handleCreateEntity))
	mux.HandleFunc("POST /v1/entities/recommend", s.auth(s.handleRecommend))
	mux.HandleFunc("GET /v1/entities/{id}", s.auth(s.handleGetEntity))
	mux.HandleFunc("POST /v1/entities/{id}/links", s.auth(s.handleLinkEntity))
	mux.HandleFunc("POST /v1/relationships", s.auth(s.handleCreateRelationship))
	mux.HandleFunc("GET /v1/relationship-types", s.auth(s.handleRelationshipTypes))

	mux.HandleFunc("GET /v1/analytics/important-tokens", s.auth(s.handleImportantTokens))
	mux.HandleFunc("GET /v1/analytics/ngrams", s.auth(s.handleNGrams))
	mux.HandleFunc("GET /v1/analytics/overlap", s.auth(s.handleOverlap))

	mux.HandleFunc("GET /v1/search", s.auth(s.handleSearch))
	mux.HandleFunc("GET /v1/recent", s.auth(s.handleRecent))
	mux.HandleFunc("GET /v1/stats", s.auth(s.handleStats))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.fail(w, "get stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// --- helpers ---

// decode reads a JSON body of at most maxBodyBytes into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// intParam parses an optional non-negative integer query parameter.
func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		s.writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// partialResponse is returned when an ingestion stopped after committing
// some steps.
type partialResponse struct {
	Error         string `json:"error"`
	DocumentID    string `json:"document_id"`
	Step          int    `json:"step"`
	StepName      string `json:"step_name"`
	LastCompleted int    `json:"last_completed_step"`
	Sentence      int    `json:"sentence"`
	FailedBatch   string `json:"failed_batch,omitempty"`
}

// isClientError reports errors caused by the request rather than the server.
func isClientError(err error) bool {
	return errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrConflict)
}

// fail maps err to a status code and writes it. Validation, not-found and
// conflict errors are checked before partial ingestion so a permanent cause
// keeps its own status.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	var perr *ingest.PartialIngestionError
	switch {
	case errors.Is(err, models.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &perr):
		s.writePartial(w, perr, "")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusServiceUnavailable, op+": "+err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func (s *Server) writePartial(w http.ResponseWriter, perr *ingest.PartialIngestionError, failedBatch string) {
	s.logger.Error("partial ingestion",
		zap.String("document_id", perr.DocumentID),
		zap.Stringer("step", perr.Step),
		zap.Error(perr.Err))
	s.writeJSON(w, http.StatusBadGateway, partialResponse{
		Error:         perr.Error(),
		DocumentID:    perr.DocumentID,
		Step:          int(perr.Step),
		StepName:      perr.Step.String(),
		LastCompleted: int(perr.LastCompleted),
		Sentence:      perr.Sentence,
		FailedBatch:   failedBatch,
	})
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", zap.Error(encErr))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
