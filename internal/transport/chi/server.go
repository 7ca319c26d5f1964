// Package chi is the HTTP surface: video processing, question
// answering, and session control over the single active video.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
	logpkg "github.com/vidqa-cloud/vidqa/internal/logger"
	sessionuc "github.com/vidqa-cloud/vidqa/internal/usecase/session"
)

const maxBatchQuestions = 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger checks a backing store's liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the session service over HTTP.
type Server struct {
	session       *sessionuc.Service
	cachePinger   Pinger // nil when the embedding cache is disabled
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(session *sessionuc.Service, cachePinger Pinger, logger *zap.Logger) *Server {
	s := &Server{
		session:     session,
		cachePinger: cachePinger,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidVideoURL, http.StatusBadRequest, "invalid_video_url"),
		sentinelHandler(domain.ErrTranscriptsDisabled, http.StatusUnprocessableEntity, "transcripts_disabled"),
		sentinelHandler(domain.ErrNoTranscript, http.StatusNotFound, "no_transcript"),
		sentinelHandler(domain.ErrInvalidK, http.StatusBadRequest, "invalid_k"),
		sentinelHandler(domain.ErrNoActiveVideo, http.StatusConflict, "no_active_video"),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, "provider_error"),
		sentinelHandler(domain.ErrIndexBuild, http.StatusBadGateway, "index_build_failed"),
	}
	return s
}

// Routes registers all endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/video", s.ProcessVideo)
		r.Get("/video", s.GetVideo)
		r.Post("/query", s.Query)
		r.Post("/query/batch", s.BatchQuery)
		r.Put("/session/k", s.UpdateK)
		r.Delete("/session", s.ResetSession)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type processVideoRequest struct {
	URL string `json:"url"`
}

type videoResponse struct {
	VideoID         string `json:"video_id"`
	Language        string `json:"language"`
	IsGenerated     bool   `json:"is_generated"`
	Translated      bool   `json:"translated"`
	NumChunks       int    `json:"num_chunks"`
	TranscriptChars int    `json:"transcript_chars"`
	K               int    `json:"k,omitempty"`
}

// ProcessVideo handles POST /api/v1/video.
func (s *Server) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	var req processVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "url is required")
		return
	}

	meta, err := s.session.Process(r.Context(), req.URL)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, s.videoToResponse(meta))
}

// GetVideo handles GET /api/v1/video. No active video is a missing
// resource here, not a conflict.
func (s *Server) GetVideo(w http.ResponseWriter, r *http.Request) {
	meta, err := s.session.Current()
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveVideo) {
			writeError(w, http.StatusNotFound, "no_active_video", err.Error())
			return
		}
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.videoToResponse(meta))
}

type queryRequest struct {
	Question string `json:"question"`
}

// Query handles POST /api/v1/query. Pipeline failures for a valid
// session come back result-shaped with success=false, not as an HTTP
// error.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	result, err := s.session.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type batchQueryRequest struct {
	Questions []string `json:"questions"`
}

type batchQueryResponse struct {
	Results []domain.QueryResult `json:"results"`
	Count   int                  `json:"count"`
}

// BatchQuery handles POST /api/v1/query/batch.
func (s *Server) BatchQuery(w http.ResponseWriter, r *http.Request) {
	var req batchQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Questions) == 0 || len(req.Questions) > maxBatchQuestions {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"questions count must be between 1 and 20")
		return
	}

	results, err := s.session.Batch(r.Context(), req.Questions)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, batchQueryResponse{Results: results, Count: len(results)})
}

type updateKRequest struct {
	K int `json:"k"`
}

// UpdateK handles PUT /api/v1/session/k.
func (s *Server) UpdateK(w http.ResponseWriter, r *http.Request) {
	var req updateKRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if err := s.session.SetK(req.K); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"k": req.K})
}

// ResetSession handles DELETE /api/v1/session.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := "healthy"

	if s.cachePinger != nil {
		if err := s.cachePinger.Ping(r.Context()); err != nil {
			// A dead cache degrades cost, not correctness.
			checks["cache"] = "unhealthy"
			status = "degraded"
		} else {
			checks["cache"] = "healthy"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) videoToResponse(meta domain.VideoMetadata) videoResponse {
	resp := videoResponse{
		VideoID:         meta.VideoID.String(),
		Language:        meta.Language,
		IsGenerated:     meta.IsGenerated,
		Translated:      meta.Translated,
		NumChunks:       meta.NumChunks,
		TranscriptChars: meta.TranscriptChars,
	}
	if k, err := s.session.K(); err == nil {
		resp.K = k
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidVideoURL,
		domain.ErrTranscriptsDisabled,
		domain.ErrNoTranscript,
		domain.ErrInvalidK,
		domain.ErrNoActiveVideo,
		domain.ErrProviderError,
		domain.ErrIndexBuild,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Request-scoped logger carries request_id when the logging
	// middleware is installed.
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
