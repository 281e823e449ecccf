// Package server exposes the ingestion and retrieval pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curator-ai/curator/pkg/content"
	"github.com/curator-ai/curator/pkg/ingest"
	"github.com/curator-ai/curator/pkg/processor"
	"github.com/curator-ai/curator/pkg/retrieval"
	"github.com/curator-ai/curator/pkg/store"
)

// Server wires the pipeline components behind a chi router.
type Server struct {
	ingestor  *ingest.Ingestor
	processor *processor.Processor
	engine    *retrieval.Engine
	http      *http.Server
}

// New creates the HTTP server on addr.
func New(addr string, in *ingest.Ingestor, proc *processor.Processor, eng *retrieval.Engine) *Server {
	s := &Server{
		ingestor:  in,
		processor: proc,
		engine:    eng,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ingest", s.handleIngest)
		r.Post("/documents/{id}/process", s.handleProcess)
		r.Post("/query", s.handleQuery)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving requests until Shutdown or failure.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

type ingestRequest struct {
	UserID       string         `json:"user_id"`
	SourceType   string         `json:"source_type"`
	SourceName   string         `json:"source_name"`
	SourceConfig map[string]any `json:"source_config,omitempty"`
	Title        string         `json:"title,omitempty"`
	Content      string         `json:"content"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type ingestResponse struct {
	DocumentID string `json:"document_id,omitempty"`
	Sections   int    `json:"sections"`
	Skipped    bool   `json:"skipped,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	st, err := content.ParseSourceType(req.SourceType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.ingestor.Ingest(r.Context(), ingest.Item{
		UserID:       req.UserID,
		SourceType:   st,
		SourceName:   req.SourceName,
		SourceConfig: req.SourceConfig,
		Title:        req.Title,
		Content:      req.Content,
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeError(w, ingestStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		DocumentID: res.DocumentID,
		Sections:   res.Sections,
		Skipped:    res.Skipped,
	})
}

type processResponse struct {
	DocumentID string `json:"document_id"`
	Sections   int    `json:"sections"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sections, err := s.processor.Process(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDocumentNotFound):
			writeError(w, http.StatusNotFound, "document not found")
		case errors.Is(err, store.ErrAlreadyProcessed):
			writeError(w, http.StatusConflict, "document already processed")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, processResponse{DocumentID: id, Sections: sections})
}

type queryRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

type querySection struct {
	SectionID   string         `json:"section_id"`
	DocumentID  string         `json:"document_id"`
	SectionType string         `json:"section_type"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Score       float32        `json:"score"`
}

type queryResponse struct {
	Sections     []querySection `json:"sections"`
	Widened      bool           `json:"widened,omitempty"`
	FallbackUser bool           `json:"fallback_user,omitempty"`
	Message      string         `json:"message,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.engine.Search(r.Context(), req.UserID, req.Query)
	if err != nil {
		var verr *retrieval.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := queryResponse{
		Sections:     make([]querySection, 0, len(res.Sections)),
		Widened:      res.Widened,
		FallbackUser: res.FallbackUser,
	}
	for _, sec := range res.Sections {
		resp.Sections = append(resp.Sections, querySection{
			SectionID:   sec.SectionID,
			DocumentID:  sec.DocumentID,
			SectionType: string(sec.SectionType),
			Content:     sec.Content,
			Metadata:    sec.Metadata,
			Score:       sec.Score,
		})
	}
	if res.Empty() {
		resp.Message = s.engine.InsufficientContext()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ingestStatus(err error) int {
	var perr *processor.ProcessingError
	if errors.As(err, &perr) {
		return http.StatusBadGateway
	}
	var serr *store.StoreError
	if errors.As(err, &serr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
