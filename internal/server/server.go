package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/audit"
	"github.com/tributary-ai/llm-decision-engine/internal/engine"
	"github.com/tributary-ai/llm-decision-engine/internal/middleware"
	"github.com/tributary-ai/llm-decision-engine/internal/security"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

type requestIDKey struct{}

// Config holds server configuration.
type Config struct {
	Port           string                     `yaml:"port"`
	ReadTimeout    time.Duration              `yaml:"read_timeout"`
	WriteTimeout   time.Duration              `yaml:"write_timeout"`
	MaxHeaderBytes int                        `yaml:"max_header_bytes"`
	MaxPromptBytes int                        `yaml:"max_prompt_bytes"`
	Security       *middleware.SecurityConfig `yaml:"security"`
}

// Server exposes the decision engine over HTTP.
type Server struct {
	engine     *engine.Engine
	trail      *audit.Trail
	httpServer *http.Server
	logger     *logrus.Logger
	config     *Config
	security   *middleware.SecurityStack
}

// NewServer creates a server around an engine instance.
func NewServer(eng *engine.Engine, trail *audit.Trail, config *Config, logger *logrus.Logger) (*Server, error) {
	s := &Server{
		engine: eng,
		trail:  trail,
		logger: logger,
		config: config,
	}

	if config.Security != nil {
		stack, err := middleware.NewSecurityStack(config.Security, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize security middleware: %w", err)
		}
		s.security = stack
	}

	return s, nil
}

// Start begins serving. Blocks until the listener closes.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:           ":" + s.config.Port,
		Handler:        s.Routes(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	s.logger.WithField("port", s.config.Port).Info("Starting decision engine server")
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping decision engine server")
	if s.security != nil {
		s.security.Stop()
	}
	if s.trail != nil {
		s.trail.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Routes builds the full handler tree. Exported so tests can drive the
// server through httptest without binding a port.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	if s.security != nil {
		r.Use(s.security.Handler())
	}
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.contentTypeMiddleware)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/decide", s.handleDecide).Methods("POST")
	api.HandleFunc("/explain", s.handleExplain).Methods("POST")
	api.HandleFunc("/models", s.handleListModels).Methods("GET")

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.setupDocsRoutes(r)

	return r
}

// Middleware

// requestIDMiddleware assigns each request a unique identifier. Kept out
// of the engine so that Decide stays deterministic.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  requestID(r.Context()),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				s.writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handlers

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req types.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if s.config.MaxPromptBytes > 0 && len(req.Prompt) > s.config.MaxPromptBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "prompt exceeds maximum size")
		return
	}

	start := time.Now()
	decision, err := s.engine.Decide(r.Context(), req.Prompt, req.Attachments)
	if err != nil {
		s.logger.WithError(err).Error("Decision failed")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("decision failed: %v", err))
		return
	}
	decision.RequestID = requestID(r.Context())

	s.record(r.Context(), decision, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(decision)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req types.ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || req.Model == "" {
		s.writeError(w, http.StatusBadRequest, "prompt and model are required")
		return
	}

	result, err := s.engine.Explain(r.Context(), req.Prompt, req.Model)
	if err != nil {
		if strings.Contains(err.Error(), "unknown model") {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.WithError(err).Error("Explain failed")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("explain failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	profiles := s.engine.Models()
	models := make([]types.ModelSummary, 0, len(profiles))
	for _, p := range profiles {
		models = append(models, types.ModelSummary{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Provider:    p.Provider,
			Tier:        p.Tier,
			Vision:      p.Vision,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"models": models,
		"count":  len(models),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{
		Status:    "healthy",
		Models:    len(s.engine.Models()),
		Timestamp: time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Helpers

func (s *Server) record(ctx context.Context, decision *types.RoutingDecision, latency time.Duration) {
	if s.trail == nil {
		return
	}
	rec := &audit.Record{
		RequestID:  decision.RequestID,
		Category:   decision.Category,
		Model:      decision.ChosenModel,
		Confidence: decision.Confidence,
		Source:     decision.Source,
		LatencyMS:  latency.Milliseconds(),
	}
	if caller, ok := security.CallerFromContext(ctx); ok {
		rec.CallerID = caller.ID
	}
	s.trail.Record(rec)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(types.ErrorResponse{
		Error: types.ErrorDetail{
			Message: message,
			Type:    "api_error",
			Code:    statusCode,
		},
		Timestamp: time.Now().Unix(),
	})
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
