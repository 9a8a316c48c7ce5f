// Package server exposes the Telegram webhook and the operational endpoints over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deal-intake/internal/common/config"
	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/metrics"
	"deal-intake/internal/common/validation"
	"deal-intake/internal/models"
)

// SecretHeader carries the webhook secret Telegram echoes back on every delivery.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const (
	defaultWebhookPath = "/api/telegram"
	defaultBodyKiB     = 1024
)

// Dispatcher processes one decoded update.
type Dispatcher interface {
	Handle(ctx context.Context, u *models.Update) error
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Dispatcher Dispatcher
	// Checks are named readiness probes, e.g. "session" and "store".
	Checks map[string]Pinger
	Logger logger.Logger
}

type Server struct {
	config  config.ServerConfig
	app     config.AppConfig
	secret  string
	deps    Deps
	logger  logger.Logger
	router  *chi.Mux
	http    *http.Server
	started time.Time
}

func New(cfg *config.Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Server{
		config:  cfg.Server,
		app:     cfg.App,
		secret:  cfg.Telegram.WebhookSecret,
		deps:    deps,
		logger:  log.WithFields(map[string]interface{}{"component": "server"}),
		router:  chi.NewRouter(),
		started: time.Now(),
	}
	if s.config.WebhookPath == "" {
		s.config.WebhookPath = defaultWebhookPath
	}
	if s.config.MaxRequestBodyKiB <= 0 {
		s.config.MaxRequestBodyKiB = defaultBodyKiB
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.http = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  config.GetDuration(s.config.ReadTimeout),
		WriteTimeout: config.GetDuration(s.config.WriteTimeout),
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	if timeout := config.GetDuration(s.config.RequestTimeout); timeout > 0 {
		s.router.Use(middleware.Timeout(timeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.With(s.requireSecret).Post(s.config.WebhookPath, s.handleWebhook)
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until the server stops.
// It returns nil after a clean Shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{
		"address":     s.config.Address,
		"webhookPath": s.config.WebhookPath,
	})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret != "" {
			got := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
				metrics.UpdatesDropped.WithLabelValues("unauthorized").Inc()
				s.logger.Warn("Webhook secret mismatch", map[string]interface{}{
					"remoteAddr": r.RemoteAddr,
					"requestId":  middleware.GetReqID(r.Context()),
				})
				writeError(w, http.StatusForbidden, apperrors.NewWebhookUnauthorizedError())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.config.MaxRequestBodyKiB) * 1024
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidUpdateError(err.Error()))
		return
	}
	if int64(len(body)) > limit {
		metrics.UpdatesDropped.WithLabelValues("too_large").Inc()
		writeError(w, http.StatusRequestEntityTooLarge, apperrors.NewInvalidUpdateError("request body too large"))
		return
	}

	if res := validation.ValidateUpdate(body); !res.Valid {
		metrics.UpdatesDropped.WithLabelValues("invalid").Inc()
		s.logger.Warn("Rejected malformed update", map[string]interface{}{
			"errors":    res.Summary(),
			"requestId": middleware.GetReqID(r.Context()),
		})
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidUpdateError(res.Summary()))
		return
	}

	var update models.Update
	if err := json.Unmarshal(body, &update); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidUpdateError(err.Error()))
		return
	}
	metrics.UpdatesReceived.WithLabelValues(update.Kind()).Inc()

	if err := s.deps.Dispatcher.Handle(r.Context(), &update); err != nil {
		std := apperrors.Normalize(err)
		s.logger.Error("Update dispatch failed", map[string]interface{}{
			"updateId":  update.UpdateID,
			"sessionId": update.SessionID(),
			"errorCode": std.Code,
			"error":     err.Error(),
			"requestId": middleware.GetReqID(r.Context()),
		})
		writeError(w, http.StatusInternalServerError, std)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": s.app.Name,
		"version": s.app.Version,
		"status":  "running",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for name, p := range s.deps.Checks {
		if err := p.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			s.logger.Warn("Readiness check failed", map[string]interface{}{"check": name, "error": err.Error()})
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err *apperrors.StandardError) {
	writeJSON(w, status, map[string]interface{}{
		"ok":    false,
		"error": err.Code,
	})
}
