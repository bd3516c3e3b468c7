package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"apptbook/internal/config"
	"apptbook/internal/domain"
	"apptbook/internal/export"
	"apptbook/internal/metrics"
	"apptbook/internal/models"

	"github.com/rs/zerolog"
)

// HTTPServer is the JSON API behind the scheduling page.
type HTTPServer struct {
	cfg       config.APIConfig
	scheduler domain.SchedulerService
	auth      domain.AuthService
	exporter  *export.Exporter
	server    *http.Server
	limiter   *rateLimiter
	logger    *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	scheduler domain.SchedulerService,
	auth domain.AuthService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		scheduler: scheduler,
		auth:      auth,
		exporter:  exporter,
		limiter:   newRateLimiter(cfg.RateLimit),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/signup", srv.handleSignUp)
	mux.HandleFunc("/api/v1/auth/login", srv.handleSignIn)
	mux.HandleFunc("/api/v1/auth/logout", srv.handleSignOut)
	mux.HandleFunc("/api/v1/auth/password", srv.handlePassword)
	mux.HandleFunc("/api/v1/days", srv.handleDays)
	mux.HandleFunc("/api/v1/slots", srv.handleSlots)
	mux.HandleFunc("/api/v1/appointments", srv.handleAppointments)
	mux.HandleFunc("/api/v1/appointments/", srv.handleAppointmentByID)
	mux.HandleFunc("/api/v1/admin/appointments", srv.handleAdminAppointments)
	mux.HandleFunc("/api/v1/admin/appointments/", srv.handleAdminAppointmentByID)
	mux.HandleFunc("/api/v1/admin/export", srv.handleAdminExport)
	mux.HandleFunc("/api/v1/admin/users/role", srv.handleAdminUserRole)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler exposes the full middleware chain, mostly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit.RPS > 0 {
			if !s.limiter.getLimiter(clientKey(r)).Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// actorFromRequest resolves the bearer token, if any. Missing or invalid
// tokens yield the zero actor; the read endpoints work anonymously and the
// mutations reject the zero actor themselves.
func (s *HTTPServer) actorFromRequest(r *http.Request) models.Actor {
	token := bearerToken(r)
	if token == "" {
		return models.Actor{}
	}
	actor, err := s.auth.Authenticate(r.Context(), token)
	if err != nil {
		return models.Actor{}
	}
	return actor
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func clientKey(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
