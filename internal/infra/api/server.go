package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/config"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/health"
	"github.com/fetosat/daleelbalady-sub010/internal/usecase"
)

const maxBodyBytes = 64 << 10

// HealthReporter serves the cached dependency report.
type HealthReporter interface {
	Report(ctx context.Context) *health.Report
}

// Options carries the optional collaborators of Server.
type Options struct {
	Limiter     Limiter
	LimitWindow time.Duration
	Health      HealthReporter
}

// Server exposes the redemption use case over HTTP.
type Server struct {
	uc   usecase.RedemptionUseCase
	auth *Authenticator
	opts Options
	cfg  config.HTTPConfig
	log  *zerolog.Logger
	srv  *http.Server
}

func NewServer(cfg config.HTTPConfig, uc usecase.RedemptionUseCase, auth *Authenticator, opts Options, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	s := &Server{uc: uc, auth: auth, opts: opts, cfg: cfg, log: &l}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Routes builds the full router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(s.log), RequestLog(s.log), Recover(s.log))
	if s.cfg.RequestTimeout > 0 {
		r.Use(Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/pin-verification", func(r chi.Router) {
		r.Use(s.auth.Authenticate)

		providerOnly := RequireRole(RoleProvider, RoleAdmin)
		throttled := RateLimit(s.opts.Limiter, s.opts.LimitWindow, s.log)

		r.With(providerOnly, throttled).Post("/verify", s.handleVerify)
		r.With(providerOnly, throttled).Post("/validate", s.handleValidate)
		r.Get("/verification/{code}", s.handleGetVerification)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
		r.With(providerOnly).Get("/provider-history", s.handleProviderHistory)
	})
	return r
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(health.StatusHealthy)})
		return
	}
	report := s.opts.Health.Report(r.Context())
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
