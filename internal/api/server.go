package api

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/org/vitalguard/internal/monitor"
	"github.com/org/vitalguard/internal/notify"
	"github.com/org/vitalguard/internal/session"
	"github.com/org/vitalguard/internal/storage"
	"github.com/org/vitalguard/internal/tools"
	"github.com/org/vitalguard/pkg/models"
	"github.com/rs/zerolog/log"
)

// Config holds server configuration.
type Config struct {
	ListenAddr   string
	TLSCertFile  string
	TLSKeyFile   string
	HistoryLimit int
	RateLimit    int
	RateBurst    int
}

// loadReporter is implemented by stores that can start from a bad dataset
// and keep serving it empty.
type loadReporter interface {
	LoadError() error
}

// NotificationLog is what the server needs from the doctor notifier.
type NotificationLog interface {
	notify.Notifier
	Sent() []models.DoctorAlert
}

// Server is the API server.
type Server struct {
	store    storage.VitalsStore
	sessions *session.Manager
	tools    *tools.Registry
	monitor  *monitor.Service
	notifier NotificationLog
	cfg      Config
	httpSrv  *http.Server
}

// NewServer creates a fully wired Server.
func NewServer(store storage.VitalsStore, notifier NotificationLog, sessions *session.Manager, cfg Config) *Server {
	registry := tools.NewRegistry(store, notifier)
	return &Server{
		store:    store,
		sessions: sessions,
		tools:    registry,
		monitor:  monitor.NewService(store, registry, cfg.HistoryLimit),
		notifier: notifier,
		cfg:      cfg,
	}
}

// dataError describes why the store started without its dataset, or "".
func (s *Server) dataError() string {
	lr, ok := s.store.(loadReporter)
	if !ok {
		return ""
	}
	if err := lr.LoadError(); err != nil {
		return err.Error()
	}
	return ""
}

// BuildRouter wires up all routes and returns a chi router.
func (s *Server) BuildRouter() http.Handler {
	r := chi.NewRouter()

	rps, burst := s.cfg.RateLimit, s.cfg.RateBurst
	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = 2 * rps
	}

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware)
	r.Use(newRateLimiter(rps, burst).middleware)
	r.Use(accessLogMiddleware)

	r.Handle("/metrics", MetricsHandler())
	r.Get("/v1/sys/health", s.HealthHandler)

	// Everything else runs inside an operator session.
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware(s.sessions))

		r.Get("/v1/sys/session", s.SessionHandler)
		r.Delete("/v1/sys/session", s.SessionEndHandler)
		r.Get("/v1/notifications", s.NotificationsHandler)

		// Patients
		r.Get("/v1/patients", s.PatientListHandler)
		r.Get("/v1/patients/{id}", s.PatientViewHandler)
		r.Post("/v1/patients/{id}/refresh", s.PatientRefreshHandler)
		r.Post("/v1/patients/{id}/check", s.PatientCheckHandler)
		r.Post("/v1/patients/{id}/alert", s.PatientAlertHandler)

		// Consent
		r.Post("/v1/patients/{id}/consent", s.ConsentCaptureHandler)
		r.Get("/v1/patients/{id}/consent", s.ConsentReadHandler)
		r.Get("/v1/consent", s.ConsentListHandler)

		// Token
		r.Post("/v1/auth/token", s.TokenIssueHandler)
		r.Delete("/v1/auth/token", s.TokenRevokeHandler)
		r.Get("/v1/auth/token", s.TokenLookupHandler)
		r.Get("/v1/auth/scopes", s.ScopeListHandler)

		// Agent tools
		r.Get("/v1/tools", s.ToolListHandler)
		r.Post("/v1/tools/{name}", s.ToolCallHandler)

		// Audit
		r.Get("/v1/audit", s.AuditListHandler)
		r.Get("/v1/audit/export", s.AuditExportHandler)
	})

	return r
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	handler := s.BuildRouter()

	s.httpSrv = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != "" {
		tlsCfg := &tls.Config{
			MinVersion: tls.VersionTLS12,
			CurvePreferences: []tls.CurveID{
				tls.CurveP256,
				tls.X25519,
			},
		}
		s.httpSrv.TLSConfig = tlsCfg
		log.Info().Str("addr", s.cfg.ListenAddr).Msg("starting HTTPS server")
		return s.httpSrv.ListenAndServeTLS(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	}

	log.Info().Str("addr", s.cfg.ListenAddr).Msg("starting HTTP server")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
