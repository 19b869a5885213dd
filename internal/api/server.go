package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gatekeeper/internal/auth"
	"github.com/nerrad567/gatekeeper/internal/events"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/config"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/logging"
	"github.com/nerrad567/gatekeeper/internal/metrics"
	"github.com/nerrad567/gatekeeper/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every backing service reported on the
// health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   *config.Config
	Logger   *logging.Logger
	Users    auth.UserRepository
	Sessions *session.Manager
	// Events is optional; changes are not announced when nil.
	Events events.Publisher
	// Metrics is optional; a private recorder is created when nil.
	Metrics *metrics.Recorder
	// HealthChecks maps a check name ("database", "mqtt") to its probe.
	HealthChecks map[string]HealthChecker
	Version      string
}

// Server is the HTTP server for gatekeeper.
type Server struct {
	cfg          *config.Config
	logger       *logging.Logger
	users        auth.UserRepository
	sessions     *session.Manager
	authorizer   *auth.Authorizer
	gate         *Gate
	events       events.Publisher
	metrics      *metrics.Recorder
	healthChecks map[string]HealthChecker
	version      string
	server       *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}

	s := &Server{
		cfg:          deps.Config,
		logger:       deps.Logger.With("component", "api"),
		users:        deps.Users,
		sessions:     deps.Sessions,
		authorizer:   auth.NewAuthorizer(deps.Sessions, deps.Users),
		gate:         NewGate(deps.Config.Gate),
		events:       deps.Events,
		metrics:      deps.Metrics,
		healthChecks: deps.HealthChecks,
		version:      deps.Version,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New(deps.Config.Metrics.Namespace, nil)
	}

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	api := s.cfg.API
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", api.Host, api.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if api.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", api.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(api.TLS.CertFile, api.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
