package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gatekeeper/internal/auth"
	"github.com/nerrad567/gatekeeper/internal/web"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeCode(w, http.StatusNotFound, CodeNotFound)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeCode(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed)
		})

		r.Route("/public", func(r chi.Router) {
			r.Get("/health", s.handleHealth)
			r.Get("/permissions", s.handlePermissions)
			if s.cfg.Metrics.Enabled {
				r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
			}
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/me", s.handleMe)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(s.require(auth.PermViewUsers)).Get("/", s.handleListUsers)
			r.With(s.require(auth.PermCreateUser)).Post("/", s.handleCreateUser)
			r.With(s.require(auth.PermUpdateUser)).Put("/{id}", s.handleUpdateUser)
			r.With(s.require(auth.PermDeleteUser)).Delete("/{id}", s.handleDeleteUser)
		})
	})

	// Pages: everything outside /api sits behind the session gate.
	r.Group(func(r chi.Router) {
		r.Use(s.gateMiddleware)
		r.Handle("/*", web.Handler(s.cfg.Web.Dir))
	})

	return r
}
