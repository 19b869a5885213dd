package api

import (
	"net/http"
	"strings"

	"github.com/nerrad567/gatekeeper/internal/infrastructure/config"
)

// GateState is the outcome of the page gate for one request. Every state
// except GateChecking is terminal.
type GateState string

const (
	GateChecking        GateState = "checking"
	GateRedirectToLogin GateState = "redirect_to_login"
	GateRedirectToHome  GateState = "redirect_to_home"
	GatePassThrough     GateState = "pass_through"
)

// Gate decides, from the presence of a valid session alone, whether a page
// request may proceed. It never looks at permissions.
type Gate struct {
	loginPath      string
	homePath       string
	publicPrefixes []string
}

// NewGate creates a Gate from configuration, filling unset paths with
// "/login" and "/".
func NewGate(cfg config.GateConfig) *Gate {
	g := &Gate{
		loginPath: cfg.LoginPath,
		homePath:  cfg.HomePath,
	}
	if g.loginPath == "" {
		g.loginPath = "/login"
	}
	if g.homePath == "" {
		g.homePath = "/"
	}
	for _, p := range cfg.PublicPrefixes {
		if p = strings.TrimSuffix(p, "/"); p != "" {
			g.publicPrefixes = append(g.publicPrefixes, p)
		}
	}
	return g
}

// IsPublic reports whether path is on the allow-list. Prefixes match whole
// path segments: "/public" covers "/public" and "/public/app.js" but not
// "/publicity".
func (g *Gate) IsPublic(path string) bool {
	for _, p := range g.publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Decide runs the gate for a non-public path.
func (g *Gate) Decide(path string, hasSession bool) GateState {
	switch {
	case g.isLoginPath(path) && hasSession:
		return GateRedirectToHome
	case g.isLoginPath(path):
		return GatePassThrough
	case !hasSession:
		return GateRedirectToLogin
	default:
		return GatePassThrough
	}
}

// Location returns the redirect target for a redirect state, or "".
func (g *Gate) Location(state GateState) string {
	switch state {
	case GateRedirectToLogin:
		return g.loginPath
	case GateRedirectToHome:
		return g.homePath
	default:
		return ""
	}
}

func (g *Gate) isLoginPath(path string) bool {
	return path == g.loginPath || path == g.loginPath+"/"
}

// gateMiddleware applies the Gate to page requests. Allow-listed paths skip
// session decoding entirely.
func (s *Server) gateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.gate.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		_, hasSession := s.sessions.Read(r)
		state := s.gate.Decide(r.URL.Path, hasSession)
		s.metrics.GateOutcome(string(state))

		if loc := s.gate.Location(state); loc != "" {
			s.logger.Debug("gate redirect",
				"path", r.URL.Path,
				"state", state,
				"location", loc,
				"request_id", requestID(r.Context()),
			)
			http.Redirect(w, r, loc, http.StatusTemporaryRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}
