package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/gatekeeper/internal/auth"
	"github.com/nerrad567/gatekeeper/internal/infrastructure/logging"
	"github.com/nerrad567/gatekeeper/internal/metrics"
	"github.com/nerrad567/gatekeeper/internal/session"
)

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse carries a code and the session snapshot of the caller.
type sessionResponse struct {
	Code string          `json:"code"`
	User session.Session `json:"user"`
}

// handleLogin verifies credentials and sets the session cookie.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		strings.TrimSpace(req.Email) == "" || req.Password == "" {
		s.metrics.LoginAttempt(metrics.LoginMissingCredentials)
		writeCode(w, http.StatusBadRequest, CodeMissingCredentials)
		return
	}

	user, err := auth.Authenticate(r.Context(), s.users, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.metrics.LoginAttempt(metrics.LoginInvalidCredentials)
			s.logger.Info("login rejected",
				"email", logging.MaskEmail(req.Email),
				"request_id", requestID(r.Context()),
			)
			writeCode(w, http.StatusUnauthorized, CodeInvalidCredentials)
			return
		}
		s.metrics.LoginAttempt(metrics.LoginError)
		s.logger.Error("login failed", "error", err, "request_id", requestID(r.Context()))
		writeCode(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	sess := auth.SessionFor(user)
	if err := s.sessions.Write(w, sess); err != nil {
		s.metrics.LoginAttempt(metrics.LoginError)
		s.logger.Error("encoding session failed", "error", err, "user_id", user.ID)
		writeCode(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	s.metrics.LoginAttempt(metrics.LoginSuccess)
	s.logger.Info("login succeeded", "user_id", user.ID, "request_id", requestID(r.Context()))
	writeJSON(w, http.StatusOK, sessionResponse{Code: CodeLoginSuccess, User: sess})
}

// handleLogout clears the session cookie. It succeeds with or without a session.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.sessions.Clear(w)
	writeCode(w, http.StatusOK, CodeLogoutSuccess)
}

// handleRefresh re-issues the cookie with a fresh permission snapshot from
// the store. A session whose user is gone is destroyed.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Read(r)
	if !ok {
		writeCode(w, http.StatusUnauthorized, CodeUnauthorized)
		return
	}

	user, err := s.users.GetByID(r.Context(), sess.ID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.sessions.Clear(w)
			writeCode(w, http.StatusNotFound, CodeUserNotFound)
			return
		}
		s.logger.Error("refresh lookup failed", "error", err, "user_id", sess.ID)
		writeCode(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	fresh := auth.SessionFor(user)
	if err := s.sessions.Write(w, fresh); err != nil {
		s.logger.Error("encoding session failed", "error", err, "user_id", user.ID)
		writeCode(w, http.StatusInternalServerError, CodeServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Code: CodeSessionRefreshed, User: fresh})
}

// handleMe returns the cached snapshot from the cookie without a store lookup.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Read(r)
	if !ok {
		writeCode(w, http.StatusUnauthorized, CodeUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Code: CodeUserFound, User: sess})
}
