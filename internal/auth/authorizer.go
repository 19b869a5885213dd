package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/nerrad567/gatekeeper/internal/session"
)

// DecisionCode names the outcome of an authorization check.
type DecisionCode string

const (
	CodeAuthorized   DecisionCode = "AUTHORIZED"
	CodeUnauthorized DecisionCode = "UNAUTHORIZED"
	CodeUserNotFound DecisionCode = "USER_NOT_FOUND"
	CodeForbidden    DecisionCode = "FORBIDDEN"
	CodeServerError  DecisionCode = "SERVER_ERROR"
)

// Decision is the per-request result of Check. It is never stored.
type Decision struct {
	Authorized bool
	Code       DecisionCode
	// User is the live record; set only when Authorized.
	User *User
	// Err carries the store failure behind CodeServerError.
	Err error
}

// Status maps the decision to an HTTP status code.
func (d Decision) Status() int {
	switch d.Code {
	case CodeAuthorized:
		return http.StatusOK
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusForbidden
	}
}

// SessionReader decodes the session attached to a request.
type SessionReader interface {
	Read(r *http.Request) (session.Session, bool)
}

// Authorizer re-validates sessions against the live user store.
type Authorizer struct {
	sessions SessionReader
	users    UserFinder
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(sessions SessionReader, users UserFinder) *Authorizer {
	return &Authorizer{sessions: sessions, users: users}
}

// Check decides whether the request's principal holds every code in
// required. The permission snapshot in the cookie is ignored; the user is
// fetched from the store on every call.
func (a *Authorizer) Check(r *http.Request, required ...string) Decision {
	sess, ok := a.sessions.Read(r)
	if !ok {
		return Decision{Code: CodeUnauthorized}
	}
	return a.CheckSession(r.Context(), sess, required...)
}

// CheckSession is Check for an already decoded session.
func (a *Authorizer) CheckSession(ctx context.Context, sess session.Session, required ...string) Decision {
	user, err := a.users.GetByID(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Decision{Code: CodeUserNotFound}
		}
		return Decision{Code: CodeServerError, Err: err}
	}

	if !HasAll(user.Permissions, required) {
		return Decision{Code: CodeForbidden}
	}

	return Decision{Authorized: true, Code: CodeAuthorized, User: user}
}

// SessionFor builds the cookie snapshot of user.
func SessionFor(user *User) session.Session {
	perms := make([]string, len(user.Permissions))
	copy(perms, user.Permissions)
	return session.Session{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Permissions: perms,
	}
}
