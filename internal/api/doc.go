// Package api implements gatekeeper's HTTP surface.
//
// This package provides:
//   - Session endpoints under /api/auth (login, logout, refresh, me)
//   - Permission-gated user management under /api/users
//   - Public endpoints under /api/public (health, permission registry, metrics)
//   - The page gate in front of the web UI
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Two checks, kept apart
//
// The page gate only asks whether a valid session cookie exists. It sends
// visitors without one to the login page and signed-in visitors away from
// it. It never looks at permissions.
//
// Every privileged API route is wrapped in require(), which runs
// auth.Authorizer.Check against the live store. A rejection writes the
// {code} response and stops the request; the handler is never entered.
//
// # Responses
//
// Every response body is JSON carrying a "code" string, plus "user" or
// "users" where relevant. Internal errors are logged with the request ID
// and reported only as a code.
package api
