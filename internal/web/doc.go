// Package web serves gatekeeper's browser UI.
//
// The pages (/, /login, /users, /403) are one HTML document switched on
// the client; every unknown path falls back to index.html. Static assets
// live under /public, which the page gate lets through unauthenticated.
// The UI never makes authorization decisions: it follows 401 to the login
// page and FORBIDDEN to /403.
package web
