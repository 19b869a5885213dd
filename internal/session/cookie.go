package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/gatekeeper/internal/infrastructure/config"
)

// DefaultCookieName is used when the configuration leaves it empty.
const DefaultCookieName = "session"

// Manager moves sessions in and out of the HTTP cookie.
type Manager struct {
	codec    *Codec
	name     string
	secure   bool
	sameSite http.SameSite
}

// NewManager builds a Manager from the loaded configuration.
func NewManager(cfg *config.Config) (*Manager, error) {
	codec, err := NewCodec(cfg.Session.Secret, cfg.SessionTTL())
	if err != nil {
		return nil, err
	}
	return NewManagerWithCodec(codec, cfg.Session.CookieName, cfg.CookieSecure(), ParseSameSite(cfg.Session.SameSite)), nil
}

// NewManagerWithCodec builds a Manager around an existing codec.
func NewManagerWithCodec(codec *Codec, name string, secure bool, sameSite http.SameSite) *Manager {
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{codec: codec, name: name, secure: secure, sameSite: sameSite}
}

// ParseSameSite maps a config value to http.SameSite. Unknown values give Lax.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.name
}

// Read decodes the session carried by r. A missing, forged, or expired
// cookie reports false.
func (m *Manager) Read(r *http.Request) (Session, bool) {
	c, err := r.Cookie(m.name)
	if err != nil {
		return Session{}, false
	}
	return m.codec.Decode(strings.TrimSpace(c.Value))
}

// Write seals s and sets it as the session cookie, replacing any previous one.
func (m *Manager) Write(w http.ResponseWriter, s Session) error {
	value, exp, err := m.codec.Encode(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Expires:  exp.UTC(),
		MaxAge:   int(m.codec.TTL() / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})
	return nil
}

// Clear expires the session cookie. Calling it without a cookie present is
// harmless.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})
}
