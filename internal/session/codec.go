package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"golang.org/x/crypto/hkdf"
)

const (
	issuer  = "gatekeeper"
	keyInfo = "gatekeeper session v4.local"
	keySize = 32

	claimUserID      = "uid"
	claimName        = "name"
	claimEmail       = "email"
	claimPermissions = "permissions"
)

// ErrEmptySecret is returned by NewCodec when no secret is configured.
var ErrEmptySecret = errors.New("session: secret is empty")

// Session is the principal's cached identity.
// Permissions is a snapshot and may lag the store.
type Session struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
}

// Codec seals and opens session values. It is safe for concurrent use.
type Codec struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewCodec derives the encryption key from secret. ttl bounds the lifetime
// of every token the codec produces.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session: ttl must be positive, got %s", ttl)
	}

	raw := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), raw); err != nil {
		return nil, fmt.Errorf("session: deriving key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("session: building key: %w", err)
	}

	return &Codec{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied by Encode.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode seals s into an opaque cookie value and returns it with its expiry.
func (c *Codec) Encode(s Session) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.ttl)

	perms := s.Permissions
	if perms == nil {
		perms = []string{}
	}

	tok := paseto.NewToken()
	tok.SetIssuer(issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	claims := []struct {
		key   string
		value any
	}{
		{claimUserID, s.ID},
		{claimName, s.Name},
		{claimEmail, s.Email},
		{claimPermissions, perms},
	}
	for _, cl := range claims {
		if err := tok.Set(cl.key, cl.value); err != nil {
			return "", time.Time{}, fmt.Errorf("session: setting %s: %w", cl.key, err)
		}
	}

	return tok.V4Encrypt(c.key, nil), exp, nil
}

// Decode opens a cookie value. ok is false for anything that is not an
// unexpired token sealed by this codec's key.
func (c *Codec) Decode(value string) (s Session, ok bool) {
	if value == "" {
		return Session{}, false
	}

	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(issuer))
	p.AddRule(paseto.ValidAt(c.now()))

	tok, err := p.ParseV4Local(c.key, value, nil)
	if err != nil {
		return Session{}, false
	}

	if err := tok.Get(claimUserID, &s.ID); err != nil || s.ID < 1 {
		return Session{}, false
	}
	if s.Email, err = tok.GetString(claimEmail); err != nil || s.Email == "" {
		return Session{}, false
	}
	if s.Name, err = tok.GetString(claimName); err != nil {
		return Session{}, false
	}
	if err := tok.Get(claimPermissions, &s.Permissions); err != nil {
		return Session{}, false
	}
	if s.Permissions == nil {
		s.Permissions = []string{}
	}

	return s, true
}
