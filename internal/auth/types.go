package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// RootUserID identifies the bootstrap account.
const RootUserID int64 = 1

// User is an account together with its live permission codes.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Permissions  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPermission reports whether code is in the user's permission set.
func (u *User) HasPermission(code string) bool {
	for _, p := range u.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// UserUpdate is a partial update. Nil pointers leave fields unchanged.
// A nil Permissions slice leaves the set unchanged; a non-nil one, even
// empty, replaces it.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Permissions  []string
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil && u.Permissions == nil
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether email is a bare RFC 5322 address.
// Display-name forms such as "Bob <bob@example.com>" are rejected.
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && addr.Name == ""
}

// normalizeCodes trims, drops empties and removes duplicates, keeping order.
func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrRootImmutable      = errors.New("root user cannot be modified")
	ErrEmptyUpdate        = errors.New("update changes nothing")
)
