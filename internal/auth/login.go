package auth

import (
	"context"
	"errors"
	"fmt"
)

// EmailLookup is the subset of UserRepository needed to check credentials.
type EmailLookup interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Authenticate returns the user whose email and password match.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials and
// cost one hash verification each.
func Authenticate(ctx context.Context, users EmailLookup, email, password string) (*User, error) {
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			burnVerify(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
