package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/nerrad567/gatekeeper/internal/infrastructure/config"
)

// seedPasswordBytes is the number of random bytes for a generated root password.
const seedPasswordBytes = 16

// SeedRoot creates the root account on first boot if no users exist. It is
// granted every known permission. When cfg.Password is empty a random
// password is generated, logged once, and returned.
func SeedRoot(ctx context.Context, users UserRepository, cfg config.RootAccountConfig, logger *slog.Logger) (string, error) {
	count, err := users.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping root seed")
		return "", nil
	}

	password := cfg.Password
	generated := password == ""
	if generated {
		passwordBytes := make([]byte, seedPasswordBytes)
		if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
			return "", fmt.Errorf("generating root password: %w", err)
		}
		password = hex.EncodeToString(passwordBytes)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing root password: %w", err)
	}

	root := &User{
		Name:         cfg.Name,
		Email:        cfg.Email,
		PasswordHash: hash,
		Permissions:  AllPermissionCodes(),
	}
	if err := users.Create(ctx, root); err != nil {
		return "", fmt.Errorf("creating root user: %w", err)
	}

	if root.ID != RootUserID {
		logger.Warn("root user did not receive the reserved id",
			"id", root.ID,
			"reserved_id", RootUserID,
		)
	}

	if !generated {
		logger.Info("root user created", "id", root.ID, "email", root.Email)
		return "", nil
	}

	logger.Warn("root user created with generated password",
		"email", root.Email,
		"password", password,
		"action_required", "change this password immediately",
	)
	return password, nil
}
