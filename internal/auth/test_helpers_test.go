package auth

import (
	"context"
	"database/sql"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gatekeeper/internal/infrastructure/database"
	"github.com/nerrad567/gatekeeper/internal/session"
	"github.com/nerrad567/gatekeeper/migrations"
)

// testDB opens a temporary SQLite database with the user store schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.SQLite()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return db.DB
}

// seedTestUser inserts a user with password "test-password" and returns it.
func seedTestUser(t *testing.T, repo UserRepository, email string, perms ...string) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{
		Name:         email,
		Email:        email,
		PasswordHash: hash,
		Permissions:  perms,
	}
	if err := repo.Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return user
}

// stubSessions returns a fixed session, or none.
type stubSessions struct {
	sess session.Session
	ok   bool
}

func (s stubSessions) Read(*http.Request) (session.Session, bool) {
	return s.sess, s.ok
}

// failingFinder always returns err.
type failingFinder struct{ err error }

func (f failingFinder) GetByID(context.Context, int64) (*User, error) {
	return nil, f.err
}
