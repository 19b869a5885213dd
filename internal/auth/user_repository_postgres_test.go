package auth

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/nerrad567/gatekeeper/internal/infrastructure/postgres"
	"github.com/nerrad567/gatekeeper/migrations"
)

// testPostgres connects to GATEKEEPER_TEST_POSTGRES_URL, applies migrations
// and empties the user tables.
func testPostgres(t *testing.T) *PostgresUserRepository {
	t.Helper()

	url := os.Getenv("GATEKEEPER_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("GATEKEEPER_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, postgres.Config{URL: url, MaxConns: 4})
	if err != nil {
		t.Fatalf("postgres.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx, migrations.Postgres()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := db.Pool.Exec(ctx, "TRUNCATE users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncating users: %v", err)
	}
	return NewPostgresUserRepository(db.Pool)
}

func TestPostgresUserRepository_Lifecycle(t *testing.T) {
	repo := testPostgres(t)
	ctx := context.Background()

	user := seedTestUser(t, repo, "PG@example.com", PermViewUsers, "CUSTOM")
	if user.ID != 1 {
		t.Errorf("first user ID = %d, want 1", user.ID)
	}

	got, err := repo.GetByEmail(ctx, "pg@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if !reflect.DeepEqual(got.Permissions, []string{"CUSTOM", PermViewUsers}) {
		t.Errorf("Permissions = %v", got.Permissions)
	}

	if err := repo.Create(ctx, &User{Email: "pg@example.com", PasswordHash: "x"}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate Create() error = %v, want ErrEmailExists", err)
	}

	other := seedTestUser(t, repo, "other@example.com")
	list, err := repo.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != other.ID || list[0].Permissions == nil {
		t.Errorf("List() = %+v", list)
	}

	name := "Renamed"
	updated, err := repo.Update(ctx, other.ID, UserUpdate{Name: &name, Permissions: []string{PermDeleteUser}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != name || !reflect.DeepEqual(updated.Permissions, []string{PermDeleteUser}) {
		t.Errorf("Update() = %+v", updated)
	}
	if _, err := repo.Update(ctx, 999, UserUpdate{Name: &name}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrUserNotFound", err)
	}

	if err := repo.Delete(ctx, other.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, other.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() after delete error = %v", err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}
