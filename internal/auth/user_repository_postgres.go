package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresUserRepository implements UserRepository on a pgx pool.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a PostgreSQL-backed user repository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// GetByID retrieves a user and its permissions by ID.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// GetByEmail retrieves a user and its permissions by email.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", NormalizeEmail(email))
}

// List returns all users except excludeID, newest first.
func (r *PostgresUserRepository) List(ctx context.Context, excludeID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at,
		       COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.code IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_permissions up ON up.user_id = u.id
		LEFT JOIN permissions p ON p.id = up.permission_id
		WHERE u.id <> $1
		GROUP BY u.id
		ORDER BY u.created_at DESC, u.id DESC`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		var u User
		err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.Permissions)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	for i := range users {
		users[i].Permissions = nonNil(users[i].Permissions)
	}
	return users, nil
}

// Create inserts a new user account with its permission codes.
func (r *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	user.Email = NormalizeEmail(user.Email)
	user.Permissions = normalizeCodes(user.Permissions)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	err = tx.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	if err := setPermissionsPostgres(ctx, tx, user.ID, user.Permissions); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}
	return nil
}

// Update applies a partial update and returns the stored result.
func (r *PostgresUserRepository) Update(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	if upd.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", NormalizeEmail(*upd.Email))
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	args = append(args, id)

	tag, err := tx.Exec(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	if upd.Permissions != nil {
		if err := setPermissionsPostgres(ctx, tx, id, normalizeCodes(upd.Permissions)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing user update: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Delete removes a user account by ID. Permission links cascade.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the total number of user accounts.
func (r *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *PostgresUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT p.code FROM permissions p
		 JOIN user_permissions up ON up.permission_id = p.id
		 WHERE up.user_id = $1 ORDER BY p.code`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading permissions: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning permissions: %w", err)
	}
	u.Permissions = nonNil(codes)
	return &u, nil
}

// setPermissionsPostgres replaces the user's permission set, creating unknown codes.
func setPermissionsPostgres(ctx context.Context, tx pgx.Tx, userID int64, codes []string) error {
	if _, err := tx.Exec(ctx, "DELETE FROM user_permissions WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("clearing permissions: %w", err)
	}
	if len(codes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, code := range codes {
		batch.Queue("INSERT INTO permissions (code) VALUES ($1) ON CONFLICT (code) DO NOTHING", code)
		batch.Queue(`INSERT INTO user_permissions (user_id, permission_id)
			SELECT $1, id FROM permissions WHERE code = $2 ON CONFLICT DO NOTHING`, userID, code)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("granting permissions: %w", err)
	}
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
