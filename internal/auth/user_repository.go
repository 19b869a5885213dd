package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// UserFinder is the lookup the authorization check depends on.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}

// UserRepository defines the interface for user account persistence.
// Implementations return ErrUserNotFound and ErrEmailExists for the
// corresponding conditions.
type UserRepository interface {
	UserFinder
	GetByEmail(ctx context.Context, email string) (*User, error)
	// List returns every user except excludeID, newest first.
	List(ctx context.Context, excludeID int64) ([]User, error)
	// Create inserts user and its permissions, filling in ID and timestamps.
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// timeLayout sorts lexically in the TEXT columns.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const userColumns = "id, name, email, password_hash, created_at, updated_at"

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// GetByID retrieves a user and its permissions by ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user and its permissions by email.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", NormalizeEmail(email))
}

// List returns all users except excludeID ordered by creation date, newest first.
func (r *SQLiteUserRepository) List(ctx context.Context, excludeID int64) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id != ? ORDER BY created_at DESC, id DESC", excludeID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	rows.Close()

	perms, err := r.allPermissions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Permissions = nonNil(perms[users[i].ID])
	}
	return users, nil
}

// Create inserts a new user account with its permission codes.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.Email = NormalizeEmail(user.Email)
	user.Permissions = normalizeCodes(user.Permissions)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}

	if err := setPermissionsSQLite(ctx, tx, id, user.Permissions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}

	user.ID = id
	user.CreatedAt, _ = time.Parse(timeLayout, now.Format(timeLayout)) //nolint:errcheck // format is controlled
	user.UpdatedAt = user.CreatedAt
	return nil
}

// Update applies a partial update and returns the stored result.
func (r *SQLiteUserRepository) Update(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	if upd.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("checking user: %w", err)
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(timeLayout)}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, NormalizeEmail(*upd.Email))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *upd.PasswordHash)
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	if upd.Permissions != nil {
		if err := setPermissionsSQLite(ctx, tx, id, normalizeCodes(upd.Permissions)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user update: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Delete removes a user account by ID. Permission links cascade.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the total number of user accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// getUser executes a query, scans a single user and loads its permissions.
func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT p.code FROM permissions p
		 JOIN user_permissions up ON up.permission_id = p.id
		 WHERE up.user_id = ? ORDER BY p.code`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading permissions: %w", err)
	}
	defer rows.Close()

	u.Permissions = []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		u.Permissions = append(u.Permissions, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}
	return u, nil
}

// allPermissions maps user ID to its sorted permission codes.
func (r *SQLiteUserRepository) allPermissions(ctx context.Context) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT up.user_id, p.code FROM user_permissions up
		 JOIN permissions p ON p.id = up.permission_id
		 ORDER BY up.user_id, p.code`)
	if err != nil {
		return nil, fmt.Errorf("loading permissions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		out[id] = append(out[id], code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}
	return out, nil
}

// setPermissionsSQLite replaces the user's permission set, creating unknown codes.
func setPermissionsSQLite(ctx context.Context, tx *sql.Tx, userID int64, codes []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_permissions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing permissions: %w", err)
	}
	for _, code := range codes {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO permissions (code) VALUES (?)", code); err != nil {
			return fmt.Errorf("creating permission %s: %w", code, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_permissions (user_id, permission_id)
			 SELECT ?, id FROM permissions WHERE code = ?`, userID, code); err != nil {
			return fmt.Errorf("granting permission %s: %w", code, err)
		}
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser scans the userColumns from any scanner (Row or Rows).
func scanUser(s scanner) (*User, error) {
	var u User
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.CreatedAt, _ = time.Parse(timeLayout, createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(timeLayout, updatedAt) //nolint:errcheck // format is controlled

	return &u, nil
}

func nonNil(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
