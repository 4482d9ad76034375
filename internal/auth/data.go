package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ErrEmailTaken is returned when a user is created with an email already in use
var ErrEmailTaken = errors.New("email already registered")

// Repository provides access to auth-related database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new auth repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// --- User Operations ---

const userColumns = `id, name, email, type, is_active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Type, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns a user by ID with its roles, or nil when absent
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.getRoles(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail returns a user by email, or nil when absent
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.getRoles(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetAllUsers returns users ordered by name with pagination
func (r *Repository) GetAllUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY name
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Roles, err = r.getRoles(ctx, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// CreateUser creates a new active user with the given roles
func (r *Repository) CreateUser(ctx context.Context, name, email string, userType UserType, roles []Role) (*User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO users (name, email, type) VALUES (?, ?, ?)
	`, strings.TrimSpace(name), normalizeEmail(email), userType)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	id, _ := result.LastInsertId()

	if err := insertRoles(ctx, tx, id, roles); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

// UpdateUser updates the non-nil user fields
func (r *Repository) UpdateUser(ctx context.Context, id int64, name *string, userType *UserType, isActive *bool) error {
	if name != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET name = ? WHERE id = ?", strings.TrimSpace(*name), id); err != nil {
			return err
		}
	}
	if userType != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET type = ? WHERE id = ?", *userType, id); err != nil {
			return err
		}
	}
	if isActive != nil {
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET is_active = ? WHERE id = ?", *isActive, id); err != nil {
			return err
		}
	}
	return nil
}

// SetRoles replaces the role set of a user
func (r *Repository) SetRoles(ctx context.Context, userID int64, roles []Role) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id = ?", userID); err != nil {
		return err
	}
	if err := insertRoles(ctx, tx, userID, roles); err != nil {
		return err
	}
	return tx.Commit()
}

// ActiveEmailsWithRole lists the email of every active user holding role
func (r *Repository) ActiveEmailsWithRole(ctx context.Context, role string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.email FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role = ? AND u.is_active = 1
		ORDER BY u.email
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *Repository) getRoles(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT role FROM user_roles WHERE user_id = ? ORDER BY role", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func insertRoles(ctx context.Context, tx *sql.Tx, userID int64, roles []Role) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, role := range roles {
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", role)
		}
		if _, err := stmt.ExecContext(ctx, userID, role); err != nil {
			return err
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
