package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"apptbook/internal/models"
)

// CreateUser inserts a new account. A duplicate email surfaces as
// ErrEmailTaken.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (email, name, password_hash, role, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.db.ExecContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.Role, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, password_hash, role, created_at, updated_at
              FROM users WHERE email = ?`
	return db.scanUser(db.db.QueryRowContext(ctx, query, email))
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, name, password_hash, role, created_at, updated_at
              FROM users WHERE id = ?`
	return db.scanUser(db.db.QueryRowContext(ctx, query, id))
}

// UpdateUserPassword replaces the stored hash.
func (db *DB) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := db.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserRole promotes or demotes an account. Admin-only at the API edge.
func (db *DB) UpdateUserRole(ctx context.Context, id int64, role string) error {
	result, err := db.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
