package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines user data access interface
type Repository interface {
	Upsert(ctx context.Context, id uuid.UUID, displayName string) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Upsert inserts the user or refreshes a non-empty display name.
func (r *repository) Upsert(ctx context.Context, id uuid.UUID, displayName string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name, updated_at = now()
		WHERE EXCLUDED.display_name <> '' AND users.display_name <> EXCLUDED.display_name
	`, id, displayName)
	if err != nil {
		return fmt.Errorf("user repository upsert: %w", err)
	}
	return nil
}

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT id, display_name, created_at, updated_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user repository get: %w", err)
	}
	return &u, nil
}
