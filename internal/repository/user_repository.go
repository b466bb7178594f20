package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-be/internal/entities"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string, name *string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByID(ctx context.Context, id string) (*entities.User, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a PostgreSQL-backed user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, email, passwordHash string, name *string) (*entities.User, error) {
	query := `
		INSERT INTO users (email, password_hash, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, name, status, created_at, updated_at
	`

	var user entities.User
	err := r.db.QueryRowContext(ctx, query, email, passwordHash, name, entities.DefaultStatus).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if pqCode(err) == pqUniqueViolation {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// FindByEmail finds a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `
		SELECT id, email, password_hash, name, status, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// FindByID finds a user by ID (UUID)
func (r *userRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	query := `
		SELECT id, email, password_hash, name, status, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus replaces the user's status line
func (r *userRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if pqCode(err) == pqInvalidTextRepr {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) scanOne(row *sql.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextRepr {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
