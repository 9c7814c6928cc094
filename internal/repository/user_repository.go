package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/google/uuid"
)

// UserRepository provides data access methods for the users table.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// InsertUser stores a new user. ID and CreatedAt are filled in when empty.
// Returns ErrDuplicateEntry when the email is already registered.
func (r *UserRepository) InsertUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Plan == "" {
		u.Plan = "free"
	}

	query := `
		INSERT INTO users (id, email, name, plan, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.Plan, formatTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: user with email %s", apperrors.ErrDuplicateEntry, u.Email)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID. Returns ErrUserNotFound if it does not exist.
func (r *UserRepository) GetUser(ctx context.Context, id string) (model.User, error) {
	return r.getUser(ctx, `SELECT id, email, name, plan, created_at FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email. Returns ErrUserNotFound if it does not exist.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, `SELECT id, email, name, plan, created_at FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (model.User, error) {
	var u model.User
	var createdAtStr string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.Plan, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}

	u.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}
