package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/google/uuid"
)

// PortfolioRepository provides data access methods for the portfolios table.
// Every read is scoped to the owning user.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves all portfolios of a user, newest first.
// Returns an empty slice if the user has none.
func (r *PortfolioRepository) GetPortfolios(ctx context.Context, userID string) ([]model.Portfolio, error) {
	query := `
		SELECT id, user_id, name, description, created_at
		FROM portfolios
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolio retrieves a portfolio owned by userID.
// Returns ErrPortfolioNotFound if it does not exist or belongs to another user.
func (r *PortfolioRepository) GetPortfolio(ctx context.Context, userID, portfolioID string) (model.Portfolio, error) {
	query := `
		SELECT id, user_id, name, description, created_at
		FROM portfolios
		WHERE id = ? AND user_id = ?
	`

	p, err := scanPortfolio(r.db.QueryRowContext(ctx, query, portfolioID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// InsertPortfolio stores a new portfolio. ID and CreatedAt are filled in when empty.
func (r *PortfolioRepository) InsertPortfolio(ctx context.Context, p *model.Portfolio) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO portfolios (id, user_id, name, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.Name, p.Description, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (model.Portfolio, error) {
	var p model.Portfolio
	var createdAtStr string

	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &createdAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, err
		}
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	createdAt, err := ParseTime(createdAtStr)
	if err != nil {
		return model.Portfolio{}, err
	}
	p.CreatedAt = createdAt
	return p, nil
}
