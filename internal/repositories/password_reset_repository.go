package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/learnportal/backend/internal/models"
)

// passwordResetRepository implements services.PasswordResetRepository
//
// Only the SHA-256 hash of a reset token is stored.
type passwordResetRepository struct {
	db *sql.DB
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db *sql.DB) *passwordResetRepository {
	return &passwordResetRepository{db: db}
}

// Create stores a reset token hash for a user
func (r *passwordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := `INSERT INTO password_resets (token_hash, user_id) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, reset.TokenHash, reset.UserID); err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

// GetByHash retrieves a reset request by its token hash
func (r *passwordResetRepository) GetByHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	query := `
		SELECT token_hash, user_id, created_at
		FROM password_resets
		WHERE token_hash = ?
		LIMIT 1
	`

	reset := &models.PasswordReset{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&reset.TokenHash, &reset.UserID, &reset.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("reset token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	return reset, nil
}

// DeleteByUser removes every pending reset of a user
func (r *passwordResetRepository) DeleteByUser(ctx context.Context, userID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete password resets: %w", err)
	}
	return nil
}

// DeleteExpiredTokens deletes resets created at or before expiryTime and returns how many were removed
func (r *passwordResetRepository) DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE created_at <= ?`, expiryTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}
