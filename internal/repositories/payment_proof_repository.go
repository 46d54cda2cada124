package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learnportal/backend/internal/models"
)

// paymentProofRepository implements services.PaymentProofRepository
type paymentProofRepository struct {
	db *sql.DB
}

// NewPaymentProofRepository creates a new payment proof metadata repository
func NewPaymentProofRepository(db *sql.DB) *paymentProofRepository {
	return &paymentProofRepository{db: db}
}

// Create stores the metadata of an uploaded proof
func (r *paymentProofRepository) Create(ctx context.Context, p *models.PaymentProof) error {
	query := `
		INSERT INTO payment_proofs (id, user_id, course_id, content_type, size)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.UserID, p.CourseID, p.ContentType, p.Size); err != nil {
		return fmt.Errorf("failed to create payment proof: %w", err)
	}
	return nil
}

// GetByID retrieves proof metadata by its stored file name
func (r *paymentProofRepository) GetByID(ctx context.Context, id string) (*models.PaymentProof, error) {
	query := `
		SELECT id, user_id, course_id, content_type, size, created_at
		FROM payment_proofs
		WHERE id = ?
		LIMIT 1
	`

	p := &models.PaymentProof{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.UserID, &p.CourseID, &p.ContentType, &p.Size, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("payment proof not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment proof: %w", err)
	}
	return p, nil
}

// Delete removes proof metadata that no enrollment references
func (r *paymentProofRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM payment_proofs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete payment proof: %w", err)
	}
	return nil
}
