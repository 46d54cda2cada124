package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// enrollmentRepository implements services.EnrollmentRepository
type enrollmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB, logger *zap.Logger) *enrollmentRepository {
	return &enrollmentRepository{
		db:     db,
		logger: logger,
	}
}

const enrollmentColumns = `id, user_id, course_id, status, message, proof_id, created_at, updated_at`

func scanEnrollment(s scanner) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	var proofID sql.NullString
	if err := s.Scan(
		&e.ID,
		&e.UserID,
		&e.CourseID,
		&e.Status,
		&e.Message,
		&proofID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if proofID.Valid {
		e.ProofID = &proofID.String
	}
	return e, nil
}

// GetByUserAndCourse retrieves the enrollment of a user in a course
// A missing row is reported as NOT_FOUND and means "not_enrolled"
func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = ? AND course_id = ? LIMIT 1`

	e, err := scanEnrollment(r.db.QueryRowContext(ctx, query, userID, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("enrollment not found")
	}
	if err != nil {
		r.logger.Error("failed to get enrollment", zap.Error(err), zap.Int("user_id", userID), zap.Int("course_id", courseID))
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return e, nil
}

// GetByID retrieves an enrollment by ID
func (r *enrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = ? LIMIT 1`

	e, err := scanEnrollment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("enrollment %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return e, nil
}

// Create records the first transition out of not_enrolled
// A second enrollment for the same user and course is an invalid transition
func (r *enrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, status, message, proof_id)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, e.UserID, e.CourseID, e.Status, e.Message, e.ProofID)
	if isDuplicateEntry(err) {
		return apperrors.Clone(apperrors.ErrInvalidStateTransition, "already enrolled in this course")
	}
	if err != nil {
		r.logger.Error("failed to create enrollment", zap.Error(err))
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = int(id)
	return nil
}

// UpdateStatus moves an enrollment from one status to another
// The update only applies while the row still has status from, so concurrent reviews cannot both succeed
func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int, from, to models.EnrollmentStatus, message string) error {
	query := `
		UPDATE enrollments
		SET status = ?, message = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query, to, message, id, from)
	if err != nil {
		r.logger.Error("failed to update enrollment status", zap.Error(err), zap.Int("enrollment_id", id))
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.Clone(apperrors.ErrInvalidStateTransition,
			fmt.Sprintf("enrollment %d is no longer %s", id, from))
	}
	return nil
}

const reviewItemQuery = `
	SELECT e.id, e.user_id, u.name, u.email, e.course_id, c.title, e.status, e.proof_id, e.created_at
	FROM enrollments e
	JOIN users u ON u.id = e.user_id
	JOIN courses c ON c.id = e.course_id
`

// ListByStatus returns the enrollments with the given status, oldest first, for the review queue
func (r *enrollmentRepository) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentReviewItem, error) {
	items, err := r.listReviewItems(ctx, reviewItemQuery+`WHERE e.status = ? ORDER BY e.created_at, e.id`, status)
	if err != nil {
		r.logger.Error("failed to list enrollments", zap.Error(err), zap.String("status", string(status)))
	}
	return items, err
}

// ListRecent returns the newest enrollments of any status
func (r *enrollmentRepository) ListRecent(ctx context.Context, limit int) ([]models.EnrollmentReviewItem, error) {
	return r.listReviewItems(ctx, reviewItemQuery+`ORDER BY e.created_at DESC, e.id DESC LIMIT ?`, limit)
}

func (r *enrollmentRepository) listReviewItems(ctx context.Context, query string, args ...any) ([]models.EnrollmentReviewItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	items := []models.EnrollmentReviewItem{}
	for rows.Next() {
		var item models.EnrollmentReviewItem
		var proofID sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.UserName,
			&item.UserEmail,
			&item.CourseID,
			&item.CourseTitle,
			&item.Status,
			&proofID,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		if proofID.Valid {
			item.ProofID = &proofID.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}
	return items, nil
}
