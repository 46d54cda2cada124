package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// assignmentRepository implements services.AssignmentRepository
type assignmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sql.DB, logger *zap.Logger) *assignmentRepository {
	return &assignmentRepository{
		db:     db,
		logger: logger,
	}
}

const assignmentQuery = `
	SELECT a.id, a.course_id, a.title, a.description, a.due_date, a.max_score,
		s.id, s.content, s.file_id, s.file_type, s.score, s.feedback, s.submitted_at, s.graded_at
	FROM assignments a
	LEFT JOIN assignment_submissions s ON s.assignment_id = a.id AND s.user_id = ?
`

// ListByCourse returns the assignments of a course with the submission of the user
func (r *assignmentRepository) ListByCourse(ctx context.Context, courseID, userID int) ([]models.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, assignmentQuery+` WHERE a.course_id = ? ORDER BY a.id`, userID, courseID)
	if err != nil {
		r.logger.Error("failed to list assignments", zap.Error(err), zap.Int("course_id", courseID))
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows, userID)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

// GetByID retrieves an assignment with the submission of the user
func (r *assignmentRepository) GetByID(ctx context.Context, id, userID int) (*models.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, assignmentQuery+` WHERE a.id = ? LIMIT 1`, userID, id), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("assignment %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new assignment and sets its ID
func (r *assignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (course_id, title, description, due_date, max_score)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, a.CourseID, a.Title, a.Description, a.DueDate, a.MaxScore)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = int(id)
	return nil
}

// Delete removes an assignment and returns the stored file IDs of its submissions
func (r *assignmentRepository) Delete(ctx context.Context, id int) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT file_id FROM assignment_submissions WHERE assignment_id = ? AND file_id IS NOT NULL FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission files: %w", err)
	}
	fileIDs := []string{}
	for rows.Next() {
		var fileID string
		if err := rows.Scan(&fileID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan file id: %w", err)
		}
		fileIDs = append(fileIDs, fileID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission files: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete assignment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, notFound("assignment %d not found", id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit assignment deletion: %w", err)
	}
	return fileIDs, nil
}

// SaveSubmission creates the submission of a learner or replaces the ungraded one
//
// The row keeps its ID across replacements. Grading fields are reset.
func (r *assignmentRepository) SaveSubmission(ctx context.Context, s *models.AssignmentSubmission) error {
	query := `
		INSERT INTO assignment_submissions (assignment_id, user_id, content, file_id, file_type, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			id = LAST_INSERT_ID(id),
			content = VALUES(content),
			file_id = VALUES(file_id),
			file_type = VALUES(file_type),
			submitted_at = VALUES(submitted_at),
			score = NULL,
			feedback = '',
			graded_at = NULL
	`

	result, err := r.db.ExecContext(ctx, query, s.AssignmentID, s.UserID, s.Content, s.FileID, s.FileType, s.SubmittedAt)
	if err != nil {
		r.logger.Error("failed to save submission", zap.Error(err), zap.Int("assignment_id", s.AssignmentID))
		return fmt.Errorf("failed to save submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.ID = int(id)
	return nil
}

const submissionQuery = `
	SELECT s.id, s.assignment_id, s.user_id, u.name, s.content, s.file_id, s.file_type,
		s.score, s.feedback, s.submitted_at, s.graded_at
	FROM assignment_submissions s
	JOIN users u ON u.id = s.user_id
`

// GetSubmission retrieves a submission with the name of its author
func (r *assignmentRepository) GetSubmission(ctx context.Context, id int) (*models.AssignmentSubmission, error) {
	s, err := scanSubmission(r.db.QueryRowContext(ctx, submissionQuery+` WHERE s.id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("submission %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListSubmissions returns the submissions of an assignment, ungraded first
func (r *assignmentRepository) ListSubmissions(ctx context.Context, assignmentID int) ([]models.AssignmentSubmission, error) {
	rows, err := r.db.QueryContext(ctx,
		submissionQuery+` WHERE s.assignment_id = ? ORDER BY s.graded_at IS NOT NULL, s.submitted_at`, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	submissions := []models.AssignmentSubmission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return submissions, nil
}

// Grade scores a submission
func (r *assignmentRepository) Grade(ctx context.Context, id, score int, feedback string) error {
	query := `
		UPDATE assignment_submissions
		SET score = ?, feedback = ?, graded_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, score, feedback, id)
	if err != nil {
		return fmt.Errorf("failed to grade submission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("submission %d not found", id)
	}
	return nil
}

func scanAssignment(s scanner, userID int) (*models.Assignment, error) {
	var (
		a           models.Assignment
		dueDate     sql.NullTime
		subID       sql.NullInt64
		content     sql.NullString
		fileID      sql.NullString
		fileType    sql.NullString
		score       sql.NullInt64
		feedback    sql.NullString
		submittedAt sql.NullTime
		gradedAt    sql.NullTime
	)
	err := s.Scan(
		&a.ID, &a.CourseID, &a.Title, &a.Description, &dueDate, &a.MaxScore,
		&subID, &content, &fileID, &fileType, &score, &feedback, &submittedAt, &gradedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	if dueDate.Valid {
		a.DueDate = &dueDate.Time
	}
	if subID.Valid {
		a.Submitted = true
		a.Submission = &models.AssignmentSubmission{
			ID:           int(subID.Int64),
			AssignmentID: a.ID,
			UserID:       userID,
			Content:      content.String,
			FileType:     fileType.String,
			Feedback:     feedback.String,
			SubmittedAt:  submittedAt.Time,
		}
		fillSubmission(a.Submission, fileID, score, gradedAt)
	}
	return &a, nil
}

func scanSubmission(s scanner) (*models.AssignmentSubmission, error) {
	var (
		sub      models.AssignmentSubmission
		fileID   sql.NullString
		score    sql.NullInt64
		gradedAt sql.NullTime
	)
	err := s.Scan(
		&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.UserName, &sub.Content, &fileID, &sub.FileType,
		&score, &sub.Feedback, &sub.SubmittedAt, &gradedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan submission: %w", err)
	}
	fillSubmission(&sub, fileID, score, gradedAt)
	return &sub, nil
}

func fillSubmission(sub *models.AssignmentSubmission, fileID sql.NullString, score sql.NullInt64, gradedAt sql.NullTime) {
	if fileID.Valid {
		sub.FileID = &fileID.String
		sub.HasFile = true
	}
	if score.Valid {
		v := int(score.Int64)
		sub.Score = &v
	}
	if gradedAt.Valid {
		sub.GradedAt = &gradedAt.Time
	}
}
