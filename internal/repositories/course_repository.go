package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// courseRepository implements services.CourseRepository
type courseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB, logger *zap.Logger) *courseRepository {
	return &courseRepository{
		db:     db,
		logger: logger,
	}
}

const courseColumns = `c.id, c.title, c.description, c.instructor, c.duration, c.price, c.thumbnail`

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(s scanner, extra ...any) (models.Course, error) {
	var course models.Course
	var price sql.NullFloat64
	dest := append([]any{
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Instructor,
		&course.Duration,
		&price,
		&course.Thumbnail,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return models.Course{}, err
	}
	if price.Valid {
		course.Price = &price.Float64
	}
	return course, nil
}

// List returns the whole catalog ordered by ID
func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c ORDER BY c.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list courses", zap.Error(err))
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}
	return courses, nil
}

// GetByID retrieves a course by ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = ? LIMIT 1`

	course, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("course %d not found", id)
	}
	if err != nil {
		r.logger.Error("failed to get course", zap.Error(err), zap.Int("course_id", id))
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

// Create inserts a new course and sets its ID
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (title, description, instructor, duration, price, thumbnail)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		course.Title, course.Description, course.Instructor, course.Duration, course.Price, course.Thumbnail)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	course.ID = int(id)
	return nil
}

// ListEnrolled returns the courses the user is approved for, with completed and total video counts
func (r *courseRepository) ListEnrolled(ctx context.Context, userID int) ([]models.EnrolledCourse, error) {
	query := `
		SELECT ` + courseColumns + `,
			COUNT(DISTINCT CASE WHEN vc.completed = 1 THEN v.id END) AS completed,
			COUNT(DISTINCT v.id) AS total
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		LEFT JOIN videos v ON v.course_id = c.id
		LEFT JOIN video_completions vc ON vc.video_id = v.id AND vc.user_id = e.user_id
		WHERE e.user_id = ? AND e.status = ?
		GROUP BY c.id, c.title, c.description, c.instructor, c.duration, c.price, c.thumbnail, e.updated_at
		ORDER BY e.updated_at DESC, c.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, models.EnrollmentStatusApproved)
	if err != nil {
		r.logger.Error("failed to list enrolled courses", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	defer rows.Close()

	courses := []models.EnrolledCourse{}
	for rows.Next() {
		var item models.EnrolledCourse
		item.Course, err = scanCourse(rows, &item.Completed, &item.Total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrolled course: %w", err)
		}
		courses = append(courses, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrolled courses: %w", err)
	}
	return courses, nil
}

// Update replaces the editable columns of a course
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET title = ?, description = ?, instructor = ?, duration = ?, price = ?, thumbnail = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		course.Title, course.Description, course.Instructor, course.Duration, course.Price, course.Thumbnail, course.ID)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

// DeleteUnenrolled deletes a course that has no enrollment and reports whether a row was removed
//
// The check and the delete are one statement, so an enrollment created concurrently keeps the course.
func (r *courseRepository) DeleteUnenrolled(ctx context.Context, id int) (bool, error) {
	query := `
		DELETE FROM courses
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = ?)
	`

	result, err := r.db.ExecContext(ctx, query, id, id)
	if err != nil {
		r.logger.Error("failed to delete course", zap.Error(err), zap.Int("course_id", id))
		return false, fmt.Errorf("failed to delete course: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
