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

// userRepository implements services.UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user and sets its ID
// A duplicate email yields a CONFLICT error
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.Role)
	if isDuplicateEntry(err) {
		return apperrors.Clone(apperrors.ErrConflict, "email is already registered")
	}
	if err != nil {
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

const userColumns = `id, name, email, password_hash, role, created_at`

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
	return r.getOne(ctx, query, email)
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user not found")
	}
	if err != nil {
		r.logger.Error("failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetProfile retrieves the profile columns of a user
func (r *userRepository) GetProfile(ctx context.Context, id int) (*models.Profile, error) {
	query := `
		SELECT id, name, email, bio, phone, address, avatar, created_at
		FROM users
		WHERE id = ?
		LIMIT 1
	`

	p := &models.Profile{}
	var avatar sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Bio,
		&p.Phone,
		&p.Address,
		&avatar,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.Avatar = avatar.String
	p.HasAvatar = avatar.Valid && avatar.String != ""
	return p, nil
}

// UpdateProfile replaces the editable profile columns of a user
// A duplicate email yields a CONFLICT error
func (r *userRepository) UpdateProfile(ctx context.Context, id int, req *models.UpdateProfileRequest) error {
	query := `
		UPDATE users
		SET name = ?, email = ?, bio = ?, phone = ?, address = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, req.Name, req.Email, req.Bio, req.Phone, req.Address, id)
	if isDuplicateEntry(err) {
		return apperrors.Clone(apperrors.ErrConflict, "email is already registered")
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// SetAvatar records the stored avatar file name of a user
func (r *userRepository) SetAvatar(ctx context.Context, id int, avatar string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE id = ?`, avatar, id); err != nil {
		return fmt.Errorf("failed to set avatar: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash of a user
func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("user not found")
	}
	return nil
}

// ListStudents returns every student with approved and pending enrollment counts, newest first
func (r *userRepository) ListStudents(ctx context.Context) ([]models.StudentSummary, error) {
	query := `
		SELECT u.id, u.name, u.email, u.created_at,
			COUNT(CASE WHEN e.status = 'approved' THEN 1 END) AS approved,
			COUNT(CASE WHEN e.status = 'pending' THEN 1 END) AS pending
		FROM users u
		LEFT JOIN enrollments e ON e.user_id = u.id
		WHERE u.role = ?
		GROUP BY u.id, u.name, u.email, u.created_at
		ORDER BY u.created_at DESC, u.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, models.RoleStudent)
	if err != nil {
		r.logger.Error("failed to list students", zap.Error(err))
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := []models.StudentSummary{}
	for rows.Next() {
		var s models.StudentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt, &s.ApprovedEnrollments, &s.PendingEnrollments); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}
	return students, nil
}
