package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// videoRepository implements services.VideoRepository
type videoRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(db *sql.DB, logger *zap.Logger) *videoRepository {
	return &videoRepository{
		db:     db,
		logger: logger,
	}
}

// ListByCourse returns the videos of a course in curriculum order with the completion state of the user
func (r *videoRepository) ListByCourse(ctx context.Context, courseID, userID int) ([]models.Video, error) {
	query := `
		SELECT v.id, v.course_id, v.title, v.duration, v.url, v.position,
			COALESCE(vc.completed, 0), COALESCE(vc.checkpoint, 0)
		FROM videos v
		LEFT JOIN video_completions vc ON vc.video_id = v.id AND vc.user_id = ?
		WHERE v.course_id = ?
		ORDER BY v.position, v.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, courseID)
	if err != nil {
		r.logger.Error("failed to list videos", zap.Error(err), zap.Int("course_id", courseID))
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(
			&v.ID,
			&v.CourseID,
			&v.Title,
			&v.Duration,
			&v.URL,
			&v.Position,
			&v.Completed,
			&v.Checkpoint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}
	return videos, nil
}

// GetByID retrieves a video with the completion state of the user
func (r *videoRepository) GetByID(ctx context.Context, id, userID int) (*models.Video, error) {
	query := `
		SELECT v.id, v.course_id, v.title, v.duration, v.url, v.position,
			COALESCE(vc.completed, 0), COALESCE(vc.checkpoint, 0)
		FROM videos v
		LEFT JOIN video_completions vc ON vc.video_id = v.id AND vc.user_id = ?
		WHERE v.id = ?
		LIMIT 1
	`

	v := &models.Video{}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(
		&v.ID,
		&v.CourseID,
		&v.Title,
		&v.Duration,
		&v.URL,
		&v.Position,
		&v.Completed,
		&v.Checkpoint,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("video %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// Create inserts a new video and sets its ID
func (r *videoRepository) Create(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (course_id, title, duration, url, position)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, v.CourseID, v.Title, v.Duration, v.URL, v.Position)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	v.ID = int(id)
	return nil
}

// MarkCompleted records the video as completed for the user
// Repeated calls leave the row unchanged and completion never reverts
func (r *videoRepository) MarkCompleted(ctx context.Context, userID, videoID int) error {
	query := `
		INSERT INTO video_completions (user_id, video_id, completed)
		VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE completed = 1
	`

	if _, err := r.db.ExecContext(ctx, query, userID, videoID); err != nil {
		r.logger.Error("failed to mark video completed", zap.Error(err), zap.Int("video_id", videoID))
		return fmt.Errorf("failed to mark video completed: %w", err)
	}
	return nil
}

// SaveCheckpoint stores the resume position of the user in a video without touching completion
func (r *videoRepository) SaveCheckpoint(ctx context.Context, userID, videoID, checkpoint int) error {
	query := `
		INSERT INTO video_completions (user_id, video_id, checkpoint)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE checkpoint = VALUES(checkpoint)
	`

	if _, err := r.db.ExecContext(ctx, query, userID, videoID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// ReplaceCurriculum makes the listed videos the whole curriculum of a course in one transaction
//
// Entries with an ID are updated in place so learner completions survive, entries without
// one are inserted and videos left out are deleted. Positions follow list order starting at 1.
// An ID that is not a video of the course is an INVALID_REFERENCE and nothing changes.
func (r *videoRepository) ReplaceCurriculum(ctx context.Context, courseID int, entries []models.CurriculumVideo) ([]models.Video, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := courseVideoIDs(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(entries))
	kept := make([]any, 0, len(entries))
	for i, entry := range entries {
		v := models.Video{
			ID:       entry.ID,
			CourseID: courseID,
			Title:    entry.Title,
			Duration: entry.Duration,
			URL:      entry.URL,
			Position: i + 1,
		}

		if v.ID != 0 {
			if !existing[v.ID] {
				return nil, apperrors.Clone(apperrors.ErrInvalidReference,
					fmt.Sprintf("video %d does not belong to course %d", v.ID, courseID))
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE videos SET title = ?, duration = ?, url = ?, position = ? WHERE id = ?`,
				v.Title, v.Duration, v.URL, v.Position, v.ID); err != nil {
				return nil, fmt.Errorf("failed to update video: %w", err)
			}
		} else {
			result, err := tx.ExecContext(ctx,
				`INSERT INTO videos (course_id, title, duration, url, position) VALUES (?, ?, ?, ?, ?)`,
				courseID, v.Title, v.Duration, v.URL, v.Position)
			if err != nil {
				return nil, fmt.Errorf("failed to create video: %w", err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("failed to get last insert id: %w", err)
			}
			v.ID = int(id)
		}
		kept = append(kept, v.ID)
		videos = append(videos, v)
	}

	deleteQuery := `DELETE FROM videos WHERE course_id = ?`
	args := []any{courseID}
	if len(kept) > 0 {
		deleteQuery += ` AND id NOT IN (?` + strings.Repeat(`, ?`, len(kept)-1) + `)`
		args = append(args, kept...)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to delete removed videos: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit curriculum", zap.Error(err), zap.Int("course_id", courseID))
		return nil, fmt.Errorf("failed to commit curriculum: %w", err)
	}
	return videos, nil
}

func courseVideoIDs(ctx context.Context, tx *sql.Tx, courseID int) (map[int]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM videos WHERE course_id = ? FOR UPDATE`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock course videos: %w", err)
	}
	defer rows.Close()

	ids := map[int]bool{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
