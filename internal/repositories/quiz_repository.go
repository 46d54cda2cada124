package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// quizRepository implements services.QuizRepository
type quizRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *sql.DB, logger *zap.Logger) *quizRepository {
	return &quizRepository{
		db:     db,
		logger: logger,
	}
}

// ListByCourse returns the quizzes of a course with the best score of the user
func (r *quizRepository) ListByCourse(ctx context.Context, courseID, userID int) ([]models.Quiz, error) {
	query := `
		SELECT q.id, q.course_id, q.title, q.description, q.time_limit, q.pass_score,
			(SELECT COUNT(*) FROM quiz_questions qq WHERE qq.quiz_id = q.id),
			(SELECT MAX(s.score) FROM quiz_submissions s WHERE s.quiz_id = q.id AND s.user_id = ?)
		FROM quizzes q
		WHERE q.course_id = ?
		ORDER BY q.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, courseID)
	if err != nil {
		r.logger.Error("failed to list quizzes", zap.Error(err), zap.Int("course_id", courseID))
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quizzes: %w", err)
	}
	return quizzes, nil
}

// GetDetail retrieves a quiz with its questions, correct options included
func (r *quizRepository) GetDetail(ctx context.Context, quizID, userID int) (*models.QuizDetail, error) {
	query := `
		SELECT q.id, q.course_id, q.title, q.description, q.time_limit, q.pass_score,
			(SELECT COUNT(*) FROM quiz_questions qq WHERE qq.quiz_id = q.id),
			(SELECT MAX(s.score) FROM quiz_submissions s WHERE s.quiz_id = q.id AND s.user_id = ?)
		FROM quizzes q
		WHERE q.id = ?
		LIMIT 1
	`

	q, err := scanQuiz(r.db.QueryRowContext(ctx, query, userID, quizID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("quiz %d not found", quizID)
	}
	if err != nil {
		return nil, err
	}

	questions, err := r.listQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return &models.QuizDetail{Quiz: *q, Questions: questions}, nil
}

func (r *quizRepository) listQuestions(ctx context.Context, quizID int) ([]models.QuizQuestion, error) {
	query := `
		SELECT id, quiz_id, question_text, options, correct_option, position
		FROM quiz_questions
		WHERE quiz_id = ?
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz questions: %w", err)
	}
	defer rows.Close()

	questions := []models.QuizQuestion{}
	for rows.Next() {
		var (
			q       models.QuizQuestion
			options []byte
			correct int
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &options, &correct, &q.Position); err != nil {
			return nil, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options of question %d: %w", q.ID, err)
		}
		q.CorrectOption = &correct
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quiz questions: %w", err)
	}
	return questions, nil
}

// Create inserts a quiz and its questions in one transaction and sets their IDs
func (r *quizRepository) Create(ctx context.Context, quiz *models.QuizDetail) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO quizzes (course_id, title, description, time_limit, pass_score) VALUES (?, ?, ?, ?, ?)`,
		quiz.CourseID, quiz.Title, quiz.Description, quiz.TimeLimit, quiz.PassScore)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	quiz.ID = int(id)

	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		q.QuizID = quiz.ID
		q.Position = i + 1

		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to encode options: %w", err)
		}
		var correct int
		if q.CorrectOption != nil {
			correct = *q.CorrectOption
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_questions (quiz_id, question_text, options, correct_option, position) VALUES (?, ?, ?, ?, ?)`,
			q.QuizID, q.Text, options, correct, q.Position)
		if err != nil {
			return fmt.Errorf("failed to create quiz question: %w", err)
		}
		qid, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		q.ID = int(qid)
	}
	quiz.QuestionCount = len(quiz.Questions)

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit quiz", zap.Error(err), zap.Int("course_id", quiz.CourseID))
		return fmt.Errorf("failed to commit quiz: %w", err)
	}
	return nil
}

// Delete removes a quiz, its questions and submissions cascade
func (r *quizRepository) Delete(ctx context.Context, quizID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, quizID)
	if err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound("quiz %d not found", quizID)
	}
	return nil
}

// CreateSubmission stores a scored attempt and sets its ID
func (r *quizRepository) CreateSubmission(ctx context.Context, s *models.QuizSubmission) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		INSERT INTO quiz_submissions (quiz_id, user_id, score, correct, total, passed, answers, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		s.QuizID, s.UserID, s.Score, s.Correct, s.Total, s.Passed, answers, s.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to create quiz submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.ID = int(id)
	return nil
}

// GetSubmission retrieves a quiz attempt
func (r *quizRepository) GetSubmission(ctx context.Context, id int) (*models.QuizSubmission, error) {
	query := `
		SELECT id, quiz_id, user_id, score, correct, total, passed, answers, completed_at
		FROM quiz_submissions
		WHERE id = ?
		LIMIT 1
	`

	var (
		s       models.QuizSubmission
		answers []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.QuizID,
		&s.UserID,
		&s.Score,
		&s.Correct,
		&s.Total,
		&s.Passed,
		&answers,
		&s.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("submission %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz submission: %w", err)
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers of submission %d: %w", id, err)
	}
	return &s, nil
}

func scanQuiz(s scanner) (*models.Quiz, error) {
	var (
		q    models.Quiz
		best sql.NullInt64
	)
	err := s.Scan(&q.ID, &q.CourseID, &q.Title, &q.Description, &q.TimeLimit, &q.PassScore, &q.QuestionCount, &best)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan quiz: %w", err)
	}
	if best.Valid {
		score := int(best.Int64)
		q.Score = &score
		q.Completed = true
	}
	return &q, nil
}
