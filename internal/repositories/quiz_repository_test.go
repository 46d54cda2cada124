package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var quizColumnNames = []string{"id", "course_id", "title", "description", "time_limit", "pass_score", "questions", "best"}

func setupQuizTestRepository(t *testing.T) (*quizRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewQuizRepository(db, zap.NewNop()), mock, func() { db.Close() }
}

func intPtr(v int) *int { return &v }

func TestQuizRepository_ListByCourse(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		expected    []models.Quiz
		expectError bool
	}{
		{
			name: "with and without attempts",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM quizzes q\s+WHERE q.course_id = \?`).
					WithArgs(5, 2).
					WillReturnRows(sqlmock.NewRows(quizColumnNames).
						AddRow(1, 2, "Basics", "", 10, 60, 3, 67).
						AddRow(2, 2, "Advanced", "", 0, 80, 5, nil))
			},
			expected: []models.Quiz{
				{ID: 1, CourseID: 2, Title: "Basics", TimeLimit: 10, PassScore: 60, QuestionCount: 3, Completed: true, Score: intPtr(67)},
				{ID: 2, CourseID: 2, Title: "Advanced", PassScore: 80, QuestionCount: 5},
			},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM quizzes q`).WithArgs(5, 2).WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupQuizTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			quizzes, err := repo.ListByCourse(context.Background(), 2, 5)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, quizzes)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQuizRepository_GetDetail(t *testing.T) {
	t.Run("quiz with questions", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM quizzes q\s+WHERE q.id = \?`).
			WithArgs(5, 1).
			WillReturnRows(sqlmock.NewRows(quizColumnNames).AddRow(1, 2, "Basics", "", 0, 60, 2, nil))
		mock.ExpectQuery(`FROM quiz_questions\s+WHERE quiz_id = \?\s+ORDER BY position, id`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "question_text", "options", "correct_option", "position"}).
				AddRow(10, 1, "2+2?", []byte(`["3","4"]`), 1, 1).
				AddRow(11, 1, "Go?", []byte(`["yes","no"]`), 0, 2))

		detail, err := repo.GetDetail(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, "Basics", detail.Title)
		require.Len(t, detail.Questions, 2)
		assert.Equal(t, []string{"3", "4"}, detail.Questions[0].Options)
		assert.Equal(t, 1, *detail.Questions[0].CorrectOption)
		assert.Equal(t, 0, *detail.Questions[1].CorrectOption)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown quiz", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM quizzes q`).WithArgs(5, 1).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetDetail(context.Background(), 1, 5)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestQuizRepository_Create(t *testing.T) {
	quiz := func() *models.QuizDetail {
		return &models.QuizDetail{
			Quiz: models.Quiz{CourseID: 2, Title: "Basics", PassScore: 60},
			Questions: []models.QuizQuestion{
				{Text: "2+2?", Options: []string{"3", "4"}, CorrectOption: intPtr(1)},
			},
		}
	}

	t.Run("quiz and questions", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO quizzes`).
			WithArgs(2, "Basics", "", 0, 60).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec(`INSERT INTO quiz_questions`).
			WithArgs(7, "2+2?", []byte(`["3","4"]`), 1, 1).
			WillReturnResult(sqlmock.NewResult(30, 1))
		mock.ExpectCommit()

		q := quiz()
		require.NoError(t, repo.Create(context.Background(), q))
		assert.Equal(t, 7, q.ID)
		assert.Equal(t, 30, q.Questions[0].ID)
		assert.Equal(t, 1, q.QuestionCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("question insert fails", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO quizzes`).WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec(`INSERT INTO quiz_questions`).WillReturnError(errors.New("database error"))
		mock.ExpectRollback()

		assert.Error(t, repo.Create(context.Background(), quiz()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuizRepository_Delete(t *testing.T) {
	repo, mock, cleanup := setupQuizTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM quizzes WHERE id = \?`).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM quizzes WHERE id = \?`).WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 7))
	assert.ErrorIs(t, repo.Delete(context.Background(), 8), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepository_Submissions(t *testing.T) {
	completed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	answers := []models.QuizAnswer{{QuestionID: 10, SelectedOption: 1}}

	t.Run("create", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO quiz_submissions`).
			WithArgs(1, 5, 100, 1, 1, true, []byte(`[{"questionId":10,"selectedOption":1}]`), completed).
			WillReturnResult(sqlmock.NewResult(12, 1))

		s := &models.QuizSubmission{QuizID: 1, UserID: 5, Score: 100, Correct: 1, Total: 1, Passed: true, Answers: answers, CompletedAt: completed}
		require.NoError(t, repo.CreateSubmission(context.Background(), s))
		assert.Equal(t, 12, s.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM quiz_submissions\s+WHERE id = \?`).
			WithArgs(12).
			WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "user_id", "score", "correct", "total", "passed", "answers", "completed_at"}).
				AddRow(12, 1, 5, 100, 1, 1, true, []byte(`[{"questionId":10,"selectedOption":1}]`), completed))

		s, err := repo.GetSubmission(context.Background(), 12)
		require.NoError(t, err)
		assert.Equal(t, &models.QuizSubmission{
			ID: 12, QuizID: 1, UserID: 5, Score: 100, Correct: 1, Total: 1, Passed: true, Answers: answers, CompletedAt: completed,
		}, s)
	})

	t.Run("get unknown", func(t *testing.T) {
		repo, mock, cleanup := setupQuizTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM quiz_submissions`).WithArgs(12).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetSubmission(context.Background(), 12)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
