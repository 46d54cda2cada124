package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var courseColumnNames = []string{"id", "title", "description", "instructor", "duration", "price", "thumbnail"}

// setupCourseTestRepository creates a course repository with a mock database
func setupCourseTestRepository(t *testing.T) (*courseRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewCourseRepository(db, zap.NewNop()), mock, func() { db.Close() }
}

func priceOf(v float64) *float64 { return &v }

func TestCourseRepository_List(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		expected    []models.Course
		expectError bool
	}{
		{
			name: "free and priced courses",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(courseColumnNames).
					AddRow(1, "Go Basics", "Intro", "Rob", "4 weeks", nil, "go.png").
					AddRow(2, "Advanced Go", "Deep dive", "Ken", "6 weeks", 49.5, "adv.png")
				mock.ExpectQuery(`SELECT .+ FROM courses c ORDER BY c.id`).WillReturnRows(rows)
			},
			expected: []models.Course{
				{ID: 1, Title: "Go Basics", Description: "Intro", Instructor: "Rob", Duration: "4 weeks", Thumbnail: "go.png"},
				{ID: 2, Title: "Advanced Go", Description: "Deep dive", Instructor: "Ken", Duration: "6 weeks", Price: priceOf(49.5), Thumbnail: "adv.png"},
			},
		},
		{
			name: "empty catalog",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM courses c`).WillReturnRows(sqlmock.NewRows(courseColumnNames))
			},
			expected: []models.Course{},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM courses c`).WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			courses, err := repo.List(context.Background())

			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, courses)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCourseRepository_GetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupCourseTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM courses c WHERE c.id = \?`).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows(courseColumnNames).AddRow(2, "Advanced Go", "", "Ken", "", 10.0, ""))

		course, err := repo.GetByID(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, 2, course.ID)
		assert.False(t, course.IsFree())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupCourseTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM courses c WHERE c.id = \?`).WithArgs(99).WillReturnError(sql.ErrNoRows)

		course, err := repo.GetByID(context.Background(), 99)
		assert.Nil(t, course)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCourseRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupCourseTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO courses`).
		WithArgs("Go Basics", "Intro", "Rob", "4 weeks", nil, "").
		WillReturnResult(sqlmock.NewResult(11, 1))

	course := &models.Course{Title: "Go Basics", Description: "Intro", Instructor: "Rob", Duration: "4 weeks"}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.Equal(t, 11, course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_ListEnrolled(t *testing.T) {
	repo, mock, cleanup := setupCourseTestRepository(t)
	defer cleanup()

	columns := append(append([]string{}, courseColumnNames...), "completed", "total")
	mock.ExpectQuery(`FROM enrollments e\s+JOIN courses c`).
		WithArgs(5, "approved").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "Go Basics", "", "Rob", "", nil, "", 2, 4).
			AddRow(3, "Empty", "", "Rob", "", nil, "", 0, 0))

	courses, err := repo.ListEnrolled(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, 1, courses[0].ID)
	assert.Equal(t, 2, courses[0].Completed)
	assert.Equal(t, 4, courses[0].Total)
	assert.Equal(t, 0, courses[1].Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_Update(t *testing.T) {
	repo, mock, cleanup := setupCourseTestRepository(t)
	defer cleanup()
	course := &models.Course{ID: 2, Title: "Go", Description: "d", Instructor: "Rob", Duration: "2 weeks", Price: priceOf(10), Thumbnail: "t.png"}

	mock.ExpectExec(`UPDATE courses\s+SET title = \?, description = \?, instructor = \?, duration = \?, price = \?, thumbnail = \?\s+WHERE id = \?`).
		WithArgs("Go", "d", "Rob", "2 weeks", priceOf(10), "t.png", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), course))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_DeleteUnenrolled(t *testing.T) {
	tests := []struct {
		name        string
		result      driver.Result
		err         error
		expected    bool
		expectError bool
	}{
		{name: "deleted", result: sqlmock.NewResult(0, 1), expected: true},
		{name: "has enrollments or unknown", result: sqlmock.NewResult(0, 0), expected: false},
		{name: "database error", err: errors.New("database error"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseTestRepository(t)
			defer cleanup()
			exp := mock.ExpectExec(`DELETE FROM courses\s+WHERE id = \? AND NOT EXISTS \(SELECT 1 FROM enrollments e WHERE e.course_id = \?\)`).
				WithArgs(3, 3)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.result)
			}

			deleted, err := repo.DeleteUnenrolled(context.Background(), 3)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, deleted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
