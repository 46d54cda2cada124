package learner

import (
	"context"
	"fmt"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/lmsclient"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// CourseworkAPI is the part of the platform API used for quizzes and assignments
//
// Implemented by *lmsclient.Client.
type CourseworkAPI interface {
	Quizzes(ctx context.Context, courseID int) ([]models.Quiz, error)
	Quiz(ctx context.Context, courseID, quizID int) (*models.QuizDetail, error)
	SubmitQuiz(ctx context.Context, courseID, quizID int, answers []models.QuizAnswer) (*models.QuizResult, error)
	Assignments(ctx context.Context, courseID int) ([]models.Assignment, error)
	SubmitAssignment(ctx context.Context, courseID, assignmentID int, content string, file *lmsclient.SubmissionUpload) (*models.AssignmentSubmission, error)
}

// Coursework gives access to the quizzes and assignments of approved courses
//
// Like the progress tracker it consults the cached enrollment status first and
// answers ACCESS_DENIED without a request when the course is not approved.
type Coursework struct {
	api    CourseworkAPI
	store  *Store
	logger *zap.Logger
}

// NewCoursework creates coursework access sharing store with the enrollment machine
func NewCoursework(api CourseworkAPI, store *Store, logger *zap.Logger) *Coursework {
	return &Coursework{api: api, store: store, logger: logger}
}

// Quizzes lists the quizzes of a course
func (c *Coursework) Quizzes(ctx context.Context, courseID int) ([]models.Quiz, error) {
	if err := requireApproved(c.store.course(courseID)); err != nil {
		return nil, err
	}
	return c.api.Quizzes(ctx, courseID)
}

// Quiz returns a quiz with its questions
func (c *Coursework) Quiz(ctx context.Context, courseID, quizID int) (*models.QuizDetail, error) {
	if err := requireApproved(c.store.course(courseID)); err != nil {
		return nil, err
	}
	return c.api.Quiz(ctx, courseID, quizID)
}

// SubmitQuiz sends one answer per question of quiz.
//
// answers maps question IDs to the selected option. A question left out or an
// option out of range is a VALIDATION_ERROR and nothing is sent.
func (c *Coursework) SubmitQuiz(ctx context.Context, quiz *models.QuizDetail, answers map[int]int) (*models.QuizResult, error) {
	if err := requireApproved(c.store.course(quiz.CourseID)); err != nil {
		return nil, err
	}

	list := make([]models.QuizAnswer, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		selected, ok := answers[q.ID]
		if !ok {
			return nil, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("question %d is not answered", q.ID))
		}
		if selected < 0 || selected >= len(q.Options) {
			return nil, apperrors.Clone(apperrors.ErrValidation,
				fmt.Sprintf("option %d of question %d does not exist", selected, q.ID))
		}
		list = append(list, models.QuizAnswer{QuestionID: q.ID, SelectedOption: selected})
	}

	result, err := c.api.SubmitQuiz(ctx, quiz.CourseID, quiz.ID, list)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("quiz submitted",
		zap.Int("course_id", quiz.CourseID),
		zap.Int("quiz_id", quiz.ID),
		zap.Int("score", result.Score),
	)
	return result, nil
}

// Assignments lists the assignments of a course
func (c *Coursework) Assignments(ctx context.Context, courseID int) ([]models.Assignment, error) {
	if err := requireApproved(c.store.course(courseID)); err != nil {
		return nil, err
	}
	return c.api.Assignments(ctx, courseID)
}

// SubmitAssignment hands in content and an optional file
func (c *Coursework) SubmitAssignment(ctx context.Context, courseID, assignmentID int, content string, file *lmsclient.SubmissionUpload) (*models.AssignmentSubmission, error) {
	if err := requireApproved(c.store.course(courseID)); err != nil {
		return nil, err
	}
	if content == "" && file == nil {
		return nil, apperrors.Clone(apperrors.ErrValidation, "content or file is required")
	}
	return c.api.SubmitAssignment(ctx, courseID, assignmentID, content, file)
}
