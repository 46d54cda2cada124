package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/progress"
	"go.uber.org/zap"
)

// QuizRepository is the interface that wraps methods for quizzes, quiz_questions and quiz_submissions tables data access
type QuizRepository interface {
	// Method ListByCourse returns the quizzes of "courseID" with the best score of "userID".
	ListByCourse(ctx context.Context, courseID, userID int) ([]models.Quiz, error)
	// Method GetDetail retrieves a quiz with its questions, correct options included.
	//
	// If the quiz does not exist, a NOT_FOUND error is returned together with "nil" value.
	GetDetail(ctx context.Context, quizID, userID int) (*models.QuizDetail, error)
	// Method Create inserts a quiz with its questions and sets their IDs.
	Create(ctx context.Context, quiz *models.QuizDetail) error
	// Method Delete removes a quiz together with its questions and submissions, or returns NOT_FOUND.
	Delete(ctx context.Context, quizID int) error
	// Method CreateSubmission stores a scored attempt and sets its ID.
	CreateSubmission(ctx context.Context, s *models.QuizSubmission) error
	// Method GetSubmission retrieves an attempt, or returns NOT_FOUND.
	GetSubmission(ctx context.Context, id int) (*models.QuizSubmission, error)
}

// quizService serves course quizzes to approved learners and lets administrators author them
type quizService struct {
	quizRepo       QuizRepository
	courseRepo     CourseReader
	enrollmentRepo EnrollmentRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewQuizService creates a new quiz service
func NewQuizService(quizRepo QuizRepository, courseRepo CourseReader, enrollmentRepo EnrollmentRepository, logger *zap.Logger) *quizService {
	return &quizService{
		quizRepo:       quizRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// ListQuizzes returns the quizzes of a course with the best score of the learner
func (s *quizService) ListQuizzes(ctx context.Context, userID, courseID int) ([]models.Quiz, error) {
	if err := requireApproved(ctx, s.courseRepo, s.enrollmentRepo, userID, courseID); err != nil {
		return nil, err
	}
	return s.quizRepo.ListByCourse(ctx, courseID, userID)
}

// GetQuiz returns a quiz of the course with its questions, correct options hidden
func (s *quizService) GetQuiz(ctx context.Context, userID, courseID, quizID int) (*models.QuizDetail, error) {
	quiz, err := s.courseQuiz(ctx, userID, courseID, quizID)
	if err != nil {
		return nil, err
	}
	for i := range quiz.Questions {
		quiz.Questions[i].CorrectOption = nil
	}
	return quiz, nil
}

// courseQuiz admits the learner and loads a quiz that belongs to courseID
func (s *quizService) courseQuiz(ctx context.Context, userID, courseID, quizID int) (*models.QuizDetail, error) {
	if err := requireApproved(ctx, s.courseRepo, s.enrollmentRepo, userID, courseID); err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetDetail(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	if quiz.CourseID != courseID {
		return nil, apperrors.Clone(apperrors.ErrNotFound, fmt.Sprintf("quiz %d not found in course %d", quizID, courseID))
	}
	return quiz, nil
}

// SubmitQuiz scores an attempt and stores it
//
// Unanswered questions count as wrong. Attempts are unlimited.
func (s *quizService) SubmitQuiz(ctx context.Context, userID, courseID, quizID int, req *models.SubmitQuizRequest) (*models.QuizResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	quiz, err := s.courseQuiz(ctx, userID, courseID, quizID)
	if err != nil {
		return nil, err
	}

	correct, err := gradeQuiz(quiz, req.Answers)
	if err != nil {
		return nil, err
	}

	total := len(quiz.Questions)
	score := progress.Percentage(correct, total)
	submission := &models.QuizSubmission{
		QuizID:      quiz.ID,
		UserID:      userID,
		Score:       score,
		Correct:     correct,
		Total:       total,
		Passed:      score >= quiz.PassScore,
		Answers:     req.Answers,
		CompletedAt: s.now().UTC(),
	}
	if err := s.quizRepo.CreateSubmission(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("quiz submitted",
		zap.Int("user_id", userID),
		zap.Int("quiz_id", quiz.ID),
		zap.Int("score", score),
		zap.Bool("passed", submission.Passed),
	)
	return &models.QuizResult{QuizSubmission: *submission, Questions: quiz.Questions}, nil
}

// gradeQuiz counts the correct answers of an attempt
func gradeQuiz(quiz *models.QuizDetail, answers []models.QuizAnswer) (int, error) {
	questions := make(map[int]*models.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	answered := make(map[int]bool, len(answers))
	correct := 0
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			return 0, apperrors.Clone(apperrors.ErrInvalidReference,
				fmt.Sprintf("question %d does not belong to quiz %d", a.QuestionID, quiz.ID))
		}
		if answered[a.QuestionID] {
			return 0, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("question %d is answered twice", a.QuestionID))
		}
		if a.SelectedOption >= len(q.Options) {
			return 0, apperrors.Clone(apperrors.ErrValidation,
				fmt.Sprintf("question %d has no option %d", a.QuestionID, a.SelectedOption))
		}
		answered[a.QuestionID] = true
		if q.CorrectOption != nil && *q.CorrectOption == a.SelectedOption {
			correct++
		}
	}
	return correct, nil
}

// QuizResult returns an own attempt with the correct options revealed
func (s *quizService) QuizResult(ctx context.Context, userID, courseID, quizID, submissionID int) (*models.QuizResult, error) {
	quiz, err := s.courseQuiz(ctx, userID, courseID, quizID)
	if err != nil {
		return nil, err
	}
	submission, err := s.quizRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.UserID != userID || submission.QuizID != quiz.ID {
		return nil, apperrors.Clone(apperrors.ErrNotFound, fmt.Sprintf("submission %d not found", submissionID))
	}
	return &models.QuizResult{QuizSubmission: *submission, Questions: quiz.Questions}, nil
}

// CourseQuizzes lists the quizzes of a course for administrators
func (s *quizService) CourseQuizzes(ctx context.Context, courseID int) ([]models.Quiz, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.quizRepo.ListByCourse(ctx, courseID, 0)
}

// CreateQuiz validates and stores a new quiz of a course
func (s *quizService) CreateQuiz(ctx context.Context, courseID int, req *models.CreateQuizRequest) (*models.QuizDetail, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	passScore := req.PassScore
	if passScore == 0 {
		passScore = models.DefaultPassScore
	}
	quiz := &models.QuizDetail{
		Quiz: models.Quiz{
			CourseID:    courseID,
			Title:       req.Title,
			Description: req.Description,
			TimeLimit:   req.TimeLimit,
			PassScore:   passScore,
		},
		Questions: make([]models.QuizQuestion, 0, len(req.Questions)),
	}
	for i, q := range req.Questions {
		if q.CorrectOption >= len(q.Options) {
			return nil, apperrors.Clone(apperrors.ErrValidation,
				fmt.Sprintf("question %d: correct option %d is out of range", i+1, q.CorrectOption))
		}
		correct := q.CorrectOption
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			Text:          strings.TrimSpace(q.Text),
			Options:       q.Options,
			CorrectOption: &correct,
		})
	}

	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, err
	}
	s.logger.Info("quiz created", zap.Int("course_id", courseID), zap.Int("quiz_id", quiz.ID))
	return quiz, nil
}

// DeleteQuiz removes a quiz with its questions and submissions
func (s *quizService) DeleteQuiz(ctx context.Context, quizID int) error {
	if err := s.quizRepo.Delete(ctx, quizID); err != nil {
		return err
	}
	s.logger.Info("quiz deleted", zap.Int("quiz_id", quizID))
	return nil
}
