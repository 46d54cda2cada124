package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/storage"
	"go.uber.org/zap"
)

// AssignmentRepository is the interface that wraps methods for assignments and assignment_submissions tables data access
type AssignmentRepository interface {
	// Method ListByCourse returns the assignments of "courseID" with the submission of "userID".
	ListByCourse(ctx context.Context, courseID, userID int) ([]models.Assignment, error)
	// Method GetByID retrieves an assignment with the submission of "userID", or returns NOT_FOUND.
	GetByID(ctx context.Context, id, userID int) (*models.Assignment, error)
	// Method Create inserts a new assignment and sets its ID.
	Create(ctx context.Context, a *models.Assignment) error
	// Method Delete removes an assignment with its submissions and returns their stored file IDs.
	Delete(ctx context.Context, id int) ([]string, error)
	// Method SaveSubmission creates or replaces the submission of a learner and sets its ID.
	SaveSubmission(ctx context.Context, s *models.AssignmentSubmission) error
	// Method GetSubmission retrieves a submission, or returns NOT_FOUND.
	GetSubmission(ctx context.Context, id int) (*models.AssignmentSubmission, error)
	// Method ListSubmissions returns the submissions of an assignment.
	ListSubmissions(ctx context.Context, assignmentID int) ([]models.AssignmentSubmission, error)
	// Method Grade scores a submission, or returns NOT_FOUND.
	Grade(ctx context.Context, id, score int, feedback string) error
}

// assignmentService handles course assignments, learner submissions and grading
type assignmentService struct {
	assignmentRepo AssignmentRepository
	courseRepo     CourseReader
	enrollmentRepo EnrollmentRepository
	files          FileStorage
	logger         *zap.Logger
	now            func() time.Time
}

// NewAssignmentService creates a new assignment service; files is the storage for submitted files
func NewAssignmentService(
	assignmentRepo AssignmentRepository,
	courseRepo CourseReader,
	enrollmentRepo EnrollmentRepository,
	files FileStorage,
	logger *zap.Logger,
) *assignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		files:          files,
		logger:         logger,
		now:            time.Now,
	}
}

// ListAssignments returns the assignments of a course with the submission of the learner
func (s *assignmentService) ListAssignments(ctx context.Context, userID, courseID int) ([]models.Assignment, error) {
	if err := requireApproved(ctx, s.courseRepo, s.enrollmentRepo, userID, courseID); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListByCourse(ctx, courseID, userID)
}

// GetAssignment returns an assignment of the course with the submission of the learner
func (s *assignmentService) GetAssignment(ctx context.Context, userID, courseID, assignmentID int) (*models.Assignment, error) {
	if err := requireApproved(ctx, s.courseRepo, s.enrollmentRepo, userID, courseID); err != nil {
		return nil, err
	}
	a, err := s.assignmentRepo.GetByID(ctx, assignmentID, userID)
	if err != nil {
		return nil, err
	}
	if a.CourseID != courseID {
		return nil, apperrors.Clone(apperrors.ErrNotFound, fmt.Sprintf("assignment %d not found in course %d", assignmentID, courseID))
	}
	return a, nil
}

// SubmitAssignment stores the work of a learner; file may be nil
//
// Content or a file is required. A submission after the due date, or after the
// previous one was graded, is a CONFLICT. An ungraded submission is replaced
// together with its file.
func (s *assignmentService) SubmitAssignment(ctx context.Context, userID, courseID, assignmentID int, req *models.SubmitAssignmentRequest, file io.Reader) (*models.AssignmentSubmission, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Content == "" && file == nil {
		return nil, apperrors.Clone(apperrors.ErrValidation, "content or file is required")
	}

	a, err := s.GetAssignment(ctx, userID, courseID, assignmentID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if a.DueDate != nil && now.After(*a.DueDate) {
		return nil, apperrors.Clone(apperrors.ErrConflict, "the due date of the assignment has passed")
	}
	if a.Submission != nil && a.Submission.Graded() {
		return nil, apperrors.Clone(apperrors.ErrConflict, "the submission has already been graded")
	}

	submission := &models.AssignmentSubmission{
		AssignmentID: a.ID,
		UserID:       userID,
		Content:      req.Content,
		SubmittedAt:  now,
	}
	if file != nil {
		fileType, payload, err := storage.Sniff(file, storage.ImageTypes, storage.DocumentTypes, storage.ArchiveTypes)
		if err != nil {
			return nil, uploadError("submission file", "an image, a PDF or Word document, plain text or a zip archive", err)
		}
		name := storage.GenerateFileName(fileType.Extension)
		if _, err := s.files.Save(name, payload); err != nil {
			s.logger.Error("failed to store submission file", zap.Error(err), zap.Int("user_id", userID))
			return nil, err
		}
		submission.FileID = &name
		submission.HasFile = true
		submission.FileType = fileType.ContentType
	}

	if err := s.assignmentRepo.SaveSubmission(ctx, submission); err != nil {
		if submission.FileID != nil {
			s.removeFile(*submission.FileID)
		}
		return nil, err
	}
	if a.Submission != nil && a.Submission.FileID != nil {
		s.removeFile(*a.Submission.FileID)
	}

	s.logger.Info("assignment submitted",
		zap.Int("user_id", userID),
		zap.Int("assignment_id", a.ID),
		zap.Bool("resubmission", a.Submission != nil),
		zap.Bool("file", submission.HasFile),
	)
	return submission, nil
}

// CreateAssignment validates and stores a new assignment of a course
func (s *assignmentService) CreateAssignment(ctx context.Context, courseID int, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	maxScore := req.MaxScore
	if maxScore == 0 {
		maxScore = models.DefaultMaxScore
	}
	a := &models.Assignment{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxScore:    maxScore,
	}
	if err := s.assignmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("assignment created", zap.Int("course_id", courseID), zap.Int("assignment_id", a.ID))
	return a, nil
}

// DeleteAssignment removes an assignment and the files of its submissions
func (s *assignmentService) DeleteAssignment(ctx context.Context, assignmentID int) error {
	files, err := s.assignmentRepo.Delete(ctx, assignmentID)
	if err != nil {
		return err
	}
	for _, name := range files {
		s.removeFile(name)
	}
	s.logger.Info("assignment deleted", zap.Int("assignment_id", assignmentID), zap.Int("files", len(files)))
	return nil
}

// Submissions lists the submissions of an assignment for grading
func (s *assignmentService) Submissions(ctx context.Context, assignmentID int) ([]models.AssignmentSubmission, error) {
	if _, err := s.assignmentRepo.GetByID(ctx, assignmentID, 0); err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListSubmissions(ctx, assignmentID)
}

// GradeSubmission scores a submission within the maximum score of its assignment
func (s *assignmentService) GradeSubmission(ctx context.Context, submissionID int, req *models.GradeRequest) (*models.AssignmentSubmission, error) {
	req.Feedback = strings.TrimSpace(req.Feedback)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	submission, err := s.assignmentRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	a, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID, 0)
	if err != nil {
		return nil, err
	}
	if req.Score > a.MaxScore {
		return nil, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("score must be between 0 and %d", a.MaxScore))
	}

	if err := s.assignmentRepo.Grade(ctx, submissionID, req.Score, req.Feedback); err != nil {
		return nil, err
	}
	s.logger.Info("submission graded", zap.Int("submission_id", submissionID), zap.Int("score", req.Score))
	return s.assignmentRepo.GetSubmission(ctx, submissionID)
}

// SubmissionFile opens the file of a submission. The caller must close the file.
func (s *assignmentService) SubmissionFile(ctx context.Context, submissionID int) (*os.File, *models.AssignmentSubmission, error) {
	submission, err := s.assignmentRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	if submission.FileID == nil {
		return nil, nil, apperrors.Clone(apperrors.ErrNotFound, "submission has no file")
	}
	f, err := s.files.Open(*submission.FileID)
	if os.IsNotExist(err) {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, "submission file is missing")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open submission file: %w", err)
	}
	return f, submission, nil
}

func (s *assignmentService) removeFile(name string) {
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("failed to remove submission file", zap.String("file", name), zap.Error(err))
	}
}
