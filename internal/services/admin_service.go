package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/enrollment"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// Notifier informs learners about review outcomes
type Notifier interface {
	NotifyEnrollmentDecision(ctx context.Context, d EnrollmentDecision) error
}

// adminService implements the administrator review of payment proofs
type adminService struct {
	enrollmentRepo EnrollmentRepository
	proofRepo      PaymentProofRepository
	courseRepo     CourseReader
	userRepo       UserReader
	storage        FileStorage
	notifier       Notifier
	logger         *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	enrollmentRepo EnrollmentRepository,
	proofRepo PaymentProofRepository,
	courseRepo CourseReader,
	userRepo UserReader,
	storage FileStorage,
	notifier Notifier,
	logger *zap.Logger,
) *adminService {
	return &adminService{
		enrollmentRepo: enrollmentRepo,
		proofRepo:      proofRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		storage:        storage,
		notifier:       notifier,
		logger:         logger,
	}
}

// ReviewQueue lists enrollments by status; an empty status means pending
func (s *adminService) ReviewQueue(ctx context.Context, status string) ([]models.EnrollmentReviewItem, error) {
	st := models.EnrollmentStatus(strings.TrimSpace(status))
	if st == "" {
		st = models.EnrollmentStatusPending
	}
	if !st.Valid() || st == models.EnrollmentStatusNotEnrolled {
		return nil, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("unknown enrollment status %q", status))
	}
	return s.enrollmentRepo.ListByStatus(ctx, st)
}

// Approve grants access to the course of a pending enrollment
func (s *adminService) Approve(ctx context.Context, enrollmentID int, req *models.ReviewRequest) (models.EnrollmentRecord, error) {
	return s.decide(ctx, enrollmentID, models.EnrollmentStatusApproved, req)
}

// Reject closes a pending enrollment without access
func (s *adminService) Reject(ctx context.Context, enrollmentID int, req *models.ReviewRequest) (models.EnrollmentRecord, error) {
	return s.decide(ctx, enrollmentID, models.EnrollmentStatusRejected, req)
}

func (s *adminService) decide(ctx context.Context, enrollmentID int, to models.EnrollmentStatus, req *models.ReviewRequest) (models.EnrollmentRecord, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := validateRequest(req); err != nil {
		return models.EnrollmentRecord{}, err
	}

	e, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	if err := enrollment.Transition(e.Status, to); err != nil {
		return models.EnrollmentRecord{}, err
	}
	if err := s.enrollmentRepo.UpdateStatus(ctx, e.ID, e.Status, to, req.Message); err != nil {
		return models.EnrollmentRecord{}, err
	}

	e.Status = to
	e.Message = req.Message
	s.logger.Info("enrollment reviewed",
		zap.Int("enrollment_id", e.ID),
		zap.Int("user_id", e.UserID),
		zap.String("status", string(to)),
	)

	s.notify(ctx, e)
	return e.Record(), nil
}

// notify sends the decision email; failures are logged and do not undo the decision
func (s *adminService) notify(ctx context.Context, e *models.Enrollment) {
	user, err := s.userRepo.GetByID(ctx, e.UserID)
	if err != nil {
		s.logger.Warn("failed to load learner for notification", zap.Int("user_id", e.UserID), zap.Error(err))
		return
	}
	course, err := s.courseRepo.GetByID(ctx, e.CourseID)
	if err != nil {
		s.logger.Warn("failed to load course for notification", zap.Int("course_id", e.CourseID), zap.Error(err))
		return
	}

	err = s.notifier.NotifyEnrollmentDecision(ctx, EnrollmentDecision{
		Email:       user.Email,
		Name:        user.Name,
		CourseTitle: course.Title,
		Status:      e.Status,
		Message:     e.Message,
	})
	if err != nil {
		s.logger.Warn("failed to send enrollment notification", zap.Int("enrollment_id", e.ID), zap.Error(err))
	}
}

// PaymentProof opens the stored proof of an enrollment
// The caller must close the returned file
func (s *adminService) PaymentProof(ctx context.Context, enrollmentID int) (*os.File, *models.PaymentProof, error) {
	e, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if e.ProofID == nil {
		return nil, nil, apperrors.Clone(apperrors.ErrNotFound, "enrollment has no payment proof")
	}

	meta, err := s.proofRepo.GetByID(ctx, *e.ProofID)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.storage.Open(meta.ID)
	if os.IsNotExist(err) {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, "payment proof file is missing")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open payment proof: %w", err)
	}
	return f, meta, nil
}
