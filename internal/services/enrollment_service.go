package services

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/enrollment"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/storage"
	"go.uber.org/zap"
)

// EnrollmentRepository is the interface that wraps methods for enrollments table data access
type EnrollmentRepository interface {
	// Method GetByUserAndCourse retrieves the enrollment of "userID" in "courseID".
	//
	// A missing row is reported with a NOT_FOUND error and means the user is not enrolled.
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error)
	// Method GetByID retrieves an enrollment by ID.
	GetByID(ctx context.Context, id int) (*models.Enrollment, error)
	// Method Create records the first transition out of not_enrolled and sets the enrollment ID.
	//
	// A second enrollment of the same user in the same course is rejected with INVALID_STATE_TRANSITION.
	Create(ctx context.Context, e *models.Enrollment) error
	// Method UpdateStatus moves enrollment "id" from status "from" to status "to".
	//
	// If the row is no longer in status "from", nothing changes and INVALID_STATE_TRANSITION is returned.
	UpdateStatus(ctx context.Context, id int, from, to models.EnrollmentStatus, message string) error
	// Method ListByStatus returns the review queue for a status.
	ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentReviewItem, error)
}

// CourseReader reads catalog courses
type CourseReader interface {
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// PaymentProofRepository is the interface that wraps methods for payment_proofs table data access
type PaymentProofRepository interface {
	Create(ctx context.Context, p *models.PaymentProof) error
	GetByID(ctx context.Context, id string) (*models.PaymentProof, error)
	// Method Delete removes the metadata row of a proof whose enrollment could not be created.
	Delete(ctx context.Context, id string) error
}

// FileStorage stores uploaded files (payment proofs, avatars, assignment files)
//
// Implemented by storage.LocalStorage.
type FileStorage interface {
	Save(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// enrollmentService owns the learner side of the enrollment state machine
type enrollmentService struct {
	enrollmentRepo EnrollmentRepository
	courseRepo     CourseReader
	proofRepo      PaymentProofRepository
	storage        FileStorage
	logger         *zap.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	enrollmentRepo EnrollmentRepository,
	courseRepo CourseReader,
	proofRepo PaymentProofRepository,
	storage FileStorage,
	logger *zap.Logger,
) *enrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		proofRepo:      proofRepo,
		storage:        storage,
		logger:         logger,
	}
}

// currentStatus returns the enrollment status of a user, not_enrolled when there is no row
func currentStatus(ctx context.Context, repo EnrollmentRepository, userID, courseID int) (models.EnrollmentRecord, error) {
	e, err := repo.GetByUserAndCourse(ctx, userID, courseID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.EnrollmentRecord{CourseID: courseID, Status: models.EnrollmentStatusNotEnrolled}, nil
	}
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	return e.Record(), nil
}

// requireApproved admits an approved learner to the content of an existing course
//
// An unknown course is NOT_FOUND before the enrollment is looked at.
func requireApproved(ctx context.Context, courses CourseReader, enrollments EnrollmentRepository, userID, courseID int) error {
	if _, err := courses.GetByID(ctx, courseID); err != nil {
		return err
	}
	record, err := currentStatus(ctx, enrollments, userID, courseID)
	if err != nil {
		return err
	}
	return enrollment.RequireAccess(record.Status)
}

// Status returns the enrollment record of a user in an existing course
func (s *enrollmentService) Status(ctx context.Context, userID, courseID int) (models.EnrollmentRecord, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return models.EnrollmentRecord{}, err
	}
	return currentStatus(ctx, s.enrollmentRepo, userID, courseID)
}

// EnrollFree enrolls a user in a free course, approving the enrollment immediately
func (s *enrollmentService) EnrollFree(ctx context.Context, userID, courseID int) (models.EnrollmentRecord, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	current, err := currentStatus(ctx, s.enrollmentRepo, userID, courseID)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	if err := enrollment.CheckFreeEnrollment(*course, current.Status); err != nil {
		return models.EnrollmentRecord{}, err
	}

	e := &models.Enrollment{UserID: userID, CourseID: courseID, Status: models.EnrollmentStatusApproved}
	if err := s.enrollmentRepo.Create(ctx, e); err != nil {
		return models.EnrollmentRecord{}, err
	}

	s.logger.Info("free enrollment approved", zap.Int("user_id", userID), zap.Int("course_id", courseID))
	return e.Record(), nil
}

// SubmitPaymentProof stores a payment proof for a priced course and records a pending enrollment
//
// The proof type is sniffed from its content. Nothing is stored when the transition is not allowed.
func (s *enrollmentService) SubmitPaymentProof(ctx context.Context, userID, courseID int, proof io.Reader) (models.EnrollmentRecord, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	current, err := currentStatus(ctx, s.enrollmentRepo, userID, courseID)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	if err := enrollment.CheckPaymentProof(*course, current.Status); err != nil {
		return models.EnrollmentRecord{}, err
	}

	proofType, payload, err := enrollment.SniffProof(proof)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}

	name := storage.GenerateFileName(proofType.Extension)
	size, err := s.storage.Save(name, payload)
	if err != nil {
		s.logger.Error("failed to store payment proof", zap.Error(err), zap.Int("user_id", userID))
		return models.EnrollmentRecord{}, err
	}

	meta := &models.PaymentProof{
		ID:          name,
		UserID:      userID,
		CourseID:    courseID,
		ContentType: proofType.ContentType,
		Size:        size,
	}
	if err := s.proofRepo.Create(ctx, meta); err != nil {
		s.removeProof(name)
		return models.EnrollmentRecord{}, err
	}

	e := &models.Enrollment{UserID: userID, CourseID: courseID, Status: models.EnrollmentStatusPending, ProofID: &name}
	if err := s.enrollmentRepo.Create(ctx, e); err != nil {
		if delErr := s.proofRepo.Delete(ctx, name); delErr != nil {
			s.logger.Warn("failed to remove orphaned payment proof metadata", zap.String("proof_id", name), zap.Error(delErr))
		}
		s.removeProof(name)
		return models.EnrollmentRecord{}, err
	}

	s.logger.Info("payment proof submitted",
		zap.Int("user_id", userID),
		zap.Int("course_id", courseID),
		zap.String("content_type", proofType.ContentType),
		zap.Int64("size", size),
	)
	return e.Record(), nil
}

// removeProof deletes a stored proof file that no enrollment references
func (s *enrollmentService) removeProof(name string) {
	if err := s.storage.Delete(name); err != nil {
		s.logger.Warn("failed to remove orphaned payment proof", zap.String("proof_id", name), zap.Error(err))
	}
}
