package learner

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/enrollment"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentAPI is the part of the platform API the enrollment machine calls
//
// Implemented by *lmsclient.Client.
type EnrollmentAPI interface {
	EnrollmentStatus(ctx context.Context, courseID int) (models.EnrollmentRecord, error)
	EnrollFree(ctx context.Context, courseID int) (models.EnrollmentRecord, error)
	SubmitPaymentProof(ctx context.Context, courseID int, filename string, proof io.Reader) (models.EnrollmentRecord, error)
}

// PaymentProofUpload is a payment proof selected by the learner
type PaymentProofUpload struct {
	Filename string
	Content  []byte
}

// EnrollmentMachine tracks the enrollment status of the learner per course
//
// Transitions are checked locally against the shared transition table before any
// request is sent; the status itself always comes from the server.
type EnrollmentMachine struct {
	api    EnrollmentAPI
	store  *Store
	logger *zap.Logger
}

// NewEnrollmentMachine creates a new enrollment machine over store
func NewEnrollmentMachine(api EnrollmentAPI, store *Store, logger *zap.Logger) *EnrollmentMachine {
	return &EnrollmentMachine{api: api, store: store, logger: logger}
}

// CheckStatus fetches the enrollment record of a course and refreshes the cache.
//
// On failure the returned record is not_enrolled, which never grants access, and the
// cache is left untouched. A response superseded by a later fetch is discarded and
// the newer cached record is returned instead.
func (m *EnrollmentMachine) CheckStatus(ctx context.Context, courseID int) (models.EnrollmentRecord, error) {
	cs := m.store.course(courseID)
	ticket := m.store.ticket()

	rec, err := m.api.EnrollmentStatus(ctx, courseID)
	if err != nil {
		m.logger.Debug("enrollment status check failed", zap.Int("course_id", courseID), zap.Error(err))
		return notEnrolled(courseID), err
	}
	if !rec.Status.Valid() {
		return notEnrolled(courseID), apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("server returned unknown enrollment status %q", rec.Status))
	}
	rec.CourseID = courseID
	return cs.applyRecord(ticket, rec), nil
}

// EnrollFree enrolls the learner in a free course.
//
// It is only valid from not_enrolled on a free course; otherwise INVALID_STATE_TRANSITION
// is returned and nothing is sent. The server may record pending or approved.
func (m *EnrollmentMachine) EnrollFree(ctx context.Context, course models.Course) (models.EnrollmentRecord, error) {
	cs := m.store.course(course.ID)
	current := cs.currentRecord()
	if err := enrollment.CheckFreeEnrollment(course, current.Status); err != nil {
		return current, err
	}

	ticket := m.store.ticket()
	rec, err := m.api.EnrollFree(ctx, course.ID)
	if err != nil {
		return current, err
	}
	return m.applyTransition(cs, ticket, current, rec)
}

// SubmitPaymentProof uploads a payment proof for a priced course, moving it to pending.
//
// It is only valid from not_enrolled on a priced course; otherwise INVALID_STATE_TRANSITION
// is returned. An empty proof or one that is neither an image nor a document is a
// VALIDATION_ERROR. In both cases nothing is sent.
func (m *EnrollmentMachine) SubmitPaymentProof(ctx context.Context, course models.Course, proof PaymentProofUpload) (models.EnrollmentRecord, error) {
	cs := m.store.course(course.ID)
	current := cs.currentRecord()
	if err := enrollment.CheckPaymentProof(course, current.Status); err != nil {
		return current, err
	}
	if _, err := enrollment.DetectProof(proof.Content); err != nil {
		return current, err
	}

	ticket := m.store.ticket()
	rec, err := m.api.SubmitPaymentProof(ctx, course.ID, proof.Filename, bytes.NewReader(proof.Content))
	if err != nil {
		return current, err
	}
	return m.applyTransition(cs, ticket, current, rec)
}

// applyTransition caches a record returned by a transition call after checking the server moved along an allowed edge
func (m *EnrollmentMachine) applyTransition(cs *courseState, ticket uint64, from, rec models.EnrollmentRecord) (models.EnrollmentRecord, error) {
	rec.CourseID = from.CourseID
	cached, err := cs.applyTransition(ticket, rec)
	if err != nil {
		m.logger.Warn("server recorded an unexpected enrollment status",
			zap.Int("course_id", from.CourseID),
			zap.String("from", string(cached.Status)),
			zap.String("to", string(rec.Status)),
		)
		return cached, err
	}
	return cached, nil
}

// Record returns the cached enrollment record of a course
func (m *EnrollmentMachine) Record(courseID int) models.EnrollmentRecord {
	return m.store.course(courseID).currentRecord()
}

// CanAccessContent reports whether the cached status is exactly approved
func (m *EnrollmentMachine) CanAccessContent(courseID int) bool {
	return enrollment.CanAccessContent(m.Record(courseID).Status)
}

// View returns what the learner may be shown for a course
func (m *EnrollmentMachine) View(courseID int) enrollment.View {
	return enrollment.ViewFor(m.Record(courseID).Status)
}
