package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// PaymentProofField is the multipart field carrying the payment proof file
const PaymentProofField = "payment_proof"

// maxUploadMemory is the part of a multipart upload kept in memory, the rest spills to temporary files
const maxUploadMemory = 4 << 20

// EnrollmentService is the interface that wraps methods for the learner side of enrollment.
type EnrollmentService interface {
	// Method Status returns the enrollment record of "userID" in "courseID", not_enrolled when there is none.
	Status(ctx context.Context, userID, courseID int) (models.EnrollmentRecord, error)
	// Method EnrollFree enrolls in a free course.
	//
	// A priced course or an existing enrollment gives INVALID_STATE_TRANSITION.
	EnrollFree(ctx context.Context, userID, courseID int) (models.EnrollmentRecord, error)
	// Method SubmitPaymentProof stores a payment proof for a priced course and records a pending enrollment.
	//
	// A proof that is empty or neither an image nor a document gives VALIDATION_ERROR.
	SubmitPaymentProof(ctx context.Context, userID, courseID int, proof io.Reader) (models.EnrollmentRecord, error)
}

// EnrollmentHandler handles enrollment HTTP requests
type EnrollmentHandler struct {
	BaseHandler
	enrollmentService EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       BaseHandler{Logger: logger},
		enrollmentService: enrollmentService,
	}
}

// RegisterRoutes registers all enrollment handler routes
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/enrollments/{courseId}", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/status", h.Status)
		r.Post("/free", h.EnrollFree)
		r.Post("/payment-proof", h.SubmitPaymentProof)
	})
}

// Status handles GET /enrollments/{courseId}/status
// @Summary Enrollment status
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.EnrollmentRecord
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /enrollments/{courseId}/status [get]
func (h *EnrollmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	record, err := h.enrollmentService.Status(r.Context(), userID, courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, record)
}

// EnrollFree handles POST /enrollments/{courseId}/free
// @Summary Enroll in a free course
// @Tags enrollments
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 201 {object} models.EnrollmentRecord
// @Failure 409 {object} apperrors.Error "Course is priced or already enrolled"
// @Router /enrollments/{courseId}/free [post]
func (h *EnrollmentHandler) EnrollFree(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	record, err := h.enrollmentService.EnrollFree(r.Context(), userID, courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, record)
}

// SubmitPaymentProof handles POST /enrollments/{courseId}/payment-proof
// @Summary Submit a payment proof
// @Description Upload a receipt (image or document) for a priced course. The enrollment becomes pending.
// @Tags enrollments
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param payment_proof formData file true "Payment proof"
// @Success 201 {object} models.EnrollmentRecord
// @Failure 400 {object} apperrors.Error "Missing or unsupported file"
// @Failure 409 {object} apperrors.Error "Course is free or already enrolled"
// @Failure 413 {object} apperrors.Error "File too large"
// @Router /enrollments/{courseId}/payment-proof [post]
func (h *EnrollmentHandler) SubmitPaymentProof(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := parseMultipart(r); err != nil {
		h.RespondError(w, r, err)
		return
	}
	defer h.removeMultipart(r)

	file, _, err := r.FormFile(PaymentProofField)
	if err != nil {
		h.RespondError(w, r, apperrors.Clone(apperrors.ErrValidation, "payment_proof file is required"))
		return
	}
	defer file.Close()

	record, err := h.enrollmentService.SubmitPaymentProof(r.Context(), userID, courseID, file)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, record)
}
