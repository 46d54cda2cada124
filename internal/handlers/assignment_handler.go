package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// Multipart fields of an assignment submission
const (
	SubmissionContentField = "content"
	SubmissionFileField    = "file"
)

// AssignmentService is the interface that wraps methods for course assignments.
//
// Learner methods require an approved enrollment and return ACCESS_DENIED otherwise.
type AssignmentService interface {
	// Method ListAssignments returns the assignments of a course with the submission of the learner.
	ListAssignments(ctx context.Context, userID, courseID int) ([]models.Assignment, error)
	// Method GetAssignment returns one assignment of the course, NOT_FOUND for an assignment of another course.
	GetAssignment(ctx context.Context, userID, courseID, assignmentID int) (*models.Assignment, error)
	// Method SubmitAssignment stores text content and an optional file.
	//
	// A submission after the due date or after grading gives CONFLICT.
	SubmitAssignment(ctx context.Context, userID, courseID, assignmentID int, req *models.SubmitAssignmentRequest, file io.Reader) (*models.AssignmentSubmission, error)
	// Method CreateAssignment adds an assignment to a course.
	CreateAssignment(ctx context.Context, courseID int, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	// Method DeleteAssignment removes an assignment with its submissions and their files.
	DeleteAssignment(ctx context.Context, assignmentID int) error
	// Method Submissions lists the submissions of an assignment, ungraded first.
	Submissions(ctx context.Context, assignmentID int) ([]models.AssignmentSubmission, error)
	// Method GradeSubmission scores a submission. A score above the maximum gives VALIDATION_ERROR.
	GradeSubmission(ctx context.Context, submissionID int, req *models.GradeRequest) (*models.AssignmentSubmission, error)
	// Method SubmissionFile opens the file of a submission. The caller closes the file.
	SubmissionFile(ctx context.Context, submissionID int) (*os.File, *models.AssignmentSubmission, error)
}

// AssignmentHandler handles assignment HTTP requests
type AssignmentHandler struct {
	BaseHandler
	assignmentService AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentService AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       BaseHandler{Logger: logger},
		assignmentService: assignmentService,
	}
}

// RegisterRoutes registers the learner assignment routes
func (h *AssignmentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/courses/{courseId}/assignments", h.ListAssignments)
		r.Get("/courses/{courseId}/assignments/{assignmentId}", h.GetAssignment)
		r.Post("/courses/{courseId}/assignments/{assignmentId}/submit", h.SubmitAssignment)
	})
}

// RegisterAdminRoutes registers the assignment management routes on a router already restricted to administrators
func (h *AssignmentHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/admin/courses/{courseId}/assignments", h.CreateAssignment)
	r.Delete("/admin/assignments/{assignmentId}", h.DeleteAssignment)
	r.Get("/admin/assignments/{assignmentId}/submissions", h.Submissions)
	r.Post("/admin/submissions/{submissionId}/grade", h.GradeSubmission)
	r.Get("/admin/submissions/{submissionId}/file", h.SubmissionFile)
}

// ListAssignments handles GET /courses/{courseId}/assignments
// @Summary Course assignments
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {array} models.Assignment
// @Failure 403 {object} apperrors.Error "Enrollment not approved"
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /courses/{courseId}/assignments [get]
func (h *AssignmentHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	assignments, err := h.assignmentService.ListAssignments(r.Context(), userID, courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, assignments)
}

// GetAssignment handles GET /courses/{courseId}/assignments/{assignmentId}
// @Summary Assignment with the own submission
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param assignmentId path int true "Assignment ID"
// @Success 200 {object} models.Assignment
// @Failure 403 {object} apperrors.Error "Enrollment not approved"
// @Failure 404 {object} apperrors.Error "Assignment not found"
// @Router /courses/{courseId}/assignments/{assignmentId} [get]
func (h *AssignmentHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	assignmentID, err := h.URLParamID(r, "assignmentId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	a, err := h.assignmentService.GetAssignment(r.Context(), userID, courseID, assignmentID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, a)
}

// SubmitAssignment handles POST /courses/{courseId}/assignments/{assignmentId}/submit
// @Summary Submit an assignment
// @Description Accepts JSON with the content, or a multipart form with content and an optional file.
// @Tags assignments
// @Accept json,multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param assignmentId path int true "Assignment ID"
// @Param content formData string false "Submission text"
// @Param file formData file false "Submission file"
// @Success 201 {object} models.AssignmentSubmission
// @Failure 400 {object} apperrors.Error "Nothing submitted or unsupported file"
// @Failure 403 {object} apperrors.Error "Enrollment not approved"
// @Failure 409 {object} apperrors.Error "Past the due date or already graded"
// @Failure 413 {object} apperrors.Error "File too large"
// @Router /courses/{courseId}/assignments/{assignmentId}/submit [post]
func (h *AssignmentHandler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	assignmentID, err := h.URLParamID(r, "assignmentId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var (
		req  models.SubmitAssignmentRequest
		file io.Reader
	)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		if err := parseMultipart(r); err != nil {
			h.RespondError(w, r, err)
			return
		}
		defer h.removeMultipart(r)

		req.Content = r.FormValue(SubmissionContentField)
		f, _, err := r.FormFile(SubmissionFileField)
		switch {
		case err == nil:
			defer f.Close()
			file = f
		case !errors.Is(err, http.ErrMissingFile):
			h.RespondError(w, r, apperrors.Clone(apperrors.ErrValidation, "invalid file field"))
			return
		}
	} else if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	submission, err := h.assignmentService.SubmitAssignment(r.Context(), userID, courseID, assignmentID, &req, file)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, submission)
}

// CreateAssignment handles POST /admin/courses/{courseId}/assignments
// @Summary Add an assignment to a course
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param request body models.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} models.Assignment
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /admin/courses/{courseId}/assignments [post]
func (h *AssignmentHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.CreateAssignmentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	a, err := h.assignmentService.CreateAssignment(r.Context(), courseID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, a)
}

// DeleteAssignment handles DELETE /admin/assignments/{assignmentId}
// @Summary Delete an assignment
// @Tags admin
// @Security ApiKeyAuth
// @Param assignmentId path int true "Assignment ID"
// @Success 204
// @Failure 404 {object} apperrors.Error "Assignment not found"
// @Router /admin/assignments/{assignmentId} [delete]
func (h *AssignmentHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := h.URLParamID(r, "assignmentId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := h.assignmentService.DeleteAssignment(r.Context(), assignmentID); err != nil {
		h.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submissions handles GET /admin/assignments/{assignmentId}/submissions
// @Summary Submissions of an assignment
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param assignmentId path int true "Assignment ID"
// @Success 200 {array} models.AssignmentSubmission
// @Failure 404 {object} apperrors.Error "Assignment not found"
// @Router /admin/assignments/{assignmentId}/submissions [get]
func (h *AssignmentHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := h.URLParamID(r, "assignmentId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	submissions, err := h.assignmentService.Submissions(r.Context(), assignmentID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, submissions)
}

// GradeSubmission handles POST /admin/submissions/{submissionId}/grade
// @Summary Grade a submission
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param submissionId path int true "Submission ID"
// @Param request body models.GradeRequest true "Grade"
// @Success 200 {object} models.AssignmentSubmission
// @Failure 400 {object} apperrors.Error "Score out of range"
// @Failure 404 {object} apperrors.Error "Submission not found"
// @Router /admin/submissions/{submissionId}/grade [post]
func (h *AssignmentHandler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := h.URLParamID(r, "submissionId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.GradeRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	submission, err := h.assignmentService.GradeSubmission(r.Context(), submissionID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, submission)
}

// SubmissionFile handles GET /admin/submissions/{submissionId}/file
// @Summary Download the file of a submission
// @Tags admin
// @Produce application/octet-stream
// @Security ApiKeyAuth
// @Param submissionId path int true "Submission ID"
// @Success 200 {file} binary
// @Failure 404 {object} apperrors.Error "No file stored"
// @Router /admin/submissions/{submissionId}/file [get]
func (h *AssignmentHandler) SubmissionFile(w http.ResponseWriter, r *http.Request) {
	submissionID, err := h.URLParamID(r, "submissionId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	f, submission, err := h.assignmentService.SubmissionFile(r.Context(), submissionID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	defer f.Close()

	serveFile(w, r, f, *submission.FileID, submission.FileType, submission.SubmittedAt)
}
