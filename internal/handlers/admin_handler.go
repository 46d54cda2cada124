package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for the administrator review of payment proofs.
type AdminService interface {
	// Method ReviewQueue lists enrollments in "status"; an empty status means pending.
	ReviewQueue(ctx context.Context, status string) ([]models.EnrollmentReviewItem, error)
	// Method Approve moves a pending enrollment to approved.
	//
	// Any other current status gives INVALID_STATE_TRANSITION.
	Approve(ctx context.Context, enrollmentID int, req *models.ReviewRequest) (models.EnrollmentRecord, error)
	// Method Reject moves a pending enrollment to rejected.
	//
	// Any other current status gives INVALID_STATE_TRANSITION.
	Reject(ctx context.Context, enrollmentID int, req *models.ReviewRequest) (models.EnrollmentRecord, error)
	// Method PaymentProof opens the stored proof of an enrollment. The caller closes the file.
	PaymentProof(ctx context.Context, enrollmentID int) (*os.File, *models.PaymentProof, error)
}

// CourseEditor is the interface that wraps the administrator course editing methods.
type CourseEditor interface {
	CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error)
	AddVideo(ctx context.Context, courseID int, req *models.CreateVideoRequest) (*models.Video, error)
	// Method UpdateCourse replaces the details of an existing course, or returns NOT_FOUND.
	UpdateCourse(ctx context.Context, courseID int, req *models.CreateCourseRequest) (*models.Course, error)
	// Method DeleteCourse removes a course. A course with any enrollment gives CONFLICT.
	DeleteCourse(ctx context.Context, courseID int) error
	// Method ReplaceVideos replaces the curriculum of a course in list order.
	//
	// A listed ID that is not a video of the course gives INVALID_REFERENCE.
	ReplaceVideos(ctx context.Context, courseID int, req *models.ReplaceVideosRequest) ([]models.Video, error)
}

// DashboardService is the interface that wraps the administrator overview methods.
type DashboardService interface {
	// Method Students lists every student with approved and pending enrollment counts.
	Students(ctx context.Context) ([]models.StudentSummary, error)
	// Method Dashboard returns the platform totals with the latest enrollments.
	Dashboard(ctx context.Context) (models.DashboardStats, error)
}

// AdminHandler handles administrator HTTP requests
//
// Routes must be mounted behind the auth and admin role middlewares.
type AdminHandler struct {
	BaseHandler
	adminService     AdminService
	courseEditor     CourseEditor
	paymentService   PaymentService
	dashboardService DashboardService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	adminService AdminService,
	courseEditor CourseEditor,
	paymentService PaymentService,
	dashboardService DashboardService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:      BaseHandler{Logger: logger},
		adminService:     adminService,
		courseEditor:     courseEditor,
		paymentService:   paymentService,
		dashboardService: dashboardService,
	}
}

// RegisterRoutes registers all admin handler routes
//
// Routes are flat so quiz and assignment handlers can add their own /admin routes to the same router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/dashboard", h.Dashboard)
	r.Get("/admin/students", h.Students)
	r.Get("/admin/enrollments", h.ReviewQueue)
	r.Post("/admin/enrollments/{id}/approve", h.Approve)
	r.Post("/admin/enrollments/{id}/reject", h.Reject)
	r.Get("/admin/enrollments/{id}/payment-proof", h.PaymentProof)
	r.Post("/admin/courses", h.CreateCourse)
	r.Put("/admin/courses/{courseId}", h.UpdateCourse)
	r.Delete("/admin/courses/{courseId}", h.DeleteCourse)
	r.Post("/admin/courses/{courseId}/videos", h.AddVideo)
	r.Put("/admin/courses/{courseId}/videos", h.ReplaceVideos)
	r.Post("/admin/bank-accounts", h.CreateBankAccount)
}

// Dashboard handles GET /admin/dashboard
// @Summary Administrator dashboard
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.DashboardStats
// @Failure 403 {object} apperrors.Error "Not an administrator"
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.Dashboard(r.Context())
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, stats)
}

// Students handles GET /admin/students
// @Summary Student accounts
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.StudentSummary
// @Failure 403 {object} apperrors.Error "Not an administrator"
// @Router /admin/students [get]
func (h *AdminHandler) Students(w http.ResponseWriter, r *http.Request) {
	students, err := h.dashboardService.Students(r.Context())
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, students)
}

// ReviewQueue handles GET /admin/enrollments
// @Summary Enrollment review queue
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "pending (default), approved or rejected"
// @Success 200 {array} models.EnrollmentReviewItem
// @Failure 400 {object} apperrors.Error "Unknown status"
// @Failure 403 {object} apperrors.Error "Not an administrator"
// @Router /admin/enrollments [get]
func (h *AdminHandler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	items, err := h.adminService.ReviewQueue(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, items)
}

// Approve handles POST /admin/enrollments/{id}/approve
// @Summary Approve a pending enrollment
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Param request body models.ReviewRequest false "Optional message to the learner"
// @Success 200 {object} models.EnrollmentRecord
// @Failure 409 {object} apperrors.Error "Enrollment is not pending"
// @Router /admin/enrollments/{id}/approve [post]
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.adminService.Approve)
}

// Reject handles POST /admin/enrollments/{id}/reject
// @Summary Reject a pending enrollment
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Param request body models.ReviewRequest false "Optional reason shown to the learner"
// @Success 200 {object} models.EnrollmentRecord
// @Failure 409 {object} apperrors.Error "Enrollment is not pending"
// @Router /admin/enrollments/{id}/reject [post]
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.adminService.Reject)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, decision func(context.Context, int, *models.ReviewRequest) (models.EnrollmentRecord, error)) {
	enrollmentID, err := h.URLParamID(r, "id")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.ReviewRequest
	if err := h.DecodeOptionalJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	record, err := decision(r.Context(), enrollmentID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, record)
}

// PaymentProof handles GET /admin/enrollments/{id}/payment-proof
// @Summary Download the payment proof of an enrollment
// @Tags admin
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {file} binary
// @Failure 404 {object} apperrors.Error "No proof stored"
// @Router /admin/enrollments/{id}/payment-proof [get]
func (h *AdminHandler) PaymentProof(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := h.URLParamID(r, "id")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	f, meta, err := h.adminService.PaymentProof(r.Context(), enrollmentID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	defer f.Close()

	serveFile(w, r, f, meta.ID, meta.ContentType, meta.CreatedAt)
}

// CreateCourse handles POST /admin/courses
// @Summary Create a course
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateCourseRequest true "Course"
// @Success 201 {object} models.Course
// @Failure 400 {object} apperrors.Error "Validation error"
// @Router /admin/courses [post]
func (h *AdminHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	course, err := h.courseEditor.CreateCourse(r.Context(), &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, course)
}

// UpdateCourse handles PUT /admin/courses/{courseId}
// @Summary Update a course
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param request body models.CreateCourseRequest true "Course"
// @Success 200 {object} models.Course
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /admin/courses/{courseId} [put]
func (h *AdminHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.CreateCourseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	course, err := h.courseEditor.UpdateCourse(r.Context(), courseID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// DeleteCourse handles DELETE /admin/courses/{courseId}
// @Summary Delete a course
// @Description Only courses nobody is enrolled in can be deleted.
// @Tags admin
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 204
// @Failure 404 {object} apperrors.Error "Course not found"
// @Failure 409 {object} apperrors.Error "Course has enrollments"
// @Router /admin/courses/{courseId} [delete]
func (h *AdminHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := h.courseEditor.DeleteCourse(r.Context(), courseID); err != nil {
		h.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceVideos handles PUT /admin/courses/{courseId}/videos
// @Summary Replace the curriculum of a course
// @Description Listed videos with an id are updated in place, others are added, missing ones are removed. Positions follow list order.
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param request body models.ReplaceVideosRequest true "Curriculum"
// @Success 200 {array} models.Video
// @Failure 400 {object} apperrors.Error "Validation error or video of another course"
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /admin/courses/{courseId}/videos [put]
func (h *AdminHandler) ReplaceVideos(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.ReplaceVideosRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	videos, err := h.courseEditor.ReplaceVideos(r.Context(), courseID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, videos)
}

// AddVideo handles POST /admin/courses/{courseId}/videos
// @Summary Add a video to a course
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param request body models.CreateVideoRequest true "Video"
// @Success 201 {object} models.Video
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /admin/courses/{courseId}/videos [post]
func (h *AdminHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.CreateVideoRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	video, err := h.courseEditor.AddVideo(r.Context(), courseID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, video)
}

// CreateBankAccount handles POST /admin/bank-accounts
// @Summary Add a bank account
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateBankAccountRequest true "Bank account"
// @Success 201 {object} models.BankAccount
// @Failure 400 {object} apperrors.Error "Validation error"
// @Router /admin/bank-accounts [post]
func (h *AdminHandler) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBankAccountRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	account, err := h.paymentService.CreateBankAccount(r.Context(), &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, account)
}
