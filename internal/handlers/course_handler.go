package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for catalog business logic.
type CourseService interface {
	// Method Explore returns the whole catalog.
	Explore(ctx context.Context) ([]models.Course, error)
	// Method GetCourse returns a single course, or NOT_FOUND.
	GetCourse(ctx context.Context, courseID int) (*models.Course, error)
	// Method MyCourses returns the courses "userID" is approved for, with their progress.
	MyCourses(ctx context.Context, userID int) ([]models.MyCourseItem, error)
}

// CourseHandler handles catalog HTTP requests
type CourseHandler struct {
	BaseHandler
	courseService CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		courseService: courseService,
	}
}

// RegisterRoutes registers all course handler routes
func (h *CourseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/courses/explore", h.Explore)
	r.Get("/courses/explore/{courseId}", h.GetCourse)
	r.With(authMiddleware).Get("/courses/my", h.MyCourses)
}

// Explore handles GET /courses/explore
// @Summary Course catalog
// @Description List every course of the catalog
// @Tags courses
// @Produce json
// @Success 200 {array} models.Course
// @Router /courses/explore [get]
func (h *CourseHandler) Explore(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.Explore(r.Context())
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, courses)
}

// GetCourse handles GET /courses/explore/{courseId}
// @Summary Course detail
// @Tags courses
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /courses/explore/{courseId} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// MyCourses handles GET /courses/my
// @Summary My courses
// @Description Approved courses of the authenticated learner with their progress
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.MyCourseItem
// @Failure 401 {object} apperrors.Error "Unauthorized"
// @Router /courses/my [get]
func (h *CourseHandler) MyCourses(w http.ResponseWriter, r *http.Request) {
	userID, err := h.UserID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	items, err := h.courseService.MyCourses(r.Context(), userID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, items)
}
