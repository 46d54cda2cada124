package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// VideoService is the interface that wraps methods for course content and progress business logic.
//
// Every method requires an approved enrollment and returns ACCESS_DENIED otherwise.
type VideoService interface {
	// Method ListVideos returns the course videos in curriculum order with the learner completion flags.
	ListVideos(ctx context.Context, userID, courseID int) ([]models.Video, error)
	// Method CompleteVideo marks a video as completed. It is idempotent.
	//
	// A video of another course gives INVALID_REFERENCE, an unknown video NOT_FOUND.
	CompleteVideo(ctx context.Context, userID, courseID int, req *models.CompleteVideoRequest) (*models.Video, error)
	// Method SaveCheckpoint stores the resume position of a video.
	SaveCheckpoint(ctx context.Context, userID, courseID int, req *models.CheckpointRequest) (*models.Video, error)
	// Method Progress returns the completion summary of the course.
	Progress(ctx context.Context, userID, courseID int) (models.CourseProgress, error)
}

// VideoHandler handles course content HTTP requests
type VideoHandler struct {
	BaseHandler
	videoService VideoService
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(videoService VideoService, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		videoService: videoService,
	}
}

// RegisterRoutes registers all video handler routes
func (h *VideoHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/courses/{courseId}/videos", h.ListVideos)
		r.Get("/courses/{courseId}/progress", h.Progress)
		r.Post("/videos/{courseId}/complete", h.CompleteVideo)
		r.Put("/videos/{courseId}/checkpoint", h.SaveCheckpoint)
	})
}

// ListVideos handles GET /courses/{courseId}/videos
// @Summary Course videos
// @Description Videos in curriculum order with completion flags. Requires an approved enrollment.
// @Tags videos
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {array} models.Video
// @Failure 403 {object} apperrors.Error "Enrollment is not approved"
// @Router /courses/{courseId}/videos [get]
func (h *VideoHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	videos, err := h.videoService.ListVideos(r.Context(), userID, courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, videos)
}

// CompleteVideo handles POST /videos/{courseId}/complete
// @Summary Mark a video completed
// @Tags videos
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param request body models.CompleteVideoRequest true "Video to complete"
// @Success 200 {object} models.Video
// @Failure 400 {object} apperrors.Error "Video belongs to another course"
// @Failure 403 {object} apperrors.Error "Enrollment is not approved"
// @Failure 404 {object} apperrors.Error "Unknown video"
// @Router /videos/{courseId}/complete [post]
func (h *VideoHandler) CompleteVideo(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.CompleteVideoRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	video, err := h.videoService.CompleteVideo(r.Context(), userID, courseID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, video)
}

// SaveCheckpoint handles PUT /videos/{courseId}/checkpoint
// @Summary Save the resume position of a video
// @Tags videos
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param request body models.CheckpointRequest true "Checkpoint"
// @Success 200 {object} models.Video
// @Failure 400 {object} apperrors.Error "Invalid request"
// @Failure 403 {object} apperrors.Error "Enrollment is not approved"
// @Router /videos/{courseId}/checkpoint [put]
func (h *VideoHandler) SaveCheckpoint(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.CheckpointRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	video, err := h.videoService.SaveCheckpoint(r.Context(), userID, courseID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, video)
}

// Progress handles GET /courses/{courseId}/progress
// @Summary Course progress
// @Tags videos
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.CourseProgress
// @Failure 403 {object} apperrors.Error "Enrollment is not approved"
// @Router /courses/{courseId}/progress [get]
func (h *VideoHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	p, err := h.videoService.Progress(r.Context(), userID, courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, p)
}
