package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// QuizService is the interface that wraps methods for course quizzes.
//
// Learner methods require an approved enrollment and return ACCESS_DENIED otherwise.
// A quiz that does not belong to the course in the path gives NOT_FOUND.
type QuizService interface {
	// Method ListQuizzes returns the quizzes of a course with the best score of the learner.
	ListQuizzes(ctx context.Context, userID, courseID int) ([]models.Quiz, error)
	// Method GetQuiz returns a quiz with its questions, without the correct options.
	GetQuiz(ctx context.Context, userID, courseID, quizID int) (*models.QuizDetail, error)
	// Method SubmitQuiz scores an attempt and returns it with the correct options.
	//
	// An answer to a question of another quiz or an option out of range gives VALIDATION_ERROR.
	SubmitQuiz(ctx context.Context, userID, courseID, quizID int, req *models.SubmitQuizRequest) (*models.QuizResult, error)
	// Method QuizResult returns an earlier attempt of the learner.
	QuizResult(ctx context.Context, userID, courseID, quizID, submissionID int) (*models.QuizResult, error)
	// Method CourseQuizzes lists the quizzes of a course for administrators.
	CourseQuizzes(ctx context.Context, courseID int) ([]models.Quiz, error)
	// Method CreateQuiz adds a quiz with its questions to a course.
	CreateQuiz(ctx context.Context, courseID int, req *models.CreateQuizRequest) (*models.QuizDetail, error)
	// Method DeleteQuiz removes a quiz with its questions and attempts.
	DeleteQuiz(ctx context.Context, quizID int) error
}

// QuizHandler handles quiz HTTP requests
type QuizHandler struct {
	BaseHandler
	quizService QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService QuizService, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: BaseHandler{Logger: logger},
		quizService: quizService,
	}
}

// RegisterRoutes registers the learner quiz routes
func (h *QuizHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/courses/{courseId}/quizzes", h.ListQuizzes)
		r.Get("/courses/{courseId}/quizzes/{quizId}", h.GetQuiz)
		r.Post("/courses/{courseId}/quizzes/{quizId}/submit", h.SubmitQuiz)
		r.Get("/courses/{courseId}/quizzes/{quizId}/submissions/{submissionId}", h.QuizResult)
	})
}

// RegisterAdminRoutes registers the quiz management routes on a router already restricted to administrators
func (h *QuizHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/courses/{courseId}/quizzes", h.CourseQuizzes)
	r.Post("/admin/courses/{courseId}/quizzes", h.CreateQuiz)
	r.Delete("/admin/quizzes/{quizId}", h.DeleteQuiz)
}

// ListQuizzes handles GET /courses/{courseId}/quizzes
// @Summary Course quizzes
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {array} models.Quiz
// @Failure 403 {object} apperrors.Error "Enrollment not approved"
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /courses/{courseId}/quizzes [get]
func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	quizzes, err := h.quizService.ListQuizzes(r.Context(), userID, courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, quizzes)
}

// GetQuiz handles GET /courses/{courseId}/quizzes/{quizId}
// @Summary Quiz with its questions
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param quizId path int true "Quiz ID"
// @Success 200 {object} models.QuizDetail
// @Failure 403 {object} apperrors.Error "Enrollment not approved"
// @Failure 404 {object} apperrors.Error "Quiz not found"
// @Router /courses/{courseId}/quizzes/{quizId} [get]
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	quizID, err := h.URLParamID(r, "quizId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	quiz, err := h.quizService.GetQuiz(r.Context(), userID, courseID, quizID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, quiz)
}

// SubmitQuiz handles POST /courses/{courseId}/quizzes/{quizId}/submit
// @Summary Submit a quiz attempt
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param quizId path int true "Quiz ID"
// @Param request body models.SubmitQuizRequest true "Answers"
// @Success 201 {object} models.QuizResult
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 403 {object} apperrors.Error "Enrollment not approved"
// @Failure 404 {object} apperrors.Error "Quiz not found"
// @Router /courses/{courseId}/quizzes/{quizId}/submit [post]
func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	quizID, err := h.URLParamID(r, "quizId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.SubmitQuizRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	result, err := h.quizService.SubmitQuiz(r.Context(), userID, courseID, quizID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, result)
}

// QuizResult handles GET /courses/{courseId}/quizzes/{quizId}/submissions/{submissionId}
// @Summary Earlier quiz attempt
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param quizId path int true "Quiz ID"
// @Param submissionId path int true "Submission ID"
// @Success 200 {object} models.QuizResult
// @Failure 404 {object} apperrors.Error "Attempt not found"
// @Router /courses/{courseId}/quizzes/{quizId}/submissions/{submissionId} [get]
func (h *QuizHandler) QuizResult(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	quizID, err := h.URLParamID(r, "quizId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	submissionID, err := h.URLParamID(r, "submissionId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	result, err := h.quizService.QuizResult(r.Context(), userID, courseID, quizID, submissionID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, result)
}

// CourseQuizzes handles GET /admin/courses/{courseId}/quizzes
// @Summary Quizzes of a course
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {array} models.Quiz
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /admin/courses/{courseId}/quizzes [get]
func (h *QuizHandler) CourseQuizzes(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	quizzes, err := h.quizService.CourseQuizzes(r.Context(), courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, quizzes)
}

// CreateQuiz handles POST /admin/courses/{courseId}/quizzes
// @Summary Add a quiz to a course
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Param request body models.CreateQuizRequest true "Quiz"
// @Success 201 {object} models.QuizDetail
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 404 {object} apperrors.Error "Course not found"
// @Router /admin/courses/{courseId}/quizzes [post]
func (h *QuizHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.CreateQuizRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	quiz, err := h.quizService.CreateQuiz(r.Context(), courseID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, quiz)
}

// DeleteQuiz handles DELETE /admin/quizzes/{quizId}
// @Summary Delete a quiz
// @Tags admin
// @Security ApiKeyAuth
// @Param quizId path int true "Quiz ID"
// @Success 204
// @Failure 404 {object} apperrors.Error "Quiz not found"
// @Router /admin/quizzes/{quizId} [delete]
func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := h.URLParamID(r, "quizId")
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := h.quizService.DeleteQuiz(r.Context(), quizID); err != nil {
		h.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
