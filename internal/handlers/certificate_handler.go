package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CertificateService renders completion certificates
type CertificateService interface {
	// Method Generate returns the PDF certificate, or ACCESS_DENIED below 100% progress.
	Generate(ctx context.Context, userID, courseID int) ([]byte, error)
}

// CertificateHandler serves completion certificates
type CertificateHandler struct {
	BaseHandler
	certificateService CertificateService
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificateService CertificateService, logger *zap.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler:        BaseHandler{Logger: logger},
		certificateService: certificateService,
	}
}

// RegisterRoutes registers the certificate route
func (h *CertificateHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Get("/courses/{courseId}/certificate", h.Download)
}

// Download handles GET /courses/{courseId}/certificate
// @Summary Download the completion certificate
// @Tags courses
// @Produce application/pdf
// @Security ApiKeyAuth
// @Param courseId path int true "Course ID"
// @Success 200 {file} binary
// @Failure 403 {object} apperrors.Error "Course not completed"
// @Router /courses/{courseId}/certificate [get]
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, courseID, err := h.userAndCourse(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	doc, err := h.certificateService.Generate(r.Context(), userID, courseID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"certificate-%d.pdf\"", courseID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		h.Logger.Warn("failed to write certificate", zap.Error(err))
	}
}
