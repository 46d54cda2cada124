// Package handlers exposes the HTTP API of the platform
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response built from err
//
// Errors without a code are reported as INTERNAL_ERROR and their details are only logged.
func (h *BaseHandler) RespondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	h.RespondJSON(w, appErr.Status, appErr)
}

// DecodeJSON decodes the request body into dest, reporting malformed bodies as validation errors
func (h *BaseHandler) DecodeJSON(r *http.Request, dest any) error {
	return decodeJSON(r, dest, false)
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted
func (h *BaseHandler) DecodeOptionalJSON(r *http.Request, dest any) error {
	return decodeJSON(r, dest, true)
}

func decodeJSON(r *http.Request, dest any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dest)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && optional:
		return nil
	case errors.Is(err, io.EOF):
		return apperrors.Clone(apperrors.ErrValidation, "request body is required")
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return requestTooLarge(maxErr.Limit)
	}
	return apperrors.Clone(apperrors.ErrValidation, "invalid request body")
}

func requestTooLarge(limit int64) *apperrors.Error {
	e := apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("request body exceeds %d bytes", limit))
	e.Status = http.StatusRequestEntityTooLarge
	return e
}

// parseMultipart parses a multipart upload. Pair it with removeMultipart once the files are consumed.
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return requestTooLarge(maxErr.Limit)
		}
		return apperrors.Clone(apperrors.ErrValidation, "failed to parse multipart form")
	}
	return nil
}

func (h *BaseHandler) removeMultipart(r *http.Request) {
	if err := r.MultipartForm.RemoveAll(); err != nil {
		h.Logger.Warn("failed to remove multipart temporary files", zap.Error(err))
	}
}

// serveFile streams a stored upload. An empty contentType lets ServeContent derive it.
func serveFile(w http.ResponseWriter, r *http.Request, f *os.File, name, contentType string, modTime time.Time) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	http.ServeContent(w, r, name, modTime, f)
}

// URLParamID parses a positive integer path parameter
func (h *BaseHandler) URLParamID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// UserID returns the authenticated user ID set by the auth middleware
func (h *BaseHandler) UserID(r *http.Request) (int, error) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return 0, apperrors.Clone(apperrors.ErrUnauthorized, "authentication required")
	}
	return userID, nil
}

// userAndCourse returns the authenticated user ID and the courseId path parameter
func (h *BaseHandler) userAndCourse(r *http.Request) (int, int, error) {
	userID, err := h.UserID(r)
	if err != nil {
		return 0, 0, err
	}
	courseID, err := h.URLParamID(r, "courseId")
	if err != nil {
		return 0, 0, err
	}
	return userID, courseID, nil
}
