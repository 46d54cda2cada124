package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// AvatarField is the multipart field carrying the avatar image
const AvatarField = "avatar"

// ProfileService is the interface that wraps methods for the account details of the signed in user.
type ProfileService interface {
	// Method GetProfile returns the profile of "userID", or NOT_FOUND.
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	// Method UpdateProfile replaces the editable details.
	//
	// An email used by another account gives CONFLICT.
	UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.Profile, error)
	// Method UploadAvatar stores a new avatar. Anything but an image gives VALIDATION_ERROR.
	UploadAvatar(ctx context.Context, userID int, r io.Reader) (*models.Profile, error)
	// Method Avatar opens the stored avatar, NOT_FOUND when there is none. The caller closes the file.
	Avatar(ctx context.Context, userID int) (*os.File, error)
}

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		profileService: profileService,
	}
}

// RegisterRoutes registers all profile handler routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)
		r.Get("/avatar", h.Avatar)
		r.Post("/avatar", h.UploadAvatar)
	})
}

// GetProfile handles GET /profile
// @Summary Profile of the signed in user
// @Tags profile
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.Profile
// @Failure 401 {object} apperrors.Error "Unauthorized"
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.UserID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /profile
// @Summary Update the profile
// @Tags profile
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.UpdateProfileRequest true "Profile"
// @Success 200 {object} models.Profile
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 409 {object} apperrors.Error "Email already used"
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.UserID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var req models.UpdateProfileRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, profile)
}

// UploadAvatar handles POST /profile/avatar
// @Summary Upload an avatar
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} models.Profile
// @Failure 400 {object} apperrors.Error "Missing or unsupported file"
// @Failure 413 {object} apperrors.Error "File too large"
// @Router /profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := h.UserID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := parseMultipart(r); err != nil {
		h.RespondError(w, r, err)
		return
	}
	defer h.removeMultipart(r)

	file, _, err := r.FormFile(AvatarField)
	if err != nil {
		h.RespondError(w, r, apperrors.Clone(apperrors.ErrValidation, "avatar file is required"))
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadAvatar(r.Context(), userID, file)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, profile)
}

// Avatar handles GET /profile/avatar
// @Summary Avatar image
// @Tags profile
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Security ApiKeyAuth
// @Success 200 {file} binary
// @Failure 404 {object} apperrors.Error "No avatar uploaded"
// @Router /profile/avatar [get]
func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	userID, err := h.UserID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	f, err := h.profileService.Avatar(r.Context(), userID)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	defer f.Close()

	var modTime time.Time
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}
	// Content type follows the stored extension.
	http.ServeContent(w, r, filepath.Base(f.Name()), modTime, f)
}
