package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/storage"
	"go.uber.org/zap"
)

// ProfileRepository is the interface that wraps the profile methods of users table data access
type ProfileRepository interface {
	// Method GetProfile retrieves the profile of a user, or NOT_FOUND.
	GetProfile(ctx context.Context, id int) (*models.Profile, error)
	// Method UpdateProfile replaces the editable profile columns.
	//
	// An email already used by another account gives CONFLICT.
	UpdateProfile(ctx context.Context, id int, req *models.UpdateProfileRequest) error
	// Method SetAvatar records the stored avatar file name.
	SetAvatar(ctx context.Context, id int, avatar string) error
}

// profileService manages the account details of the signed in user
type profileService struct {
	profileRepo ProfileRepository
	avatars     FileStorage
	logger      *zap.Logger
}

// NewProfileService creates a new profile service; avatars is the storage for avatar images
func NewProfileService(profileRepo ProfileRepository, avatars FileStorage, logger *zap.Logger) *profileService {
	return &profileService{
		profileRepo: profileRepo,
		avatars:     avatars,
		logger:      logger,
	}
}

// GetProfile returns the profile of a user
func (s *profileService) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	return s.profileRepo.GetProfile(ctx, userID)
}

// UpdateProfile validates and stores new account details
func (s *profileService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.Profile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if err := s.profileRepo.UpdateProfile(ctx, userID, req); err != nil {
		return nil, err
	}
	return s.profileRepo.GetProfile(ctx, userID)
}

// UploadAvatar stores a new avatar image and removes the previous one once the new one is recorded
func (s *profileService) UploadAvatar(ctx context.Context, userID int, r io.Reader) (*models.Profile, error) {
	current, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	fileType, payload, err := storage.Sniff(r, storage.ImageTypes)
	if err != nil {
		return nil, uploadError("avatar", "an image", err)
	}

	name := storage.GenerateFileName(fileType.Extension)
	if _, err := s.avatars.Save(name, payload); err != nil {
		s.logger.Error("failed to store avatar", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	if err := s.profileRepo.SetAvatar(ctx, userID, name); err != nil {
		s.removeFile(name)
		return nil, err
	}
	if current.Avatar != "" {
		s.removeFile(current.Avatar)
	}

	current.Avatar = name
	current.HasAvatar = true
	return current, nil
}

// Avatar opens the avatar image of a user. The caller must close the file.
func (s *profileService) Avatar(ctx context.Context, userID int) (*os.File, error) {
	p, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Avatar == "" {
		return nil, apperrors.Clone(apperrors.ErrNotFound, "no avatar uploaded")
	}
	f, err := s.avatars.Open(p.Avatar)
	if os.IsNotExist(err) {
		return nil, apperrors.Wrap(err, apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, "avatar file is missing")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open avatar: %w", err)
	}
	return f, nil
}

func (s *profileService) removeFile(name string) {
	if err := s.avatars.Delete(name); err != nil {
		s.logger.Warn("failed to remove avatar file", zap.String("file", name), zap.Error(err))
	}
}

// uploadError maps a sniffing failure of an upload to a VALIDATION_ERROR
func uploadError(what, kinds string, err error) error {
	switch {
	case errors.Is(err, storage.ErrEmptyFile):
		return apperrors.Clone(apperrors.ErrValidation, what+" is empty")
	case errors.Is(err, storage.ErrUnsupportedType):
		return apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status,
			fmt.Sprintf("%s must be %s: %v", what, kinds, err))
	}
	return fmt.Errorf("failed to read %s: %w", what, err)
}
