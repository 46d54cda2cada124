package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenLifetime is how long an emailed reset token stays valid
const ResetTokenLifetime = time.Hour

// PasswordResetRepository is the interface that wraps methods for password_resets table data access
type PasswordResetRepository interface {
	// Method Create stores the hash of a reset token.
	Create(ctx context.Context, reset *models.PasswordReset) error
	// Method GetByHash retrieves a reset by token hash.
	//
	// If the hash is unknown, a NOT_FOUND error is returned together with "nil" value.
	GetByHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	// Method DeleteByUser removes every reset of "userID".
	DeleteByUser(ctx context.Context, userID int) error
}

// PasswordUserRepository reads accounts by email and replaces password hashes
type PasswordUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// SessionRevoker revokes all refresh tokens of a user
type SessionRevoker interface {
	DeleteByUser(ctx context.Context, userID int) error
}

// ResetMailer delivers password reset tokens
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, m PasswordResetMail) error
}

var errInvalidResetToken = apperrors.Clone(apperrors.ErrUnauthorized, "invalid or expired reset token")

// passwordResetService handles forgotten passwords with emailed one-time tokens
type passwordResetService struct {
	userRepo   PasswordUserRepository
	resetRepo  PasswordResetRepository
	sessions   SessionRevoker
	mailer     ResetMailer
	logger     *zap.Logger
	now        func() time.Time
	bcryptCost int
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	userRepo PasswordUserRepository,
	resetRepo PasswordResetRepository,
	sessions SessionRevoker,
	mailer ResetMailer,
	logger *zap.Logger,
) *passwordResetService {
	return &passwordResetService{
		userRepo:   userRepo,
		resetRepo:  resetRepo,
		sessions:   sessions,
		mailer:     mailer,
		logger:     logger,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// ForgotPassword emails a reset token to a registered address
//
// An unknown email is not reported so accounts cannot be enumerated.
func (s *passwordResetService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.resetRepo.Create(ctx, &models.PasswordReset{TokenHash: hashResetToken(token), UserID: user.ID}); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, PasswordResetMail{Email: user.Email, Name: user.Name, Token: token}); err != nil {
		s.logger.Warn("failed to send password reset email", zap.Int("user_id", user.ID), zap.Error(err))
	}
	s.logger.Info("password reset requested", zap.Int("user_id", user.ID))
	return nil
}

// ResetPassword sets a new password with a valid token, then revokes every reset and refresh token of the user
func (s *passwordResetService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	req.Token = strings.TrimSpace(req.Token)
	if err := validateRequest(req); err != nil {
		return err
	}

	reset, err := s.resetRepo.GetByHash(ctx, hashResetToken(req.Token))
	if errors.Is(err, apperrors.ErrNotFound) {
		return errInvalidResetToken
	}
	if err != nil {
		return err
	}
	if !s.now().Before(reset.CreatedAt.Add(ResetTokenLifetime)) {
		return errInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
		return err
	}

	if err := s.resetRepo.DeleteByUser(ctx, reset.UserID); err != nil {
		s.logger.Error("failed to revoke reset tokens", zap.Int("user_id", reset.UserID), zap.Error(err))
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, reset.UserID); err != nil {
		s.logger.Error("failed to revoke refresh tokens", zap.Int("user_id", reset.UserID), zap.Error(err))
		return err
	}

	s.logger.Info("password reset", zap.Int("user_id", reset.UserID))
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
