package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create inserts a new user and sets its ID.
	//
	// If the email is already registered, a CONFLICT error is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email.
	//
	// If no user has this email, a NOT_FOUND error is returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If no user has this ID, a NOT_FOUND error is returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// UserTokenRepository is the interface that wraps methods for user_tokens table data access
type UserTokenRepository interface {
	// Method Create stores a refresh token of a user.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a stored refresh token.
	//
	// If the token is unknown, a NOT_FOUND error is returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken replaces "oldToken" of user "userID" with "newToken".
	//
	// If the pair does not exist, a NOT_FOUND error is returned.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByToken deletes a refresh token. Deleting an unknown token is not an error.
	DeleteByToken(ctx context.Context, token string) error
}

// TokenIssuer issues and validates JWT tokens
//
// Implemented by auth.TokenGenerator.
type TokenIssuer interface {
	GenerateTokens(userID int, role int) (string, string, error)
	ValidateRefreshToken(token string) error
}

var errInvalidCredentials = apperrors.Clone(apperrors.ErrUnauthorized, "invalid email or password")

// authService handles registration, login and refresh token rotation
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator TokenIssuer
	logger         *zap.Logger
	bcryptCost     int
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, userTokenRepo UserTokenRepository, tokenGenerator TokenIssuer, logger *zap.Logger) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// Register creates a student account and signs it in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (models.TokenPair, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return models.TokenPair{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return models.TokenPair{}, err
	}

	s.logger.Info("user registered", zap.Int("user_id", user.ID))
	return s.issueTokens(ctx, user)
}

// Login authenticates a user by email and password
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (models.TokenPair, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.authenticate(ctx, req)
	if err != nil {
		return models.TokenPair{}, err
	}
	return s.issueTokens(ctx, user)
}

// AdminLogin authenticates an administrator; other accounts get ACCESS_DENIED and no tokens
func (s *authService) AdminLogin(ctx context.Context, req *models.LoginRequest) (models.TokenPair, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.authenticate(ctx, req)
	if err != nil {
		return models.TokenPair{}, err
	}
	if user.Role != models.RoleAdmin {
		s.logger.Warn("non-admin account used admin login", zap.Int("user_id", user.ID))
		return models.TokenPair{}, apperrors.Clone(apperrors.ErrAccessDenied, "administrator account required")
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// Refresh rotates a refresh token and returns a new token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		return models.TokenPair{}, apperrors.Clone(apperrors.ErrUnauthorized, "refresh token is required")
	}
	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		return models.TokenPair{}, apperrors.Wrap(err, apperrors.ErrUnauthorized.Code, apperrors.ErrUnauthorized.Status, "invalid or expired refresh token")
	}

	stored, err := s.userTokenRepo.GetByToken(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.TokenPair{}, apperrors.Clone(apperrors.ErrUnauthorized, "refresh token has been revoked")
	}
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	access, refresh, err := s.tokenGenerator.GenerateTokens(user.ID, int(user.Role))
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, refresh, user.ID); err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes a refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.userTokenRepo.DeleteByToken(ctx, refreshToken)
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (models.TokenPair, error) {
	access, refresh, err := s.tokenGenerator.GenerateTokens(user.ID, int(user.Role))
	if err != nil {
		return models.TokenPair{}, err
	}
	if err := s.userTokenRepo.Create(ctx, &models.UserToken{UserID: user.ID, Token: refresh}); err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
