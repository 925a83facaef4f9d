package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/auth"
	"rent-backend/internal/cache"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

var errInvalidCredentials = apperrors.Unauthenticated("invalid credentials")

// UserService handles owner registration, login and password changes.
type UserService struct {
	Users      repositories.UserStore
	Tx         repositories.TxManager
	JWTManager *auth.JWTManager
	TOTP       *TOTPService
	logger     *zap.Logger
}

func NewUserService(store *repositories.Store, jwtManager *auth.JWTManager, totpService *TOTPService, logger *zap.Logger) *UserService {
	return &UserService{
		Users:      store.Users,
		Tx:         store.Tx,
		JWTManager: jwtManager,
		TOTP:       totpService,
		logger:     logger.Named("auth"),
	}
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "user %d not found", id)
	}
	return u, nil
}

// RegisterOwner creates the owner account. Only one owner may exist.
func (s *UserService) RegisterOwner(ctx context.Context, req *models.RegisterOwnerRequest) (*models.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, apperrors.Validation("name, email, and password are required")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return nil, apperrors.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsOwner:      true,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		owner, err := s.Users.GetOwner(ctx)
		if err != nil {
			return err
		}
		if owner != nil {
			return apperrors.Conflict("an owner account already exists")
		}
		existing, err := s.Users.GetByEmail(ctx, req.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.Conflict("email already registered")
		}
		return s.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("owner registered", zap.Int("user_id", user.ID))
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) lookup(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.Users.GetByTenantCode(ctx, identifier)
	if err != nil || user != nil {
		return user, err
	}
	return s.Users.GetByEmail(ctx, strings.ToLower(identifier))
}

// Login authenticates by tenant id or email. When the user has 2FA enabled
// the first value is nil and a temp token is returned instead.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *models.LoginStep1Response, error) {
	identifier := req.LoginIdentifier()
	if identifier == "" || req.Password == "" {
		return nil, nil, apperrors.Validation("tenant id or email and password are required")
	}

	var user *models.User
	if userID, ok := cache.GetCachedAuth(ctx, identifier, req.Password); ok {
		u, err := s.Users.Get(ctx, userID)
		if err == nil {
			user = u
		}
	}
	if user == nil {
		u, err := s.lookup(ctx, identifier)
		if err != nil {
			return nil, nil, err
		}
		if u == nil || !auth.VerifyPassword(u.PasswordHash, req.Password) {
			s.logger.Info("login failed", zap.String("identifier", identifier))
			return nil, nil, errInvalidCredentials
		}
		cache.CacheAuth(ctx, identifier, req.Password, u.ID)
		user = u
	}

	if user.TOTPEnabled {
		tempToken, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, nil, err
		}
		return nil, &models.LoginStep1Response{
			Requires2FA: true,
			TempToken:   tempToken,
			Message:     "Enter the code from your authenticator app",
		}, nil
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("login", zap.Int("user_id", user.ID), zap.Bool("owner", user.IsOwner))
	return &models.AuthResponse{Token: token, User: user}, nil, nil
}

// VerifyTwoFactor completes a login started with a temp token.
func (s *UserService) VerifyTwoFactor(ctx context.Context, req *models.TOTPVerifyRequest) (*models.AuthResponse, error) {
	claims, err := s.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid or expired token")
	}
	if err := s.TOTP.Verify(ctx, claims.UserID, req.Code); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrCurrentPasswordIncorrect
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.Validation("new passwords do not match")
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		return apperrors.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.Users.UpdatePassword(ctx, userID, hash)
	})
	if err != nil {
		return notFound(err, "user %d not found", userID)
	}
	cache.InvalidateUserAuth(ctx, userID)
	s.logger.Info("password changed", zap.Int("user_id", userID))
	return nil
}

var ErrCurrentPasswordIncorrect = apperrors.Unauthenticated("Current password is incorrect")
