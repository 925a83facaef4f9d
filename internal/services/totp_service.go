package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/auth"
	"rent-backend/internal/cache"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

const (
	totpIssuer        = "RentManager"
	maxFailedAttempts = 5
	rateLimitWindow   = 15 * time.Minute
)

var (
	ErrTooManyAttempts = apperrors.Validation("too many failed attempts, please try again later")
	ErrNoTOTPSecret    = apperrors.Validation("2FA setup not initiated")
	ErrInvalidTOTPCode = apperrors.Validation("invalid verification code")
	ErrTOTPNotEnabled  = apperrors.Validation("2FA is not enabled")
	ErrInvalidPassword = apperrors.Validation("invalid password")
)

// TOTPService manages the owner's optional authenticator-app second factor.
type TOTPService struct {
	Users repositories.UserStore
}

func NewTOTPService(users repositories.UserStore) *TOTPService {
	return &TOTPService{Users: users}
}

// GenerateSetup creates a new TOTP secret and QR code for the owner
func (s *TOTPService) GenerateSetup(ctx context.Context, user *models.User) (*models.TOTPSetupResponse, error) {
	if err := requireOwner(user); err != nil {
		return nil, err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	// Store the secret (not yet enabled)
	if err := s.Users.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      totpIssuer,
		AccountName: user.Email,
	}, nil
}

func attemptsKey(userID int) string {
	return "totp:attempts:" + strconv.Itoa(userID)
}

// VerifyAndEnable verifies a TOTP code and enables 2FA
func (s *TOTPService) VerifyAndEnable(ctx context.Context, userID int, code string) error {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return notFound(err, "user %d not found", userID)
	}
	if user.TOTPSecret == "" {
		return ErrNoTOTPSecret
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.Users.EnableTOTP(ctx, userID)
}

// Verify validates a TOTP code during login
func (s *TOTPService) Verify(ctx context.Context, userID int, code string) error {
	if cache.IncrWithin(ctx, attemptsKey(userID), rateLimitWindow) > maxFailedAttempts {
		return ErrTooManyAttempts
	}
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return notFound(err, "user %d not found", userID)
	}
	if !user.TOTPEnabled || user.TOTPSecret == "" {
		return ErrTOTPNotEnabled
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	cache.InvalidateKeys(ctx, attemptsKey(userID))
	return nil
}

// Disable disables 2FA after verifying password and current TOTP code
func (s *TOTPService) Disable(ctx context.Context, userID int, password, code string) error {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return notFound(err, "user %d not found", userID)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return ErrInvalidPassword
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.Users.DisableTOTP(ctx, userID)
}
