package auth

import (
	"errors"
	"strconv"
	"time"

	"rent-backend/internal/config"
	"rent-backend/internal/models"
	"rent-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim. Only access tokens open the API.
const (
	TokenTypeAccess    = "access"
	TokenTypeTwoFactor = "2fa_pending"
)

type Claims struct {
	UserID     int    `json:"user_id"`
	IsOwner    bool   `json:"is_owner"`
	TenantCode string `json:"tenant_id,omitempty"`
	Type       string `json:"type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	cfg *config.Config
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// GenerateToken creates a new JWT token for a user
func (j *JWTManager) GenerateToken(user *models.User) (string, error) {
	now := timeutil.Now()
	hours := j.cfg.JWT.ExpirationHours
	if hours <= 0 {
		hours = 24
	}
	expirationTime := now.Add(time.Duration(hours) * time.Hour)

	claims := &Claims{
		UserID:     user.ID,
		IsOwner:    user.IsOwner,
		TenantCode: user.TenantCode,
		Type:       TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.cfg.JWT.Issuer,
			Subject:   strconv.Itoa(user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

// ValidateToken verifies a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// 2FA temp tokens share the secret; they must not pass as a login
	if claims.Type != TokenTypeAccess {
		return nil, errors.New("invalid token type")
	}

	return claims, nil
}

// TempClaims for short-lived 2FA tokens (used between login step 1 and step 2)
type TempClaims struct {
	UserID int    `json:"user_id"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// GenerateTempToken creates a short-lived token for 2FA verification (5 minutes)
func (j *JWTManager) GenerateTempToken(user *models.User) (string, error) {
	now := timeutil.Now()
	expirationTime := now.Add(5 * time.Minute) // 5 minute expiry for temp token

	claims := &TempClaims{
		UserID: user.ID,
		Type:   TokenTypeTwoFactor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

// ValidateTempToken verifies a temporary 2FA token and returns the claims
func (j *JWTManager) ValidateTempToken(tokenString string) (*TempClaims, error) {
	claims := &TempClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// Verify it's a temp 2FA token
	if claims.Type != TokenTypeTwoFactor {
		return nil, errors.New("invalid token type")
	}

	return claims, nil
}
