package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"rent-backend/internal/auth"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

type contextKey string

const UserKey contextKey = "user"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      repositories.UserStore
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users repositories.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		users:      users,
	}
}

// bearerToken extracts the token of "Bearer <token>". Browsers cannot set
// headers on websocket handshakes, so upgrades may pass ?token= instead.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" && websocket.IsWebSocketUpgrade(r) {
			return token, ""
		}
		return "", "Authorization header required"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format"
	}
	return parts[1], ""
}

// Authenticate validates the bearer token and loads the user it names. The
// user is read from the store on every request so deleted tenants lose
// access immediately.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, problem := bearerToken(r)
		if problem != "" {
			http.Error(w, problem, http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		user, err := m.users.Get(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireOwner must run after Authenticate
func (m *AuthMiddleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok || !user.IsOwner {
			http.Error(w, "Forbidden: owner access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTenant must run after Authenticate
func (m *AuthMiddleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok || user.IsOwner {
			http.Error(w, "Forbidden: tenant access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// CurrentUser returns the authenticated user of the request
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}
