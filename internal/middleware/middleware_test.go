package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rent-backend/internal/auth"
	"rent-backend/internal/config"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories/memory"
)

type authFixture struct {
	mw     *AuthMiddleware
	jwt    *auth.JWTManager
	owner  *models.User
	tenant *models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "rent-backend-test"

	store := memory.NewStore()
	owner := &models.User{Name: "Owner", Email: "owner@example.com", IsOwner: true}
	require.NoError(t, store.Users.Create(context.Background(), owner))
	tenant := &models.User{Name: "Asha", TenantCode: "T001"}
	require.NoError(t, store.Users.Create(context.Background(), tenant))

	jwtManager := auth.NewJWTManager(cfg)
	return &authFixture{mw: NewAuthMiddleware(jwtManager, store.Users), jwt: jwtManager, owner: owner, tenant: tenant}
}

func (f *authFixture) token(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(u)
	require.NoError(t, err)
	return token
}

// whoami answers with the name of the authenticated user.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(user.Name))
})

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	handler := f.mw.Authenticate(whoami)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header required\n"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid authorization format\n"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid or expired token\n"},
		{"owner token", "Bearer " + f.token(t, f.owner), http.StatusOK, "Owner"},
		{"tenant token", "Bearer " + f.token(t, f.tenant), http.StatusOK, "Asha"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	ghost := &models.User{ID: 4242, Name: "Ghost"}

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, ghost))
	rec := httptest.NewRecorder()
	f.mw.Authenticate(whoami).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTwoFactorTempTokenRejected(t *testing.T) {
	f := newAuthFixture(t)
	f.owner.TOTPEnabled = true
	temp, err := f.jwt.GenerateTempToken(f.owner)
	require.NoError(t, err)

	reached := false
	handler := f.mw.Authenticate(f.mw.RequireOwner(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		reached = true
	})))
	req := httptest.NewRequest("GET", "/api/owner/tenants", nil)
	req.Header.Set("Authorization", "Bearer "+temp)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestQueryTokenOnlyForUpgrades(t *testing.T) {
	f := newAuthFixture(t)
	handler := f.mw.Authenticate(whoami)
	path := "/api/owner/events?token=" + f.token(t, f.owner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Owner", rec.Body.String())
}

func TestRoleGuards(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name       string
		guard      func(http.Handler) http.Handler
		user       *models.User
		wantStatus int
	}{
		{"owner route as owner", f.mw.RequireOwner, f.owner, http.StatusOK},
		{"owner route as tenant", f.mw.RequireOwner, f.tenant, http.StatusForbidden},
		{"tenant route as tenant", f.mw.RequireTenant, f.tenant, http.StatusOK},
		{"tenant route as owner", f.mw.RequireTenant, f.owner, http.StatusForbidden},
		{"owner route anonymous", f.mw.RequireOwner, nil, http.StatusForbidden},
		{"tenant route anonymous", f.mw.RequireTenant, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			tt.guard(whoami).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPanicRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := PanicRecovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "Internal server error"}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/explode", logs.All()[0].ContextMap()["path"])
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("made"))
	}))

	t.Run("generates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/things", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	})

	t.Run("echoes client request id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/things", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	})

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	last := entries[1].ContextMap()
	assert.Equal(t, "req-123", last["request_id"])
	assert.Equal(t, int64(http.StatusCreated), last["status"])
	assert.Equal(t, int64(4), last["bytes"])
}
