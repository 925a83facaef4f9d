package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-backend/internal/apperrors"
)

func TestHistoryLimit(t *testing.T) {
	tests := map[string]int{
		"":           defaultHistoryLimit,
		"?limit=abc": defaultHistoryLimit,
		"?limit=-3":  defaultHistoryLimit,
		"?limit=10":  10,
		"?limit=900": maxHistoryLimit,
	}
	for query, want := range tests {
		assert.Equal(t, want, historyLimit(httptest.NewRequest("GET", "/api/tenant/readings"+query, nil)), query)
	}
}

func TestDecodeJSON(t *testing.T) {
	type loginBody struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"email":"owner@example.com","password":"long-enough"}`, ""},
		{"malformed", `{"email":`, "Invalid request body"},
		{"missing email", `{"password":"long-enough"}`, "email is required"},
		{"bad email and short password", `{"email":"nope","password":"short"}`, "email must be a valid email; password must be at least 8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v loginBody
			err := decodeJSON(httptest.NewRequest("POST", "/", strings.NewReader(tt.body)), &v)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
