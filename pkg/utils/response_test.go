package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-backend/internal/apperrors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.Validation("rent must be positive"), http.StatusBadRequest},
		{apperrors.NotFound("tenant not found"), http.StatusNotFound},
		{apperrors.Unauthorized("owner only"), http.StatusForbidden},
		{apperrors.Unauthenticated("bad credentials"), http.StatusUnauthorized},
		{apperrors.Conflict("email already registered"), http.StatusConflict},
		{apperrors.ExternalService(errors.New("card declined")), http.StatusBadGateway},
		{fmt.Errorf("save payment: %w", apperrors.NotFound("payment not found")), http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestErrorBody(t *testing.T) {
	decode := func(rec *httptest.ResponseRecorder) map[string]string {
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	rec := httptest.NewRecorder()
	Error(rec, apperrors.ExternalService(errors.New("Your card was declined.")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Your card was declined.", decode(rec)["error"])

	rec = httptest.NewRecorder()
	Error(rec, errors.New("pq: relation does not exist"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(rec)["error"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
