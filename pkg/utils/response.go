package utils

import (
	"encoding/json"
	"net/http"

	"rent-backend/internal/apperrors"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindUnauthorized:
		return http.StatusForbidden
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"error": msg}. Internal errors are not echoed.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	JSON(w, status, map[string]string{"error": msg})
}

// ErrorMessage writes a plain {"error": msg} with the given status
func ErrorMessage(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}
