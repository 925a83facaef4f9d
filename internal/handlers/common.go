package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/middleware"
	"rent-backend/internal/models"
	"rent-backend/pkg/utils"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads the body into v and runs struct validation.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return apperrors.Validation("%s", strings.Join(msgs, "; "))
		}
		return apperrors.Validation("%s", err.Error())
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	default:
		return field + " is invalid"
	}
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid %s", name)
	}
	return id, nil
}

// currentUser returns the authenticated user; routes without Authenticate
// never call it.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		utils.ErrorMessage(w, http.StatusUnauthorized, "Authentication required")
	}
	return user, ok
}

// writeError maps err to its status; unexpected errors are logged with op.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	if utils.StatusFor(err) == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
	}
	utils.Error(w, err)
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// historyLimit reads ?limit=, clamped to (0, maxHistoryLimit]
func historyLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultHistoryLimit
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}
