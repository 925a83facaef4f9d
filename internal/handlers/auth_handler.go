package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/models"
	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
	logger  *zap.Logger
}

func NewAuthHandler(s *services.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Service: s, logger: logger}
}

// RegisterOwner creates the single owner account
func (h *AuthHandler) RegisterOwner(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterOwnerRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	resp, err := h.Service.RegisterOwner(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, "register owner", err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	resp, step1, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, "login", err)
		return
	}
	if step1 != nil {
		utils.JSON(w, http.StatusOK, step1)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// VerifyTwoFactor is login step 2 for users with 2FA
func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	resp, err := h.Service.VerifyTwoFactor(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, "verify 2fa", err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), user.ID, &req); err != nil {
		writeError(w, h.logger, "change password", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
