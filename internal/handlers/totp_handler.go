package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/models"
	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

type TOTPHandler struct {
	TOTPService *services.TOTPService
	logger      *zap.Logger
}

func NewTOTPHandler(totpService *services.TOTPService, logger *zap.Logger) *TOTPHandler {
	return &TOTPHandler{TOTPService: totpService, logger: logger}
}

// SetupTOTP initiates 2FA setup - returns secret and QR code
func (h *TOTPHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if user.TOTPEnabled {
		utils.ErrorMessage(w, http.StatusBadRequest, "2FA is already enabled")
		return
	}
	response, err := h.TOTPService.GenerateSetup(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, "totp setup", err)
		return
	}
	utils.JSON(w, http.StatusOK, response)
}

// EnableTOTP verifies the first code and turns 2FA on
func (h *TOTPHandler) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.TOTPEnableRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	if err := h.TOTPService.VerifyAndEnable(r.Context(), user.ID, req.Code); err != nil {
		writeError(w, h.logger, "totp enable", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "2FA enabled"})
}

func (h *TOTPHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.TOTPDisableRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	if err := h.TOTPService.Disable(r.Context(), user.ID, req.Password, req.Code); err != nil {
		writeError(w, h.logger, "totp disable", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "2FA disabled"})
}

func (h *TOTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, map[string]bool{"enabled": user.TOTPEnabled})
}
