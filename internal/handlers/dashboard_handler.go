package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

type DashboardHandler struct {
	Service *services.DashboardService
	logger  *zap.Logger
}

func NewDashboardHandler(s *services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Service: s, logger: logger}
}

func (h *DashboardHandler) Tenant(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dash, err := h.Service.Tenant(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, "tenant dashboard", err)
		return
	}
	utils.JSON(w, http.StatusOK, dash)
}

func (h *DashboardHandler) Owner(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dash, err := h.Service.Owner(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, "owner dashboard", err)
		return
	}
	utils.JSON(w, http.StatusOK, dash)
}
