package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/models"
	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

type TenantHandler struct {
	Service  *services.TenantService
	Readings *services.ReadingService
	logger   *zap.Logger
}

func NewTenantHandler(s *services.TenantService, readings *services.ReadingService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{Service: s, Readings: readings, logger: logger}
}

// Create registers a tenant; the response carries the one-time password
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.CreateTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	resp, err := h.Service.Register(r.Context(), owner, &req)
	if err != nil {
		writeError(w, h.logger, "register tenant", err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	tenants, err := h.Service.List(r.Context(), owner)
	if err != nil {
		writeError(w, h.logger, "list tenants", err)
		return
	}
	if tenants == nil {
		tenants = []*models.User{}
	}
	utils.JSON(w, http.StatusOK, tenants)
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, err)
		return
	}
	tenant, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get tenant", err)
		return
	}
	utils.JSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) UpdateRent(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, err)
		return
	}
	var req models.UpdateRentRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	tenant, err := h.Service.UpdateRent(r.Context(), owner, id, req.RentAmount)
	if err != nil {
		writeError(w, h.logger, "update rent", err)
		return
	}
	utils.JSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, err)
		return
	}
	if err := h.Service.Delete(r.Context(), owner, id); err != nil {
		writeError(w, h.logger, "delete tenant", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Tenant deleted successfully"})
}

// ListReadings lists a tenant's recent readings for the owner
func (h *TenantHandler) ListReadings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, err)
		return
	}
	if _, err := h.Service.Get(r.Context(), id); err != nil {
		writeError(w, h.logger, "get tenant", err)
		return
	}
	views, err := h.Readings.History(r.Context(), id, historyLimit(r))
	if err != nil {
		writeError(w, h.logger, "tenant readings", err)
		return
	}
	utils.JSON(w, http.StatusOK, views)
}
