package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/models"
	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

type RateHandler struct {
	Service    *services.RateService
	WaterBills *services.WaterBillService
	logger     *zap.Logger
}

func NewRateHandler(s *services.RateService, waterBills *services.WaterBillService, logger *zap.Logger) *RateHandler {
	return &RateHandler{Service: s, WaterBills: waterBills, logger: logger}
}

func (h *RateHandler) Current(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Service.CurrentRate(r.Context(), h.Service.Now())
	if err != nil {
		writeError(w, h.logger, "current rate", err)
		return
	}
	if rate == nil {
		utils.ErrorMessage(w, http.StatusNotFound, "No electricity rate set")
		return
	}
	utils.JSON(w, http.StatusOK, rate)
}

func (h *RateHandler) Set(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.SetRateRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	rate, err := h.Service.SetRate(r.Context(), owner, req.RatePerUnit)
	if err != nil {
		writeError(w, h.logger, "set rate", err)
		return
	}
	utils.JSON(w, http.StatusCreated, rate)
}

func (h *RateHandler) History(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Service.History(r.Context())
	if err != nil {
		writeError(w, h.logger, "rate history", err)
		return
	}
	if rates == nil {
		rates = []*models.ElectricityRate{}
	}
	utils.JSON(w, http.StatusOK, rates)
}

func (h *RateHandler) WaterBillHistory(w http.ResponseWriter, r *http.Request) {
	bills, err := h.WaterBills.History(r.Context(), historyLimit(r))
	if err != nil {
		writeError(w, h.logger, "water bills", err)
		return
	}
	if bills == nil {
		bills = []*models.WaterBill{}
	}
	utils.JSON(w, http.StatusOK, bills)
}
