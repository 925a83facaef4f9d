package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

type ReminderHandler struct {
	Service *services.ReminderService
	logger  *zap.Logger
}

func NewReminderHandler(s *services.ReminderService, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{Service: s, logger: logger}
}

// Run triggers today's reminder sweep outside the schedule
func (h *ReminderHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.SendDueReminders(r.Context())
	if err != nil {
		writeError(w, h.logger, "reminder sweep", err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
