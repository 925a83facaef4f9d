package handlers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/models"
	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

type PaymentHandler struct {
	Service  *services.PaymentService
	Billing  *services.BillingService
	Receipts *services.ReceiptService
	logger   *zap.Logger
}

func NewPaymentHandler(s *services.PaymentService, billing *services.BillingService, receipts *services.ReceiptService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Service: s, Billing: billing, Receipts: receipts, logger: logger}
}

// AmountDue returns the caller's current bill breakdown
func (h *PaymentHandler) AmountDue(w http.ResponseWriter, r *http.Request) {
	tenant, ok := currentUser(w, r)
	if !ok {
		return
	}
	due, err := h.Billing.AmountDue(r.Context(), tenant.ID, h.Service.Now())
	if err != nil {
		writeError(w, h.logger, "amount due", err)
		return
	}
	utils.JSON(w, http.StatusOK, due)
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	resp, err := h.Service.CreatePayment(r.Context(), tenant.ID, req.PaymentMethod)
	if err != nil {
		writeError(w, h.logger, "create payment", err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// List returns all payments to the owner and a tenant's own payments to a tenant
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var (
		payments []*models.Payment
		err      error
	)
	if user.IsOwner {
		payments, err = h.Service.ListAll(r.Context(), user)
	} else {
		payments, err = h.Service.ListForTenant(r.Context(), user.ID, 0)
	}
	if err != nil {
		writeError(w, h.logger, "list payments", err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	utils.JSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) Pending(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	payments, err := h.Service.ListPending(r.Context(), owner)
	if err != nil {
		writeError(w, h.logger, "pending payments", err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	utils.JSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, err)
		return
	}
	p, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, h.logger, "get payment", err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.ConfirmByOwner, "Payment confirmed successfully")
}

func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.RejectByOwner, "Payment rejected")
}

func (h *PaymentHandler) transition(w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, actor *models.User, id int) (*models.Payment, error), message string) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, err)
		return
	}
	p, err := apply(r.Context(), owner, id)
	if err != nil {
		writeError(w, h.logger, "update payment", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"message": message, "payment": p})
}

// Receipt streams the PDF receipt of a payment
func (h *PaymentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, err)
		return
	}
	pdf, err := h.Receipts.Receipt(r.Context(), user, id)
	if err != nil {
		writeError(w, h.logger, "payment receipt", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%d.pdf", id))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
