package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/models"
	"rent-backend/internal/payment"
	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

const maxWebhookBytes = 1 << 20

// SignatureVerifier checks Razorpay checkout and webhook signatures.
// *payment.RazorpayProcessor implements it.
type SignatureVerifier interface {
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

type RazorpayHandler struct {
	Payments *services.PaymentService
	Verifier SignatureVerifier
	logger   *zap.Logger
}

// NewRazorpayHandler takes a nil verifier when online payments are not configured.
func NewRazorpayHandler(payments *services.PaymentService, verifier SignatureVerifier, logger *zap.Logger) *RazorpayHandler {
	return &RazorpayHandler{Payments: payments, Verifier: verifier, logger: logger.Named("razorpay")}
}

// VerifyPayment is called by the checkout widget after a card payment
// POST /api/payments/verify
func (h *RazorpayHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	tenant, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.Verifier == nil {
		utils.ErrorMessage(w, http.StatusServiceUnavailable, "Online payments are not configured")
		return
	}
	var req models.VerifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	if !h.Verifier.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		h.logger.Warn("invalid payment signature", zap.Int("tenant_id", tenant.ID), zap.String("order_id", req.RazorpayOrderID))
		utils.ErrorMessage(w, http.StatusBadRequest, "Invalid payment signature")
		return
	}
	p, err := h.Payments.ConfirmCheckout(r.Context(), tenant, req.RazorpayOrderID)
	if err != nil {
		writeError(w, h.logger, "verify payment", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"message": "Payment successful", "payment": p})
}

// HandleWebhook processes Razorpay webhook events
// POST /api/payments/webhook
func (h *RazorpayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		utils.ErrorMessage(w, http.StatusServiceUnavailable, "Online payments are not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		utils.ErrorMessage(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Verifier.VerifyWebhookSignature(body, signature) {
		h.logger.Warn("invalid webhook signature")
		utils.ErrorMessage(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	event, err := payment.ParseWebhook(body)
	if err != nil {
		utils.ErrorMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	h.logger.Info("received webhook", zap.String("event", event.Event), zap.String("order_id", event.OrderID))

	if event.Event == "payment.captured" && event.OrderID != "" {
		_, err := h.Payments.ConfirmByProcessor(r.Context(), event.OrderID)
		switch {
		case err == nil:
		case apperrors.Is(err, apperrors.KindNotFound):
			// Razorpay would retry an unknown order forever
			h.logger.Warn("webhook for unknown order", zap.String("order_id", event.OrderID))
		default:
			// a non-2xx answer makes Razorpay redeliver the event
			writeError(w, h.logger, "webhook", err)
			return
		}
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
