package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rent-backend/internal/middleware"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
	"rent-backend/internal/repositories/memory"
	"rent-backend/internal/services"
)

// acceptAll passes every signature check.
type acceptAll struct{}

func (acceptAll) VerifyPaymentSignature(_, _, _ string) bool { return true }
func (acceptAll) VerifyWebhookSignature(_ []byte, _ string) bool { return true }

// brokenLookups fails reference lookups the way a dropped connection would.
type brokenLookups struct {
	repositories.PaymentStore
	err error
}

func (s *brokenLookups) GetByProcessorReference(ctx context.Context, reference string) (*models.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.PaymentStore.GetByProcessorReference(ctx, reference)
}

type razorpayFixture struct {
	store    *repositories.Store
	payments *brokenLookups
	handler  *RazorpayHandler
}

func newRazorpayFixture(t *testing.T) *razorpayFixture {
	t.Helper()
	base := memory.NewStore()
	lookups := &brokenLookups{PaymentStore: base.Payments}
	store := *base
	store.Payments = lookups
	svc := services.NewPaymentService(&store, nil, nil, "INR", "RENT", zap.NewNop())
	return &razorpayFixture{
		store:    &store,
		payments: lookups,
		handler:  NewRazorpayHandler(svc, acceptAll{}, zap.NewNop()),
	}
}

func (f *razorpayFixture) cardPayment(t *testing.T, tenantID int, reference string) *models.Payment {
	t.Helper()
	p := &models.Payment{
		UserID:             tenantID,
		Amount:             decimal.NewFromInt(5000),
		RentAmount:         decimal.NewFromInt(5000),
		PaymentMethod:      models.PaymentMethodCard,
		ProcessorReference: reference,
	}
	require.NoError(t, f.store.Payments.Create(context.Background(), p))
	return p
}

func (f *razorpayFixture) status(t *testing.T, id int) models.PaymentStatus {
	t.Helper()
	p, err := f.store.Payments.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func capturedEvent(orderID string) string {
	return `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"` + orderID + `"}}}}`
}

func TestWebhookStoreFailureIsRetried(t *testing.T) {
	f := newRazorpayFixture(t)
	p := f.cardPayment(t, 1, "order_1")
	f.payments.err = errors.New("connection reset")

	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, httptest.NewRequest("POST", "/api/payments/webhook", strings.NewReader(capturedEvent("order_1"))))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, models.PaymentStatusPending, f.status(t, p.ID))

	// Razorpay redelivers once the store is back
	f.payments.err = nil
	rec = httptest.NewRecorder()
	f.handler.HandleWebhook(rec, httptest.NewRequest("POST", "/api/payments/webhook", strings.NewReader(capturedEvent("order_1"))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentStatusCompleted, f.status(t, p.ID))
}

func TestWebhookUnknownOrderAcknowledged(t *testing.T) {
	f := newRazorpayFixture(t)

	rec := httptest.NewRecorder()
	f.handler.HandleWebhook(rec, httptest.NewRequest("POST", "/api/payments/webhook", strings.NewReader(capturedEvent("order_missing"))))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyPaymentOnlyOwnOrder(t *testing.T) {
	f := newRazorpayFixture(t)
	p := f.cardPayment(t, 1, "order_1")
	body := `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`

	verify := func(tenant *models.User) int {
		req := httptest.NewRequest("POST", "/api/tenant/payments/verify", strings.NewReader(body))
		req = req.WithContext(middleware.WithUser(req.Context(), tenant))
		rec := httptest.NewRecorder()
		f.handler.VerifyPayment(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, verify(&models.User{ID: 2, Name: "Ravi"}))
	assert.Equal(t, models.PaymentStatusPending, f.status(t, p.ID))

	assert.Equal(t, http.StatusOK, verify(&models.User{ID: 1, Name: "Asha"}))
	assert.Equal(t, models.PaymentStatusCompleted, f.status(t, p.ID))
}
