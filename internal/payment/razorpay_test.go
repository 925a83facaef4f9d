package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	p := NewRazorpayProcessor("rzp_test_key", "key_secret", "hook_secret", zap.NewNop())

	good := sign("order_1|pay_1", "key_secret")
	assert.True(t, p.VerifyPaymentSignature("order_1", "pay_1", good))
	assert.False(t, p.VerifyPaymentSignature("order_1", "pay_2", good))
	assert.False(t, p.VerifyPaymentSignature("order_1", "pay_1", sign("order_1|pay_1", "other")))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	p := NewRazorpayProcessor("k", "s", "hook_secret", zap.NewNop())
	assert.True(t, p.VerifyWebhookSignature(body, sign(string(body), "hook_secret")))
	assert.False(t, p.VerifyWebhookSignature(body, sign(string(body), "s")))

	noSecret := NewRazorpayProcessor("k", "s", "", zap.NewNop())
	assert.False(t, noSecret.VerifyWebhookSignature(body, sign(string(body), "")))
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9"}}}}`)
	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "payment.captured", ev.Event)
	assert.Equal(t, "order_9", ev.OrderID)
	assert.Equal(t, "pay_9", ev.PaymentID)

	_, err = ParseWebhook([]byte("not json"))
	assert.Error(t, err)
}

func TestSandboxProcessor(t *testing.T) {
	p := NewSandboxProcessor()
	intent, err := p.CreateIntent(context.Background(), 550000, "INR", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, intent.Reference)
	assert.NotEqual(t, intent.Reference, intent.ClientSecret)

	_, err = p.CreateIntent(context.Background(), 0, "INR", nil)
	assert.Error(t, err)
}
