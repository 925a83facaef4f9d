package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

// RazorpayProcessor creates Razorpay orders and verifies checkout and
// webhook signatures.
type RazorpayProcessor struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *zap.Logger
}

func NewRazorpayProcessor(keyID, keySecret, webhookSecret string, logger *zap.Logger) *RazorpayProcessor {
	return &RazorpayProcessor{
		client:        razorpay.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		logger:        logger.Named("razorpay"),
	}
}

// CreateIntent creates a Razorpay order. The order id is the payment
// reference and the key id is what the checkout widget needs.
func (p *RazorpayProcessor) CreateIntent(_ context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	notes := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		notes[k] = v
	}

	orderData := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  fmt.Sprintf("rcpt_%s_%d", metadata["user_id"], time.Now().Unix()),
		"notes":    notes,
	}

	order, err := p.client.Order.Create(orderData, nil)
	if err != nil {
		p.logger.Warn("order create failed", zap.Error(err))
		return nil, err
	}

	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return nil, errors.New("razorpay returned an order without id")
	}
	p.logger.Info("order created", zap.String("order_id", orderID), zap.Int64("amount", amountMinor))

	return &Intent{Reference: orderID, ClientSecret: p.keyID}, nil
}

// VerifyPaymentSignature checks the signature the checkout widget returns:
// hex(HMAC-SHA256(order_id|payment_id, key_secret)).
func (p *RazorpayProcessor) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifyHMAC(orderID+"|"+paymentID, p.keySecret, signature)
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw body.
func (p *RazorpayProcessor) VerifyWebhookSignature(body []byte, signature string) bool {
	if p.webhookSecret == "" {
		return false
	}
	return verifyHMAC(string(body), p.webhookSecret, signature)
}

func verifyHMAC(message, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookEvent is the part of a Razorpay webhook payload we act on.
type WebhookEvent struct {
	Event     string
	OrderID   string
	PaymentID string
}

func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return &WebhookEvent{
		Event:     payload.Event,
		OrderID:   payload.Payload.Payment.Entity.OrderID,
		PaymentID: payload.Payload.Payment.Entity.ID,
	}, nil
}
