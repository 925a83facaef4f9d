package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed" // verified by the processor
	PaymentStatusConfirmed PaymentStatus = "confirmed" // verified by the owner
	PaymentStatusRejected  PaymentStatus = "rejected"
)

type Payment struct {
	ID                   int             `json:"id"`
	UserID               int             `json:"user_id"`
	Amount               decimal.Decimal `json:"amount"`
	RentAmount           decimal.Decimal `json:"rent_amount"`
	ElectricityAmount    decimal.Decimal `json:"electricity_amount"`
	WaterAmount          decimal.Decimal `json:"water_amount"`
	PaymentMethod        PaymentMethod   `json:"payment_method"`
	Status               PaymentStatus   `json:"status"`
	ProcessorReference   string          `json:"processor_reference,omitempty"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	PaymentDate          time.Time       `json:"payment_date"`
	TenantName           string          `json:"tenant_name,omitempty"` // Joined from users table
}

// Reference returns whichever reference identifies the payment to humans.
func (p *Payment) Reference() string {
	if p.TransactionReference != "" {
		return p.TransactionReference
	}
	return p.ProcessorReference
}

// BlocksNewPayment reports whether this payment hides the pay option for
// the current billing period.
func (p *Payment) BlocksNewPayment() bool {
	switch p.Status {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusConfirmed:
		return true
	}
	return false
}

type CreatePaymentRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required"`
}

// CreatePaymentResponse is returned to the tenant after a payment is started.
// For card payments OrderID/KeyID drive the checkout widget.
type CreatePaymentResponse struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret,omitempty"`
	OrderID      string   `json:"order_id,omitempty"`
	AmountMinor  int64    `json:"amount_minor,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// VerifyPaymentRequest is posted by the checkout widget after payment
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// AmountDue is the billing breakdown for one tenant at one instant.
type AmountDue struct {
	Rent               decimal.Decimal `json:"rent"`
	Electricity        decimal.Decimal `json:"electricity"`
	Water              decimal.Decimal `json:"water"`
	Total              decimal.Decimal `json:"total"`
	LatestReadingAt    *time.Time      `json:"latest_reading_at,omitempty"`
	OutstandingPayment *Payment        `json:"outstanding_payment,omitempty"`
	ShowPaymentOptions bool            `json:"show_payment_options"`
}
