// Package payment holds the payment processor integrations used for card
// payments.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Intent is the processor's handle for a payment the tenant still has to
// complete in the checkout widget.
type Intent struct {
	Reference    string // processor order id, stored on the Payment
	ClientSecret string // handed to the checkout widget
}

// Processor creates payment intents. Errors carry the processor's own message.
type Processor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
}

// SandboxProcessor accepts every intent without calling out. Used when no
// processor credentials are configured.
type SandboxProcessor struct{}

func NewSandboxProcessor() *SandboxProcessor {
	return &SandboxProcessor{}
}

func (p *SandboxProcessor) CreateIntent(_ context.Context, amountMinor int64, currency string, _ map[string]string) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	id := uuid.NewString()
	return &Intent{
		Reference:    "sandbox_order_" + id,
		ClientSecret: "sandbox_secret_" + id,
	}, nil
}
