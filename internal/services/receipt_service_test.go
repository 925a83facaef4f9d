package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/models"
)

func TestReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.addTenant(t, "Asha", "5000", "0", "0").Tenant
	b := f.addTenant(t, "Bilal", "4000", "0", "0").Tenant
	created, err := f.payments.CreatePayment(ctx, a.ID, models.PaymentMethodBankTransfer)
	require.NoError(t, err)

	pdf, err := f.receipts.Receipt(ctx, a, created.Payment.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = f.receipts.Receipt(ctx, f.owner, created.Payment.ID)
	require.NoError(t, err)

	_, err = f.receipts.Receipt(ctx, b, created.Payment.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
