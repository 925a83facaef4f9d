package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

// BillingService computes what a tenant owes. It never writes.
type BillingService struct {
	Users      repositories.UserStore
	Payments   repositories.PaymentStore
	Readings   *ReadingService
	Rates      *RateService
	WaterBills *WaterBillService
}

func NewBillingService(users repositories.UserStore, payments repositories.PaymentStore,
	readings *ReadingService, rates *RateService, waterBills *WaterBillService) *BillingService {
	return &BillingService{
		Users:      users,
		Payments:   payments,
		Readings:   readings,
		Rates:      rates,
		WaterBills: waterBills,
	}
}

// AmountDue returns rent plus electricity plus the latest water share.
// Electricity is zero unless both a consumption delta and a rate exist.
func (s *BillingService) AmountDue(ctx context.Context, tenantID int, asOf time.Time) (*models.AmountDue, error) {
	tenant, err := s.Users.Get(ctx, tenantID)
	if err != nil {
		return nil, notFound(err, "tenant %d not found", tenantID)
	}

	due := &models.AmountDue{
		Rent:        tenant.RentAmount,
		Electricity: decimal.Zero,
		Water:       decimal.Zero,
	}

	consumption, err := s.Readings.Consumption(ctx, tenantID, models.MeterElectricity, asOf)
	if err != nil {
		return nil, fmt.Errorf("electricity consumption: %w", err)
	}
	rate, err := s.Rates.CurrentRate(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if consumption != nil && rate != nil {
		due.Electricity = consumption.Mul(rate.RatePerUnit)
	}

	bill, err := s.WaterBills.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest water bill: %w", err)
	}
	if bill != nil {
		due.Water = bill.AmountPerTenant
	}

	due.Total = due.Rent.Add(due.Electricity).Add(due.Water)

	if err := s.fillOutstanding(ctx, tenantID, due); err != nil {
		return nil, err
	}
	return due, nil
}

// fillOutstanding finds the newest payment made since the latest reading.
// Such a payment in pending, completed or confirmed state hides the pay option.
func (s *BillingService) fillOutstanding(ctx context.Context, tenantID int, due *models.AmountDue) error {
	due.ShowPaymentOptions = true

	latest, err := s.Readings.Readings.LatestAny(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("latest reading: %w", err)
	}
	if latest == nil {
		return nil
	}
	at := latest.ReadingDate
	due.LatestReadingAt = &at

	payment, err := s.Payments.LatestSince(ctx, tenantID, at)
	if err != nil {
		return fmt.Errorf("latest payment: %w", err)
	}
	if payment != nil {
		due.OutstandingPayment = payment
		due.ShowPaymentOptions = !payment.BlocksNewPayment()
	}
	return nil
}
