package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

// WaterBillService splits the building's water usage across tenants. One
// share more than the tenant count is used; the extra share covers common
// and owner usage.
type WaterBillService struct {
	Bills    repositories.WaterBillStore
	Readings repositories.ReadingStore
	Users    repositories.UserStore
	Rates    *RateService
	Now      Clock
	logger   *zap.Logger
}

func NewWaterBillService(bills repositories.WaterBillStore, readings repositories.ReadingStore,
	users repositories.UserStore, rates *RateService, logger *zap.Logger) *WaterBillService {
	return &WaterBillService{
		Bills:    bills,
		Readings: readings,
		Users:    users,
		Rates:    rates,
		Now:      clockOrDefault(nil),
		logger:   logger.Named("water"),
	}
}

// Allocate computes a bill without storing it.
// share = delta / (tenantCount + 1), times ratePerUnit when one is given.
func (s *WaterBillService) Allocate(totalUsageDelta decimal.Decimal, tenantCount int, ratePerUnit *decimal.Decimal) (models.WaterBill, error) {
	if tenantCount < 0 {
		return models.WaterBill{}, apperrors.Validation("tenant count cannot be negative")
	}
	share := totalUsageDelta.Div(decimal.NewFromInt(int64(tenantCount + 1)))
	if ratePerUnit != nil {
		share = share.Mul(*ratePerUnit)
	}
	return models.WaterBill{
		TotalUsage:      totalUsageDelta,
		TenantCount:     tenantCount,
		AmountPerTenant: share,
	}, nil
}

// RecordForUpload stores the bill produced by a new water reading. Usage is
// measured from the earliest water reading on record; no bill is stored
// when usage is not positive.
func (s *WaterBillService) RecordForUpload(ctx context.Context, newValue decimal.Decimal) (*models.WaterBill, error) {
	baseline, err := s.Readings.Earliest(ctx, models.MeterWater)
	if err != nil {
		return nil, fmt.Errorf("load water baseline: %w", err)
	}
	if baseline == nil {
		return nil, nil
	}
	usage := newValue.Sub(baseline.ReadingValue)
	if !usage.IsPositive() {
		return nil, nil
	}

	tenantCount, err := s.Users.CountTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tenants: %w", err)
	}

	now := s.Now()
	var ratePerUnit *decimal.Decimal
	rate, err := s.Rates.CurrentRate(ctx, now)
	if err != nil {
		return nil, err
	}
	if rate != nil {
		ratePerUnit = &rate.RatePerUnit
	}

	bill, err := s.Allocate(usage, tenantCount, ratePerUnit)
	if err != nil {
		return nil, err
	}
	bill.BillingDate = now
	if err := s.Bills.Create(ctx, &bill); err != nil {
		return nil, fmt.Errorf("store water bill: %w", err)
	}
	s.logger.Info("water bill recorded",
		zap.String("total_usage", usage.String()),
		zap.Int("tenant_count", tenantCount),
		zap.String("amount_per_tenant", bill.AmountPerTenant.String()))
	return &bill, nil
}

func (s *WaterBillService) Latest(ctx context.Context) (*models.WaterBill, error) {
	return s.Bills.Latest(ctx)
}

// History returns the newest bills first
func (s *WaterBillService) History(ctx context.Context, limit int) ([]*models.WaterBill, error) {
	return s.Bills.List(ctx, limit)
}
