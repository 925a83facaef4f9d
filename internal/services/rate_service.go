package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/cache"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

// RateService is the registry of electricity rates. Rates are never
// edited; a new rate takes effect from the moment it is set.
type RateService struct {
	Rates  repositories.RateStore
	Now    Clock
	logger *zap.Logger
}

func NewRateService(rates repositories.RateStore, logger *zap.Logger) *RateService {
	return &RateService{
		Rates:  rates,
		Now:    clockOrDefault(nil),
		logger: logger.Named("rates"),
	}
}

// CurrentRate returns the rate in effect at asOf, or nil when none exists.
func (s *RateService) CurrentRate(ctx context.Context, asOf time.Time) (*models.ElectricityRate, error) {
	rate, err := s.Rates.CurrentAsOf(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("load current rate: %w", err)
	}
	return rate, nil
}

func (s *RateService) SetRate(ctx context.Context, actor *models.User, ratePerUnit decimal.Decimal) (*models.ElectricityRate, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	if !ratePerUnit.IsPositive() {
		return nil, apperrors.Validation("rate per unit must be greater than 0")
	}

	rate := &models.ElectricityRate{RatePerUnit: ratePerUnit, EffectiveFrom: s.Now()}
	if err := s.Rates.Create(ctx, rate); err != nil {
		return nil, fmt.Errorf("store rate: %w", err)
	}
	cache.InvalidateKeys(ctx, cache.OwnerDashboardKey)
	s.logger.Info("electricity rate updated", zap.String("rate_per_unit", ratePerUnit.String()))
	return rate, nil
}

func (s *RateService) History(ctx context.Context) ([]*models.ElectricityRate, error) {
	return s.Rates.List(ctx)
}

// EnsureInitialRate stores rate when no rate exists yet. Reports whether it did.
func (s *RateService) EnsureInitialRate(ctx context.Context, rate decimal.Decimal) (bool, error) {
	existing, err := s.Rates.List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if err := s.Rates.Create(ctx, &models.ElectricityRate{RatePerUnit: rate, EffectiveFrom: s.Now()}); err != nil {
		return false, err
	}
	s.logger.Info("seeded initial electricity rate", zap.String("rate_per_unit", rate.String()))
	return true, nil
}
