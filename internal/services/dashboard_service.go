package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/cache"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

const (
	dashboardHistoryLimit = 10
	ownerDashboardTTL     = 2 * time.Minute
)

// DashboardService assembles the tenant and owner dashboards.
type DashboardService struct {
	Users      repositories.UserStore
	Payments   repositories.PaymentStore
	Billing    *BillingService
	Readings   *ReadingService
	Rates      *RateService
	WaterBills *WaterBillService
	Now        Clock
	logger     *zap.Logger
}

func NewDashboardService(store *repositories.Store, billing *BillingService, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		Users:      store.Users,
		Payments:   store.Payments,
		Billing:    billing,
		Readings:   billing.Readings,
		Rates:      billing.Rates,
		WaterBills: billing.WaterBills,
		Now:        clockOrDefault(nil),
		logger:     logger.Named("dashboard"),
	}
}

// Tenant returns the dashboard of the calling tenant. The owner has none.
func (s *DashboardService) Tenant(ctx context.Context, actor *models.User) (*models.TenantDashboard, error) {
	if actor == nil || actor.IsOwner {
		return nil, apperrors.Unauthorized("the owner has no tenant dashboard")
	}
	now := s.Now()

	due, err := s.Billing.AmountDue(ctx, actor.ID, now)
	if err != nil {
		return nil, err
	}
	dash := &models.TenantDashboard{Tenant: actor, AmountDue: due}

	if dash.LatestElectricity, err = s.Readings.LatestView(ctx, actor.ID, models.MeterElectricity); err != nil {
		return nil, err
	}
	if dash.LatestWater, err = s.Readings.LatestView(ctx, actor.ID, models.MeterWater); err != nil {
		return nil, err
	}
	if dash.RecentReadings, err = s.Readings.History(ctx, actor.ID, dashboardHistoryLimit); err != nil {
		return nil, err
	}
	if dash.RecentPayments, err = s.Payments.ListByUser(ctx, actor.ID, dashboardHistoryLimit); err != nil {
		return nil, err
	}
	if dash.CurrentRate, err = s.Rates.CurrentRate(ctx, now); err != nil {
		return nil, err
	}
	if dash.LatestWaterBill, err = s.WaterBills.Latest(ctx); err != nil {
		return nil, err
	}
	return dash, nil
}

// Owner returns the owner dashboard, served from Redis when cached.
func (s *DashboardService) Owner(ctx context.Context, actor *models.User) (*models.OwnerDashboard, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	if data, ok := cache.GetCached(ctx, cache.OwnerDashboardKey); ok {
		var dash models.OwnerDashboard
		if err := json.Unmarshal(data, &dash); err == nil {
			return &dash, nil
		}
	}

	dash, err := s.buildOwner(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(dash); err == nil {
		cache.SetCached(ctx, cache.OwnerDashboardKey, data, ownerDashboardTTL)
	} else {
		s.logger.Warn("failed to encode owner dashboard", zap.Error(err))
	}
	return dash, nil
}

func (s *DashboardService) buildOwner(ctx context.Context) (*models.OwnerDashboard, error) {
	now := s.Now()
	tenants, err := s.Users.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	dash := &models.OwnerDashboard{Tenants: make([]models.TenantOverview, 0, len(tenants))}
	for _, t := range tenants {
		row := models.TenantOverview{Tenant: t}
		if row.Electricity, err = s.Readings.LatestView(ctx, t.ID, models.MeterElectricity); err != nil {
			return nil, err
		}
		if row.Water, err = s.Readings.LatestView(ctx, t.ID, models.MeterWater); err != nil {
			return nil, err
		}
		dash.Tenants = append(dash.Tenants, row)
	}
	if dash.CurrentRate, err = s.Rates.CurrentRate(ctx, now); err != nil {
		return nil, err
	}
	if dash.LatestWaterBill, err = s.WaterBills.Latest(ctx); err != nil {
		return nil, err
	}
	if dash.Payments, err = s.Payments.ListAll(ctx); err != nil {
		return nil, err
	}
	if dash.PendingPayments, err = s.Payments.ListByStatus(ctx, models.PaymentStatusPending); err != nil {
		return nil, err
	}
	return dash, nil
}
