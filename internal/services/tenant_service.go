package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/auth"
	"rent-backend/internal/cache"
	"rent-backend/internal/events"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

const maxTenantCodeAttempts = 20

type TenantService struct {
	Users    repositories.UserStore
	Payments repositories.PaymentStore
	Tx       repositories.TxManager
	Readings *ReadingService
	Events   events.Publisher
	Now      Clock
	logger   *zap.Logger
}

func NewTenantService(store *repositories.Store, readings *ReadingService, logger *zap.Logger) *TenantService {
	return &TenantService{
		Users:    store.Users,
		Payments: store.Payments,
		Tx:       store.Tx,
		Readings: readings,
		Now:      clockOrDefault(nil),
		logger:   logger.Named("tenants"),
	}
}

// requireDeploymentOwner checks actor is the one owner on record.
func (s *TenantService) requireDeploymentOwner(ctx context.Context, actor *models.User) error {
	if err := requireOwner(actor); err != nil {
		return err
	}
	owner, err := s.Users.GetOwner(ctx)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	if owner == nil || owner.ID != actor.ID {
		return apperrors.Unauthorized("only the owner can perform this action")
	}
	return nil
}

func (s *TenantService) uniqueTenantCode(ctx context.Context) (string, error) {
	for i := 0; i < maxTenantCodeAttempts; i++ {
		code, err := auth.GenerateTenantCode()
		if err != nil {
			return "", err
		}
		existing, err := s.Users.GetByTenantCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique tenant id")
}

// Register creates a tenant with a generated tenant id and password and
// seeds both meters with the given initial readings.
func (s *TenantService) Register(ctx context.Context, actor *models.User, req *models.CreateTenantRequest) (*models.CreateTenantResponse, error) {
	if err := s.requireDeploymentOwner(ctx, actor); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if !req.RentAmount.IsPositive() {
		return nil, apperrors.Validation("rent amount must be greater than 0")
	}
	if req.InitialElectricityReading.IsNegative() || req.InitialWaterReading.IsNegative() {
		return nil, apperrors.Validation("initial readings cannot be negative")
	}
	if req.RentDueDay < 0 || req.RentDueDay > 28 {
		return nil, apperrors.Validation("rent due day must be between 1 and 28")
	}
	if req.Email != "" {
		existing, err := s.Users.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperrors.Conflict("email already registered")
		}
	}

	code, err := s.uniqueTenantCode(ctx)
	if err != nil {
		return nil, err
	}
	password, err := auth.GenerateTenantPassword()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tenant := &models.User{
		TenantCode:   code,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		RentAmount:   req.RentAmount,
		Phone:        req.Phone,
		RentDueDay:   req.RentDueDay,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Users.Create(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		now := s.Now()
		seeds := []struct {
			kind  models.MeterType
			value decimal.Decimal
		}{
			{models.MeterElectricity, req.InitialElectricityReading},
			{models.MeterWater, req.InitialWaterReading},
		}
		for _, seed := range seeds {
			if _, err := s.Readings.Append(ctx, &models.MeterReading{
				UserID:       tenant.ID,
				MeterType:    seed.kind,
				ReadingValue: seed.value,
				ReadingDate:  now,
				ImagePath:    models.InitialReadingImage,
				IsProcessed:  true,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateKeys(ctx, cache.OwnerDashboardKey)
	publish(s.Events, events.Event{Type: events.TypeTenantRegistered, TenantID: tenant.ID, Data: tenant})
	s.logger.Info("tenant registered", zap.Int("tenant_id", tenant.ID), zap.String("tenant_code", code))
	return &models.CreateTenantResponse{Tenant: tenant, Password: password}, nil
}

func (s *TenantService) Get(ctx context.Context, id int) (*models.User, error) {
	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "tenant %d not found", id)
	}
	if u.IsOwner {
		return nil, apperrors.NotFound("tenant %d not found", id)
	}
	return u, nil
}

func (s *TenantService) List(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	return s.Users.ListTenants(ctx)
}

// UpdateRent changes a tenant's fixed rent. Existing payments keep the amounts they were created with.
func (s *TenantService) UpdateRent(ctx context.Context, actor *models.User, tenantID int, rent decimal.Decimal) (*models.User, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	if !rent.IsPositive() {
		return nil, apperrors.Validation("rent amount must be greater than 0")
	}
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.Users.UpdateRent(ctx, tenantID, rent)
	})
	if err != nil {
		return nil, notFound(err, "tenant %d not found", tenantID)
	}
	tenant.RentAmount = rent
	cache.InvalidateKeys(ctx, cache.OwnerDashboardKey)
	s.logger.Info("rent updated", zap.Int("tenant_id", tenantID), zap.String("rent", rent.String()))
	return tenant, nil
}

// Delete removes a tenant with all their readings and payments.
func (s *TenantService) Delete(ctx context.Context, actor *models.User, tenantID int) error {
	if err := requireOwner(actor); err != nil {
		return err
	}
	tenant, err := s.Users.Get(ctx, tenantID)
	if err != nil {
		return notFound(err, "tenant %d not found", tenantID)
	}
	if tenant.IsOwner {
		return apperrors.Validation("cannot delete owner account")
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Readings.Readings.DeleteByUser(ctx, tenantID); err != nil {
			return fmt.Errorf("delete readings: %w", err)
		}
		if err := s.Payments.DeleteByUser(ctx, tenantID); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		return s.Users.Delete(ctx, tenantID)
	})
	if err != nil {
		return notFound(err, "tenant %d not found", tenantID)
	}

	cache.InvalidateUserAuth(ctx, tenantID)
	cache.InvalidateKeys(ctx, cache.OwnerDashboardKey)
	publish(s.Events, events.Event{Type: events.TypeTenantDeleted, TenantID: tenantID})
	s.logger.Info("tenant deleted", zap.Int("tenant_id", tenantID), zap.String("name", tenant.Name))
	return nil
}
