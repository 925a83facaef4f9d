package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/cache"
	"rent-backend/internal/events"
	"rent-backend/internal/metrics"
	"rent-backend/internal/models"
	"rent-backend/internal/payment"
	"rent-backend/internal/repositories"
	"rent-backend/internal/timeutil"
)

// PaymentService drives payments from pending to completed, confirmed or
// rejected. Owner confirmation and rejection do not check the current
// status; the last call wins.
type PaymentService struct {
	Payments        repositories.PaymentStore
	Users           repositories.UserStore
	Tx              repositories.TxManager
	Billing         *BillingService
	Processor       payment.Processor
	Currency        string
	ReferencePrefix string
	Events          events.Publisher
	Now             Clock
	logger          *zap.Logger
}

func NewPaymentService(store *repositories.Store, billing *BillingService, processor payment.Processor,
	currency, referencePrefix string, logger *zap.Logger) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	if referencePrefix == "" {
		referencePrefix = "RENT"
	}
	return &PaymentService{
		Payments:        store.Payments,
		Users:           store.Users,
		Tx:              store.Tx,
		Billing:         billing,
		Processor:       processor,
		Currency:        currency,
		ReferencePrefix: referencePrefix,
		Now:             clockOrDefault(nil),
		logger:          logger.Named("payments"),
	}
}

// ManualReference builds the reference a tenant quotes on a bank transfer
// or cash payment: prefix, timestamp, tenant id.
func (s *PaymentService) ManualReference(tenantID int) string {
	return s.ReferencePrefix + timeutil.FormatIST(s.Now(), timeutil.ReferenceLayout) + strconv.Itoa(tenantID)
}

// CreatePayment records a pending payment for everything the tenant owes now.
// Card payments create a processor intent first; if that fails nothing is stored.
func (s *PaymentService) CreatePayment(ctx context.Context, tenantID int, method models.PaymentMethod) (*models.CreatePaymentResponse, error) {
	if !method.Valid() {
		return nil, apperrors.Validation("Invalid payment method")
	}
	tenant, err := s.Users.Get(ctx, tenantID)
	if err != nil {
		return nil, notFound(err, "tenant %d not found", tenantID)
	}
	if tenant.IsOwner {
		return nil, apperrors.Unauthorized("only tenants can make payments")
	}

	now := s.Now()
	due, err := s.Billing.AmountDue(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		UserID:            tenantID,
		Amount:            due.Total,
		RentAmount:        due.Rent,
		ElectricityAmount: due.Electricity,
		WaterAmount:       due.Water,
		PaymentMethod:     method,
		Status:            models.PaymentStatusPending,
		PaymentDate:       now,
		TenantName:        tenant.Name,
	}
	resp := &models.CreatePaymentResponse{Payment: p}

	if method == models.PaymentMethodCard {
		err = s.createCardPayment(ctx, p, resp)
	} else {
		p.TransactionReference = s.ManualReference(tenantID)
		resp.Message = fmt.Sprintf("Please use reference %s when making the payment", p.TransactionReference)
		err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return s.Payments.Create(ctx, p)
		})
	}
	if err != nil {
		return nil, err
	}

	metrics.PaymentsCreated.WithLabelValues(string(method)).Inc()
	cache.InvalidateKeys(ctx, cache.OwnerDashboardKey)
	publish(s.Events, events.Event{Type: events.TypePaymentCreated, TenantID: tenantID, Data: p})
	s.logger.Info("payment created",
		zap.Int("payment_id", p.ID),
		zap.Int("tenant_id", tenantID),
		zap.String("method", string(method)),
		zap.String("amount", p.Amount.String()),
		zap.String("reference", p.Reference()))
	return resp, nil
}

func (s *PaymentService) createCardPayment(ctx context.Context, p *models.Payment, resp *models.CreatePaymentResponse) error {
	// minor units, truncated
	amountMinor := p.Amount.Shift(2).IntPart()
	if amountMinor <= 0 {
		return apperrors.Validation("nothing to pay")
	}

	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		intent, err := s.Processor.CreateIntent(ctx, amountMinor, s.Currency, map[string]string{
			"user_id": strconv.Itoa(p.UserID),
		})
		if err != nil {
			metrics.ProcessorFailures.Inc()
			s.logger.Warn("processor rejected payment intent", zap.Int("tenant_id", p.UserID), zap.Error(err))
			return apperrors.ExternalService(err)
		}
		p.ProcessorReference = intent.Reference
		if err := s.Payments.Create(ctx, p); err != nil {
			return fmt.Errorf("store payment: %w", err)
		}
		resp.ClientSecret = intent.ClientSecret
		resp.OrderID = intent.Reference
		resp.AmountMinor = amountMinor
		resp.Currency = s.Currency
		return nil
	})
}

// ConfirmByProcessor marks the payment with the given processor reference completed.
func (s *PaymentService) ConfirmByProcessor(ctx context.Context, reference string) (*models.Payment, error) {
	return s.confirmReference(ctx, reference, nil)
}

// ConfirmCheckout is ConfirmByProcessor for a tenant returning from checkout.
// A reference belonging to another tenant reads as not found.
func (s *PaymentService) ConfirmCheckout(ctx context.Context, tenant *models.User, reference string) (*models.Payment, error) {
	if tenant == nil || tenant.IsOwner {
		return nil, apperrors.Unauthorized("only tenants can confirm a checkout")
	}
	return s.confirmReference(ctx, reference, tenant)
}

func (s *PaymentService) confirmReference(ctx context.Context, reference string, tenant *models.User) (*models.Payment, error) {
	if reference == "" {
		return nil, apperrors.Validation("payment reference is required")
	}
	var p *models.Payment
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.Payments.GetByProcessorReference(ctx, reference)
		if err != nil {
			return err
		}
		if p == nil || (tenant != nil && p.UserID != tenant.ID) {
			return apperrors.NotFound("payment with reference %s not found", reference)
		}
		if err := s.Payments.UpdateStatus(ctx, p.ID, models.PaymentStatusCompleted); err != nil {
			return err
		}
		p.Status = models.PaymentStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, p)
	return p, nil
}

func (s *PaymentService) ConfirmByOwner(ctx context.Context, actor *models.User, paymentID int) (*models.Payment, error) {
	return s.setStatusByOwner(ctx, actor, paymentID, models.PaymentStatusConfirmed)
}

func (s *PaymentService) RejectByOwner(ctx context.Context, actor *models.User, paymentID int) (*models.Payment, error) {
	return s.setStatusByOwner(ctx, actor, paymentID, models.PaymentStatusRejected)
}

func (s *PaymentService) setStatusByOwner(ctx context.Context, actor *models.User, paymentID int, status models.PaymentStatus) (*models.Payment, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	var p *models.Payment
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.Payments.Get(ctx, paymentID)
		if err != nil {
			return notFound(err, "payment %d not found", paymentID)
		}
		if err := s.Payments.UpdateStatus(ctx, paymentID, status); err != nil {
			return notFound(err, "payment %d not found", paymentID)
		}
		p.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, p)
	return p, nil
}

func (s *PaymentService) transitioned(ctx context.Context, p *models.Payment) {
	metrics.PaymentTransitions.WithLabelValues(string(p.Status)).Inc()
	cache.InvalidateKeys(ctx, cache.OwnerDashboardKey)
	publish(s.Events, events.Event{Type: events.TypePaymentStatus, TenantID: p.UserID, Data: p})
	s.logger.Info("payment status changed", zap.Int("payment_id", p.ID), zap.String("status", string(p.Status)))
}

// Get returns a payment visible to actor: the owner sees all, a tenant only their own.
func (s *PaymentService) Get(ctx context.Context, actor *models.User, paymentID int) (*models.Payment, error) {
	p, err := s.Payments.Get(ctx, paymentID)
	if err != nil {
		return nil, notFound(err, "payment %d not found", paymentID)
	}
	if actor == nil || (!actor.IsOwner && p.UserID != actor.ID) {
		return nil, apperrors.NotFound("payment %d not found", paymentID)
	}
	return p, nil
}

func (s *PaymentService) ListForTenant(ctx context.Context, tenantID int, limit int) ([]*models.Payment, error) {
	return s.Payments.ListByUser(ctx, tenantID, limit)
}

func (s *PaymentService) ListAll(ctx context.Context, actor *models.User) ([]*models.Payment, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	return s.Payments.ListAll(ctx)
}

func (s *PaymentService) ListPending(ctx context.Context, actor *models.User) ([]*models.Payment, error) {
	if err := requireOwner(actor); err != nil {
		return nil, err
	}
	return s.Payments.ListByStatus(ctx, models.PaymentStatusPending)
}
