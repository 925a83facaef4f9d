package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"rent-backend/internal/models"
)

// ErrNotFound is returned by lookups by primary key and by updates that
// match no row. Lookups by secondary keys return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int) (*models.User, error)
	GetByTenantCode(ctx context.Context, code string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetOwner(ctx context.Context) (*models.User, error)
	ListTenants(ctx context.Context) ([]*models.User, error)
	CountTenants(ctx context.Context) (int, error)
	ListTenantsByDueDay(ctx context.Context, day int) ([]*models.User, error)
	UpdateRent(ctx context.Context, id int, rent decimal.Decimal) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	SetTOTPSecret(ctx context.Context, id int, secret string) error
	EnableTOTP(ctx context.Context, id int) error
	DisableTOTP(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

// ReadingStore is an append-only log of readings ordered per (tenant, meter)
// by reading date, ties broken by id.
type ReadingStore interface {
	Append(ctx context.Context, r *models.MeterReading) error
	// Latest returns the newest reading at or before asOf.
	Latest(ctx context.Context, userID int, kind models.MeterType, asOf time.Time) (*models.MeterReading, error)
	// PriorTo returns the newest reading strictly before the given instant.
	PriorTo(ctx context.Context, userID int, kind models.MeterType, before time.Time) (*models.MeterReading, error)
	LatestAny(ctx context.Context, userID int) (*models.MeterReading, error)
	// ListByUser returns readings of both meters, newest first.
	ListByUser(ctx context.Context, userID int, limit int) ([]*models.MeterReading, error)
	// Earliest returns the oldest reading of a meter across all tenants.
	Earliest(ctx context.Context, kind models.MeterType) (*models.MeterReading, error)
	DeleteByUser(ctx context.Context, userID int) error
}

type RateStore interface {
	Create(ctx context.Context, rate *models.ElectricityRate) error
	CurrentAsOf(ctx context.Context, asOf time.Time) (*models.ElectricityRate, error)
	List(ctx context.Context) ([]*models.ElectricityRate, error)
}

type WaterBillStore interface {
	Create(ctx context.Context, bill *models.WaterBill) error
	Latest(ctx context.Context) (*models.WaterBill, error)
	List(ctx context.Context, limit int) ([]*models.WaterBill, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, id int) (*models.Payment, error)
	GetByProcessorReference(ctx context.Context, reference string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id int, status models.PaymentStatus) error
	// ListByUser returns the user's payments, newest first. limit <= 0 means all.
	ListByUser(ctx context.Context, userID int, limit int) ([]*models.Payment, error)
	ListAll(ctx context.Context) ([]*models.Payment, error)
	ListByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Payment, error)
	// LatestSince returns the newest payment dated at or after since.
	LatestSince(ctx context.Context, userID int, since time.Time) (*models.Payment, error)
	DeleteByUser(ctx context.Context, userID int) error
}

// TxManager runs fn inside one transaction. Stores called with the context
// passed to fn take part in it. Nested calls join the outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles every store of one backend.
type Store struct {
	Users      UserStore
	Readings   ReadingStore
	Rates      RateStore
	WaterBills WaterBillStore
	Payments   PaymentStore
	Tx         TxManager
}
