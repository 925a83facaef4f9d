package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rent-backend/internal/auth"
	"rent-backend/internal/config"
	"rent-backend/internal/models"
	"rent-backend/internal/payment"
	"rent-backend/internal/repositories"
	"rent-backend/internal/repositories/memory"
	"rent-backend/internal/storage"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// stubProcessor records intents and fails when err is set.
type stubProcessor struct {
	err     error
	calls   int
	amounts []int64
}

func (p *stubProcessor) CreateIntent(_ context.Context, amountMinor int64, _ string, _ map[string]string) (*payment.Intent, error) {
	p.calls++
	p.amounts = append(p.amounts, amountMinor)
	if p.err != nil {
		return nil, p.err
	}
	return &payment.Intent{Reference: fmt.Sprintf("order_test_%d", p.calls), ClientSecret: "rzp_test_key"}, nil
}

var errCardDeclined = errors.New("Your card was declined.")

type fixture struct {
	now       time.Time
	store     *repositories.Store
	processor *stubProcessor
	owner     *models.User

	rates     *RateService
	readings  *ReadingService
	water     *WaterBillService
	billing   *BillingService
	payments  *PaymentService
	tenants   *TenantService
	users     *UserService
	totp      *TOTPService
	uploads   *UploadService
	dashboard *DashboardService
	receipts  *ReceiptService
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	f := &fixture{now: t0, store: memory.NewStore(), processor: &stubProcessor{}}

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 24
	cfg.JWT.Issuer = "rent-backend-test"

	f.rates = NewRateService(f.store.Rates, log)
	f.readings = NewReadingService(f.store.Readings, log)
	f.water = NewWaterBillService(f.store.WaterBills, f.store.Readings, f.store.Users, f.rates, log)
	f.billing = NewBillingService(f.store.Users, f.store.Payments, f.readings, f.rates, f.water)
	f.payments = NewPaymentService(f.store, f.billing, f.processor, "INR", "RENT", log)
	f.tenants = NewTenantService(f.store, f.readings, log)
	f.totp = NewTOTPService(f.store.Users)
	f.users = NewUserService(f.store, auth.NewJWTManager(cfg), f.totp, log)
	f.uploads = NewUploadService(f.store.Tx, f.readings, f.water, storage.NewLocalStore(t.TempDir()), log)
	f.dashboard = NewDashboardService(f.store, f.billing, log)
	f.receipts = NewReceiptService(f.payments)

	f.rates.Now = f.clock
	f.readings.Now = f.clock
	f.water.Now = f.clock
	f.payments.Now = f.clock
	f.tenants.Now = f.clock
	f.uploads.Now = f.clock
	f.dashboard.Now = f.clock
	f.receipts.Now = f.clock

	hash, err := auth.HashPassword("owner-pass-1")
	require.NoError(t, err)
	f.owner = &models.User{Name: "Owner", Email: "owner@example.com", PasswordHash: hash, IsOwner: true}
	require.NoError(t, f.store.Users.Create(context.Background(), f.owner))
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// addTenant registers a tenant through the service with seed readings.
func (f *fixture) addTenant(t *testing.T, name, rent, elec, water string) *models.CreateTenantResponse {
	t.Helper()
	resp, err := f.tenants.Register(context.Background(), f.owner, &models.CreateTenantRequest{
		Name:                      name,
		RentAmount:                dec(rent),
		InitialElectricityReading: dec(elec),
		InitialWaterReading:       dec(water),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) appendReading(t *testing.T, tenantID int, kind models.MeterType, value string) *models.MeterReading {
	t.Helper()
	r := &models.MeterReading{UserID: tenantID, MeterType: kind, ReadingValue: dec(value), ReadingDate: f.now}
	_, err := f.readings.Append(context.Background(), r)
	require.NoError(t, err)
	return r
}

func (f *fixture) setRate(t *testing.T, rate string) {
	t.Helper()
	_, err := f.rates.SetRate(context.Background(), f.owner, dec(rate))
	require.NoError(t, err)
}
