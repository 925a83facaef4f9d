package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func addTenant(t *testing.T, store *repositories.Store, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, RentAmount: decimal.NewFromInt(1000)}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func addReading(t *testing.T, store *repositories.Store, userID int, kind models.MeterType, value int64, at time.Time) *models.MeterReading {
	t.Helper()
	r := &models.MeterReading{UserID: userID, MeterType: kind, ReadingValue: decimal.NewFromInt(value), ReadingDate: at}
	require.NoError(t, store.Readings.Append(context.Background(), r))
	return r
}

func TestReadingLogOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tenant := addTenant(t, store, "Asha")

	// appended out of order
	addReading(t, store, tenant.ID, models.MeterElectricity, 150, t0.Add(48*time.Hour))
	addReading(t, store, tenant.ID, models.MeterElectricity, 100, t0)
	mid := addReading(t, store, tenant.ID, models.MeterElectricity, 120, t0.Add(24*time.Hour))

	latest, err := store.Readings.Latest(ctx, tenant.ID, models.MeterElectricity, t0.Add(72*time.Hour))
	require.NoError(t, err)
	assert.True(t, latest.ReadingValue.Equal(decimal.NewFromInt(150)))

	bounded, err := store.Readings.Latest(ctx, tenant.ID, models.MeterElectricity, t0.Add(30*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, mid.ID, bounded.ID)

	prior, err := store.Readings.PriorTo(ctx, tenant.ID, models.MeterElectricity, latest.ReadingDate)
	require.NoError(t, err)
	assert.Equal(t, mid.ID, prior.ID)

	none, err := store.Readings.PriorTo(ctx, tenant.ID, models.MeterElectricity, t0)
	require.NoError(t, err)
	assert.Nil(t, none)

	water, err := store.Readings.Latest(ctx, tenant.ID, models.MeterWater, t0.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, water)
}

func TestReadingSameTimestampResolvesToLastInserted(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tenant := addTenant(t, store, "Ravi")

	addReading(t, store, tenant.ID, models.MeterWater, 10, t0)
	second := addReading(t, store, tenant.ID, models.MeterWater, 12, t0)

	latest, err := store.Readings.Latest(ctx, tenant.ID, models.MeterWater, t0)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestEarliestAcrossTenants(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	a := addTenant(t, store, "A")
	b := addTenant(t, store, "B")

	addReading(t, store, a.ID, models.MeterWater, 40, t0.Add(time.Hour))
	first := addReading(t, store, b.ID, models.MeterWater, 30, t0)
	addReading(t, store, a.ID, models.MeterElectricity, 5, t0.Add(-time.Hour))

	earliest, err := store.Readings.Earliest(ctx, models.MeterWater)
	require.NoError(t, err)
	assert.Equal(t, first.ID, earliest.ID)

	newest, err := store.Readings.LatestAny(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeterWater, newest.MeterType)

	list, err := store.Readings.ListByUser(ctx, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].ReadingDate.After(list[1].ReadingDate))
}

func TestRateCurrentAsOf(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	none, err := store.Rates.CurrentAsOf(ctx, t0)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, store.Rates.Create(ctx, &models.ElectricityRate{RatePerUnit: decimal.NewFromInt(8), EffectiveFrom: t0}))
	tie := &models.ElectricityRate{RatePerUnit: decimal.NewFromInt(9), EffectiveFrom: t0}
	require.NoError(t, store.Rates.Create(ctx, tie))
	require.NoError(t, store.Rates.Create(ctx, &models.ElectricityRate{RatePerUnit: decimal.NewFromInt(11), EffectiveFrom: t0.Add(time.Hour)}))

	current, err := store.Rates.CurrentAsOf(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, tie.ID, current.ID)

	later, err := store.Rates.CurrentAsOf(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, later.RatePerUnit.Equal(decimal.NewFromInt(11)))
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tenant := addTenant(t, store, "Meera")

	boom := errors.New("boom")
	err := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Payments.Create(ctx, &models.Payment{
			UserID: tenant.ID, Amount: decimal.NewFromInt(10), PaymentMethod: models.PaymentMethodCash,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	payments, err := store.Payments.ListByUser(ctx, tenant.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestRollbackKeepsWritesOutsideTx(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tenant := addTenant(t, store, "Meera")

	inTx := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			close(inTx)
			<-release
			return errors.New("boom")
		})
	}()
	<-inTx

	rateDone := make(chan error, 1)
	go func() {
		rateDone <- store.Rates.Create(ctx, &models.ElectricityRate{RatePerUnit: decimal.NewFromInt(9), EffectiveFrom: t0})
	}()
	rentDone := make(chan error, 1)
	go func() {
		rentDone <- store.Users.UpdateRent(ctx, tenant.ID, decimal.NewFromInt(7000))
	}()

	select {
	case <-rateDone:
		t.Fatal("write outside the transaction did not wait for it")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	require.Error(t, <-txDone)
	require.NoError(t, <-rateDone)
	require.NoError(t, <-rentDone)

	rates, err := store.Rates.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rates, 1)
	got, err := store.Users.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, got.RentAmount.Equal(decimal.NewFromInt(7000)))
}

func TestPaymentLookups(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tenant := addTenant(t, store, "Kiran")

	p := &models.Payment{UserID: tenant.ID, PaymentMethod: models.PaymentMethodCard, ProcessorReference: "order_1", PaymentDate: t0}
	require.NoError(t, store.Payments.Create(ctx, p))
	assert.Equal(t, models.PaymentStatusPending, p.Status)

	found, err := store.Payments.GetByProcessorReference(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "Kiran", found.TenantName)

	missing, err := store.Payments.GetByProcessorReference(ctx, "order_2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.Payments.Get(ctx, 99)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, store.Payments.UpdateStatus(ctx, 99, models.PaymentStatusConfirmed), repositories.ErrNotFound)

	since, err := store.Payments.LatestSince(ctx, tenant.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, p.ID, since.ID)

	after, err := store.Payments.LatestSince(ctx, tenant.ID, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, after)
}

func TestSingleOwner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Users.Create(ctx, &models.User{Name: "Owner", Email: "o@example.com", IsOwner: true}))
	assert.Error(t, store.Users.Create(ctx, &models.User{Name: "Other", Email: "x@example.com", IsOwner: true}))

	owner, err := store.Users.GetOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Owner", owner.Name)

	n, err := store.Users.CountTenants(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
