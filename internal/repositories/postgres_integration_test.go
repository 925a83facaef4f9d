//go:build integration

package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"rent-backend/internal/database"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
	"rent-backend/migrations"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newPostgresStore starts a throwaway PostgreSQL container with the schema applied.
func newPostgresStore(t *testing.T) *repositories.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("rent_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.NewMigrator(pool, migrations.FS, zap.NewNop()).RunMigrations(ctx))
	return repositories.NewPostgresStore(pool)
}

func createTenant(t *testing.T, store *repositories.Store, name, code string) *models.User {
	t.Helper()
	u := &models.User{Name: name, TenantCode: code, PasswordHash: "x", RentAmount: decimal.NewFromInt(1000)}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func appendReading(t *testing.T, store *repositories.Store, userID int, kind models.MeterType, value int64, at time.Time) *models.MeterReading {
	t.Helper()
	r := &models.MeterReading{UserID: userID, MeterType: kind, ReadingValue: decimal.NewFromInt(value), ReadingDate: at}
	require.NoError(t, store.Readings.Append(context.Background(), r))
	return r
}

func TestPostgresStore_Integration(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	t.Run("reading log ordering", func(t *testing.T) {
		asha := createTenant(t, store, "Asha", "100001")
		appendReading(t, store, asha.ID, models.MeterElectricity, 100, t0)
		appendReading(t, store, asha.ID, models.MeterElectricity, 150, t0.Add(2*time.Hour))
		tie := appendReading(t, store, asha.ID, models.MeterElectricity, 160, t0.Add(2*time.Hour))
		appendReading(t, store, asha.ID, models.MeterElectricity, 300, t0.Add(48*time.Hour))

		latest, err := store.Readings.Latest(ctx, asha.ID, models.MeterElectricity, t0.Add(3*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, tie.ID, latest.ID, "same timestamp resolves to the last inserted")

		atInstant, err := store.Readings.Latest(ctx, asha.ID, models.MeterElectricity, t0.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, tie.ID, atInstant.ID, "asOf is inclusive")

		prior, err := store.Readings.PriorTo(ctx, asha.ID, models.MeterElectricity, t0.Add(2*time.Hour))
		require.NoError(t, err)
		require.NotNil(t, prior)
		assert.True(t, prior.ReadingValue.Equal(decimal.NewFromInt(100)), "PriorTo is strict")

		none, err := store.Readings.Latest(ctx, asha.ID, models.MeterWater, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Nil(t, none)

		history, err := store.Readings.ListByUser(ctx, asha.ID, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.True(t, history[0].ReadingValue.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, tie.ID, history[1].ID)
	})

	t.Run("earliest water reading across tenants", func(t *testing.T) {
		ravi := createTenant(t, store, "Ravi", "100002")
		meera := createTenant(t, store, "Meera", "100003")
		appendReading(t, store, ravi.ID, models.MeterWater, 40, t0.Add(time.Hour))
		first := appendReading(t, store, meera.ID, models.MeterWater, 10, t0)

		earliest, err := store.Readings.Earliest(ctx, models.MeterWater)
		require.NoError(t, err)
		require.NotNil(t, earliest)
		assert.Equal(t, first.ID, earliest.ID)
	})

	t.Run("rate current as of", func(t *testing.T) {
		rate, err := store.Rates.CurrentAsOf(ctx, t0.Add(-time.Hour))
		require.NoError(t, err)
		assert.Nil(t, rate)

		for _, r := range []struct {
			value int64
			from  time.Time
		}{{8, t0}, {10, t0.Add(24 * time.Hour)}, {11, t0.Add(24 * time.Hour)}} {
			require.NoError(t, store.Rates.Create(ctx, &models.ElectricityRate{RatePerUnit: decimal.NewFromInt(r.value), EffectiveFrom: r.from}))
		}

		rate, err = store.Rates.CurrentAsOf(ctx, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, rate.RatePerUnit.Equal(decimal.NewFromInt(8)))

		rate, err = store.Rates.CurrentAsOf(ctx, t0.Add(24*time.Hour))
		require.NoError(t, err)
		assert.True(t, rate.RatePerUnit.Equal(decimal.NewFromInt(11)))
	})

	t.Run("payment lookups", func(t *testing.T) {
		tenant := createTenant(t, store, "Kiran", "100004")
		older := &models.Payment{UserID: tenant.ID, Amount: decimal.NewFromInt(10), PaymentMethod: models.PaymentMethodCash, PaymentDate: t0}
		newer := &models.Payment{UserID: tenant.ID, Amount: decimal.NewFromInt(20), PaymentMethod: models.PaymentMethodCard,
			ProcessorReference: "order_1", PaymentDate: t0.Add(time.Hour)}
		require.NoError(t, store.Payments.Create(ctx, older))
		require.NoError(t, store.Payments.Create(ctx, newer))

		since, err := store.Payments.LatestSince(ctx, tenant.ID, t0.Add(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, since)
		assert.Equal(t, newer.ID, since.ID, "since is inclusive")

		none, err := store.Payments.LatestSince(ctx, tenant.ID, t0.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Nil(t, none)

		byRef, err := store.Payments.GetByProcessorReference(ctx, "order_1")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, byRef.ID)
		assert.Equal(t, "Kiran", byRef.TenantName)

		listed, err := store.Payments.ListByUser(ctx, tenant.ID, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, newer.ID, listed[0].ID)
	})

	t.Run("rollback discards transaction writes", func(t *testing.T) {
		tenant := createTenant(t, store, "Zoya", "100005")
		err := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			appendErr := store.Readings.Append(ctx, &models.MeterReading{
				UserID: tenant.ID, MeterType: models.MeterWater, ReadingValue: decimal.NewFromInt(5), ReadingDate: t0,
			})
			require.NoError(t, appendErr)
			return repositories.ErrNotFound
		})
		require.ErrorIs(t, err, repositories.ErrNotFound)

		latest, err := store.Readings.Latest(ctx, tenant.ID, models.MeterWater, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("tenants sorted by name", func(t *testing.T) {
		tenants, err := store.Users.ListTenants(ctx)
		require.NoError(t, err)
		var names []string
		for _, u := range tenants {
			names = append(names, u.Name)
		}
		assert.Equal(t, []string{"Asha", "Kiran", "Meera", "Ravi", "Zoya"}, names)
	})
}
