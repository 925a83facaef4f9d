package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/models"
)

func TestAppendWarnsOnRegression(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tenant := f.addTenant(t, "Asha", "1000", "100", "0").Tenant
	f.advance(time.Hour)

	warning, err := f.readings.Append(ctx, &models.MeterReading{
		UserID: tenant.ID, MeterType: models.MeterElectricity, ReadingValue: dec("90"),
	})
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, "100", warning.Previous)
	assert.Equal(t, "90", warning.Current)

	// stored anyway, consumption goes negative
	consumption, err := f.readings.Consumption(ctx, tenant.ID, models.MeterElectricity, f.now)
	require.NoError(t, err)
	require.NotNil(t, consumption)
	assert.True(t, consumption.Equal(dec("-10")))
}

func TestAppendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tenant := f.addTenant(t, "Asha", "1000", "0", "0").Tenant

	_, err := f.readings.Append(ctx, &models.MeterReading{UserID: tenant.ID, MeterType: "gas", ReadingValue: dec("1")})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = f.readings.Append(ctx, &models.MeterReading{UserID: tenant.ID, MeterType: models.MeterWater, ReadingValue: dec("-1")})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestConsumptionAsOf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tenant := f.addTenant(t, "Asha", "1000", "100", "0").Tenant
	f.advance(time.Hour)
	f.appendReading(t, tenant.ID, models.MeterElectricity, "130")
	mid := f.now
	f.advance(time.Hour)
	f.appendReading(t, tenant.ID, models.MeterElectricity, "200")

	c, err := f.readings.Consumption(ctx, tenant.ID, models.MeterElectricity, mid)
	require.NoError(t, err)
	assert.True(t, c.Equal(dec("30")))

	c, err = f.readings.Consumption(ctx, tenant.ID, models.MeterElectricity, f.now)
	require.NoError(t, err)
	assert.True(t, c.Equal(dec("70")))

	c, err = f.readings.Consumption(ctx, tenant.ID, models.MeterElectricity, t0)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestHistoryViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tenant := f.addTenant(t, "Asha", "1000", "100", "5").Tenant
	f.advance(time.Hour)
	f.appendReading(t, tenant.ID, models.MeterWater, "9")

	views, err := f.readings.History(ctx, tenant.ID, 10)
	require.NoError(t, err)
	require.Len(t, views, 3)

	newest := views[0]
	assert.Equal(t, models.MeterWater, newest.Reading.MeterType)
	require.NotNil(t, newest.Previous)
	require.NotNil(t, newest.Consumption)
	assert.True(t, newest.Consumption.Equal(dec("4")))

	for _, v := range views[1:] {
		assert.Nil(t, v.Previous)
		assert.Nil(t, v.Consumption)
	}

	limited, err := f.readings.History(ctx, tenant.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
