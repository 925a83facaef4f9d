package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rent-backend/internal/models"
)

type RateRepository struct {
	DB *pgxpool.Pool
}

func NewRateRepository(db *pgxpool.Pool) *RateRepository {
	return &RateRepository{DB: db}
}

func (r *RateRepository) Create(ctx context.Context, rate *models.ElectricityRate) error {
	return conn(ctx, r.DB).QueryRow(ctx,
		`INSERT INTO electricity_rates(rate_per_unit, effective_from) VALUES($1, $2) RETURNING id`,
		rate.RatePerUnit, rate.EffectiveFrom,
	).Scan(&rate.ID)
}

// CurrentAsOf returns the rate with the greatest effective_from not after asOf.
// Rates sharing an effective_from resolve to the last inserted.
func (r *RateRepository) CurrentAsOf(ctx context.Context, asOf time.Time) (*models.ElectricityRate, error) {
	var rate models.ElectricityRate
	err := conn(ctx, r.DB).QueryRow(ctx,
		`SELECT id, rate_per_unit, effective_from FROM electricity_rates
         WHERE effective_from <= $1
         ORDER BY effective_from DESC, id DESC LIMIT 1`, asOf,
	).Scan(&rate.ID, &rate.RatePerUnit, &rate.EffectiveFrom)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *RateRepository) List(ctx context.Context) ([]*models.ElectricityRate, error) {
	rows, err := conn(ctx, r.DB).Query(ctx,
		`SELECT id, rate_per_unit, effective_from FROM electricity_rates ORDER BY effective_from DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []*models.ElectricityRate
	for rows.Next() {
		var rate models.ElectricityRate
		if err := rows.Scan(&rate.ID, &rate.RatePerUnit, &rate.EffectiveFrom); err != nil {
			return nil, err
		}
		rates = append(rates, &rate)
	}
	return rates, rows.Err()
}

type WaterBillRepository struct {
	DB *pgxpool.Pool
}

func NewWaterBillRepository(db *pgxpool.Pool) *WaterBillRepository {
	return &WaterBillRepository{DB: db}
}

func (r *WaterBillRepository) Create(ctx context.Context, bill *models.WaterBill) error {
	return conn(ctx, r.DB).QueryRow(ctx,
		`INSERT INTO water_bills(total_usage, tenant_count, amount_per_tenant, billing_date)
         VALUES($1, $2, $3, $4) RETURNING id`,
		bill.TotalUsage, bill.TenantCount, bill.AmountPerTenant, bill.BillingDate,
	).Scan(&bill.ID)
}

func (r *WaterBillRepository) Latest(ctx context.Context) (*models.WaterBill, error) {
	bills, err := r.List(ctx, 1)
	if err != nil || len(bills) == 0 {
		return nil, err
	}
	return bills[0], nil
}

func (r *WaterBillRepository) List(ctx context.Context, limit int) ([]*models.WaterBill, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := conn(ctx, r.DB).Query(ctx,
		`SELECT id, total_usage, tenant_count, amount_per_tenant, billing_date
         FROM water_bills ORDER BY billing_date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*models.WaterBill
	for rows.Next() {
		var b models.WaterBill
		if err := rows.Scan(&b.ID, &b.TotalUsage, &b.TenantCount, &b.AmountPerTenant, &b.BillingDate); err != nil {
			return nil, err
		}
		bills = append(bills, &b)
	}
	return bills, rows.Err()
}
