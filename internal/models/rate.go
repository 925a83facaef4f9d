package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ElectricityRate struct {
	ID            int             `json:"id"`
	RatePerUnit   decimal.Decimal `json:"rate_per_unit"`
	EffectiveFrom time.Time       `json:"effective_from"`
}

type SetRateRequest struct {
	RatePerUnit decimal.Decimal `json:"rate_per_unit"`
}

// WaterBill is one aggregate water charge split across all tenants.
type WaterBill struct {
	ID              int             `json:"id"`
	TotalUsage      decimal.Decimal `json:"total_usage"`
	TenantCount     int             `json:"tenant_count"`
	AmountPerTenant decimal.Decimal `json:"amount_per_tenant"`
	BillingDate     time.Time       `json:"billing_date"`
}
