package models

type TenantDashboard struct {
	Tenant            *User            `json:"tenant"`
	AmountDue         *AmountDue       `json:"amount_due"`
	LatestElectricity *ReadingView     `json:"latest_electricity,omitempty"`
	LatestWater       *ReadingView     `json:"latest_water,omitempty"`
	RecentReadings    []ReadingView    `json:"recent_readings"`
	RecentPayments    []*Payment       `json:"recent_payments"`
	CurrentRate       *ElectricityRate `json:"current_rate,omitempty"`
	LatestWaterBill   *WaterBill       `json:"latest_water_bill,omitempty"`
}

// TenantOverview is one row of the owner's tenant table
type TenantOverview struct {
	Tenant      *User        `json:"tenant"`
	Electricity *ReadingView `json:"electricity,omitempty"`
	Water       *ReadingView `json:"water,omitempty"`
}

type OwnerDashboard struct {
	Tenants         []TenantOverview `json:"tenants"`
	CurrentRate     *ElectricityRate `json:"current_rate,omitempty"`
	LatestWaterBill *WaterBill       `json:"latest_water_bill,omitempty"`
	Payments        []*Payment       `json:"payments"`
	PendingPayments []*Payment       `json:"pending_payments"`
}
