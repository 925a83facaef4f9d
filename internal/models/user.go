package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// User is either the single owner of the property or a tenant.
type User struct {
	ID           int             `json:"id"`
	TenantCode   string          `json:"tenant_id,omitempty"` // 6 digits, tenants only
	Email        string          `json:"email,omitempty"`
	Name         string          `json:"name"`
	PasswordHash string          `json:"-"` // Never expose in JSON
	IsOwner      bool            `json:"is_owner"`
	RentAmount   decimal.Decimal `json:"rent_amount"`
	Phone        string          `json:"phone_number,omitempty"`
	RentDueDay   int             `json:"rent_due_day,omitempty"` // 1-28, 0 = no reminder
	TOTPSecret   string          `json:"-"`
	TOTPEnabled  bool            `json:"totp_enabled"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RegisterOwnerRequest creates the one owner account of a deployment
type RegisterOwnerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest accepts a tenant id or the owner's email. Identifier takes
// precedence over the tenant_id and email fields.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	TenantID   string `json:"tenant_id"`
	Email      string `json:"email"`
	Password   string `json:"password" validate:"required"`
}

// LoginIdentifier returns the first non-empty identifier field
func (r *LoginRequest) LoginIdentifier() string {
	for _, v := range []string{r.Identifier, r.TenantID, r.Email} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// CreateTenantRequest is submitted by the owner to register a tenant
type CreateTenantRequest struct {
	Name                      string          `json:"name" validate:"required"`
	RentAmount                decimal.Decimal `json:"rent_amount"`
	InitialElectricityReading decimal.Decimal `json:"initial_electricity_reading"`
	InitialWaterReading       decimal.Decimal `json:"initial_water_reading"`
	Email                     string          `json:"email" validate:"omitempty,email"`
	Phone                     string          `json:"phone_number" validate:"omitempty,numeric,min=10,max=13"`
	RentDueDay                int             `json:"rent_due_day" validate:"omitempty,min=1,max=28"`
}

// CreateTenantResponse carries the generated password; it is never stored in plain text
type CreateTenantResponse struct {
	Tenant   *User  `json:"tenant"`
	Password string `json:"password"`
}

type UpdateRentRequest struct {
	RentAmount decimal.Decimal `json:"rent_amount"`
}
