package models

// TOTPSetupResponse returned when initiating 2FA setup
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`  // Base32 secret for manual entry
	QRCode      string `json:"qr_code"` // Base64 encoded PNG QR code
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

// TOTPEnableRequest to verify and enable 2FA
type TOTPEnableRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TOTPVerifyRequest for login 2FA verification
type TOTPVerifyRequest struct {
	TempToken string `json:"temp_token" validate:"required"` // Temporary token from step 1
	Code      string `json:"code" validate:"required"`
}

// TOTPDisableRequest to disable 2FA
type TOTPDisableRequest struct {
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// LoginStep1Response when 2FA is required after password verification
type LoginStep1Response struct {
	Requires2FA bool   `json:"requires_2fa"`
	TempToken   string `json:"temp_token,omitempty"` // Short-lived token for step 2
	Message     string `json:"message,omitempty"`
}
