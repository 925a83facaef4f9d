package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rent-backend/internal/events"
	"rent-backend/internal/handlers"
	"rent-backend/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth      *handlers.AuthHandler
	TOTP      *handlers.TOTPHandler
	Tenant    *handlers.TenantHandler
	Reading   *handlers.ReadingHandler
	Rate      *handlers.RateHandler
	Payment   *handlers.PaymentHandler
	Razorpay  *handlers.RazorpayHandler
	Dashboard *handlers.DashboardHandler
	Reminder  *handlers.ReminderHandler
	Health    *handlers.HealthHandler
	Events    *events.Hub
}

// NewRouter mounts the API. uploadsDir, when set, is served under /uploads/.
func NewRouter(h *Handlers, authMiddleware *middleware.AuthMiddleware, uploadsDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	if uploadsDir != "" {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	}

	// Health and metrics
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public API routes - Authentication
	r.HandleFunc("/auth/register", h.Auth.RegisterOwner).Methods("POST")
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/auth/2fa/verify", h.Auth.VerifyTwoFactor).Methods("POST")

	// Razorpay calls the webhook without a bearer token; it is signed instead
	r.HandleFunc("/api/payments/webhook", h.Razorpay.HandleWebhook).Methods("POST")

	// Any authenticated user
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("/me", h.Auth.Me).Methods("GET")
	api.HandleFunc("/me/password", h.Auth.ChangePassword).Methods("POST")
	api.HandleFunc("/rates/current", h.Rate.Current).Methods("GET")
	api.HandleFunc("/payments", h.Payment.List).Methods("GET")
	api.HandleFunc("/payments/{id:[0-9]+}", h.Payment.Get).Methods("GET")
	api.HandleFunc("/payments/{id:[0-9]+}/receipt", h.Payment.Receipt).Methods("GET")

	// Tenant routes
	tenantAPI := r.PathPrefix("/api/tenant").Subrouter()
	tenantAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireTenant)
	tenantAPI.HandleFunc("/dashboard", h.Dashboard.Tenant).Methods("GET")
	tenantAPI.HandleFunc("/amount-due", h.Payment.AmountDue).Methods("GET")
	tenantAPI.HandleFunc("/readings", h.Reading.Upload).Methods("POST")
	tenantAPI.HandleFunc("/readings", h.Reading.History).Methods("GET")
	tenantAPI.HandleFunc("/payments", h.Payment.Create).Methods("POST")
	tenantAPI.HandleFunc("/payments/verify", h.Razorpay.VerifyPayment).Methods("POST")

	// Owner routes
	ownerAPI := r.PathPrefix("/api/owner").Subrouter()
	ownerAPI.Use(authMiddleware.Authenticate, authMiddleware.RequireOwner)
	ownerAPI.HandleFunc("/dashboard", h.Dashboard.Owner).Methods("GET")
	ownerAPI.HandleFunc("/tenants", h.Tenant.List).Methods("GET")
	ownerAPI.HandleFunc("/tenants", h.Tenant.Create).Methods("POST")
	ownerAPI.HandleFunc("/tenants/{id:[0-9]+}", h.Tenant.Get).Methods("GET")
	ownerAPI.HandleFunc("/tenants/{id:[0-9]+}", h.Tenant.Delete).Methods("DELETE")
	ownerAPI.HandleFunc("/tenants/{id:[0-9]+}/rent", h.Tenant.UpdateRent).Methods("PUT")
	ownerAPI.HandleFunc("/tenants/{id:[0-9]+}/readings", h.Tenant.ListReadings).Methods("GET")
	ownerAPI.HandleFunc("/rates", h.Rate.Set).Methods("POST")
	ownerAPI.HandleFunc("/rates", h.Rate.History).Methods("GET")
	ownerAPI.HandleFunc("/water-bills", h.Rate.WaterBillHistory).Methods("GET")
	ownerAPI.HandleFunc("/payments/pending", h.Payment.Pending).Methods("GET")
	ownerAPI.HandleFunc("/payments/{id:[0-9]+}/confirm", h.Payment.Confirm).Methods("POST")
	ownerAPI.HandleFunc("/payments/{id:[0-9]+}/reject", h.Payment.Reject).Methods("POST")
	ownerAPI.HandleFunc("/reminders/run", h.Reminder.Run).Methods("POST")
	ownerAPI.HandleFunc("/2fa/status", h.TOTP.Status).Methods("GET")
	ownerAPI.HandleFunc("/2fa/setup", h.TOTP.SetupTOTP).Methods("POST")
	ownerAPI.HandleFunc("/2fa/enable", h.TOTP.EnableTOTP).Methods("POST")
	ownerAPI.HandleFunc("/2fa/disable", h.TOTP.DisableTOTP).Methods("POST")
	ownerAPI.HandleFunc("/events", h.Events.ServeWS).Methods("GET")

	return r
}
