package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyayasetu/legal-intake-platform/internal/http/handlers"
	httpmiddleware "github.com/nyayasetu/legal-intake-platform/internal/http/middleware"
	"github.com/nyayasetu/legal-intake-platform/internal/messaging/whatsapp"
	"github.com/nyayasetu/legal-intake-platform/internal/payments"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	WhatsAppWebhook *whatsapp.Handler
	PaymentWebhook  *payments.WebhookHandler
	FakePayments    *payments.FakeHandler
	AdminBookings   *handlers.AdminBookingsHandler

	AdminJWTSecret string
	MetricsHandler http.Handler
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: webhooks, health, metrics. Webhooks authenticate
	// with their own signatures rather than middleware.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WhatsAppWebhook != nil {
			public.Get("/webhooks/whatsapp", cfg.WhatsAppWebhook.Verify)
			public.Post("/webhooks/whatsapp", cfg.WhatsAppWebhook.Receive)
		}
		if cfg.PaymentWebhook != nil {
			public.Method(http.MethodPost, "/webhooks/payments", cfg.PaymentWebhook)
		}
		// Dev-only checkout pages, enabled by ALLOW_FAKE_PAYMENTS.
		if cfg.FakePayments != nil {
			public.Route("/payments/fake", func(r chi.Router) {
				r.Use(httpmiddleware.RateLimit(5, 10))
				r.Mount("/", cfg.FakePayments.Routes())
			})
		}
	})

	// Back-office endpoints behind the admin JWT.
	if cfg.AdminBookings != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Use(httpmiddleware.RateLimit(10, 20))
			admin.Mount("/bookings", cfg.AdminBookings.Routes())
		})
	}

	return r
}
