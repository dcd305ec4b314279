package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborline/cruisebook-backend/api/controllers"
	webhookcontrollers "github.com/harborline/cruisebook-backend/api/controllers/webhooks"
	"github.com/harborline/cruisebook-backend/api/middleware"
	"github.com/harborline/cruisebook-backend/pkg/config"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

// Services groups the wired application services the router exposes.
type Services struct {
	Cruises    controllers.CruiseCatalog
	Quotes     controllers.Quoter
	Bookings   controllers.BookingService
	Promotions controllers.PromotionService
	Payments   controllers.PaymentIntentService
	Webhooks   webhookcontrollers.StripeWebhookService
}

// StripeVerifier exposes the webhook signing secret.
type StripeVerifier interface {
	SigningSecret() string
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	registry *prometheus.Registry,
	stripeClient StripeVerifier,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cruises", func(r chi.Router) {
			r.Get("/", controllers.ListCruises(svcs.Cruises, logg))
			r.Get("/{cruiseId}", controllers.GetCruise(svcs.Cruises, logg))
		})

		r.Post("/quote", controllers.CreateQuote(svcs.Quotes, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.CreateBooking(svcs.Bookings, logg))
			r.Get("/{bookingId}", controllers.GetBooking(svcs.Bookings, logg))
			r.Post("/{bookingId}/cancel", controllers.CancelBooking(svcs.Bookings, logg))
			r.Post("/{bookingId}/payment-intent", controllers.CreateBookingPaymentIntent(svcs.Payments, logg))
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(svcs.Webhooks, stripeClient, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWT, logg))

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.AdminListPromotions(svcs.Promotions, logg))
			r.Post("/", controllers.AdminCreatePromotion(svcs.Promotions, logg))
			r.Get("/{promotionId}", controllers.AdminGetPromotion(svcs.Promotions, logg))
			r.Put("/{promotionId}", controllers.AdminUpdatePromotion(svcs.Promotions, logg))
			r.Delete("/{promotionId}", controllers.AdminDeactivatePromotion(svcs.Promotions, logg))
		})

		r.Get("/bookings", controllers.ListBookings(svcs.Bookings, logg))
	})

	return r
}
