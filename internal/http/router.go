package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
)

// RouterOptions switches on the optional middleware. A nil Limiter or
// Idempotency leaves that middleware out.
type RouterOptions struct {
	Limiter     Limiter
	RatePerMin  int
	Idempotency IdempotencyStore
}

func SetupRouter(h *Handlers, logger observability.Logger, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		if opts.Limiter != nil && opts.RatePerMin > 0 {
			r.Use(RateLimitMiddleware(opts.Limiter, opts.RatePerMin))
		}
		if opts.Idempotency != nil {
			r.Use(IdempotencyMiddleware(opts.Idempotency))
		}

		r.Route("/v1/listings", func(r chi.Router) {
			r.Post("/", h.CreateListing)
			r.Get("/", h.SearchListings)
			r.Get("/{id}", h.GetListing)
			r.Patch("/{id}/settled", h.MarkSettled)
			r.Delete("/{id}", h.DeleteListing)
			r.Get("/{id}/offers", h.OffersForListing)
		})
		r.Get("/v1/sellers/{identity}/listings", h.SellerListings)
		r.Get("/v1/sellers/{identity}/offers", h.SellerOffers)
		r.Post("/v1/offers", h.SubmitOffer)
		r.Delete("/v1/offers/{id}", h.WithdrawOffer)
	})

	return r
}
