package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/carbonos/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Gzip(h.logger))
	r.Use(custommiddleware.Logger(h.logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/marketplace", func(r chi.Router) {
		r.Get("/businesses", h.GetBusinesses)
		r.Get("/categories", h.GetCategories)
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.PutProfile)
			r.Get("/onboarding", h.GetOnboarding)

			r.Get("/sleep-mode", h.GetSleepMode)
			r.Put("/sleep-mode", h.PutSleepMode)

			r.Post("/activities", h.LogActivity)
			r.Get("/activities", h.GetActivities)

			r.Get("/emissions", h.GetEmissions)
			r.Get("/emissions/series", h.GetSeries)

			r.Get("/rewards", h.GetRewards)
			r.Get("/insights", h.GetInsights)

			r.Get("/coupons", h.GetCoupons)
			r.Post("/coupons", h.Redeem)
			r.Post("/coupons/{id}/use", h.UseCoupon)

			r.Delete("/data", h.ClearData)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
