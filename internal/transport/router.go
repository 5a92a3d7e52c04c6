package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripledger/tripledger/internal/auth"
	"github.com/tripledger/tripledger/internal/metrics"
	"github.com/tripledger/tripledger/internal/middleware"
)

// NewRouter builds the full API router. Reads are open; trip-scoped writes
// require a join token for the same trip.
func NewRouter(h *Handler, jwt *auth.JWTManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/trips", func(r chi.Router) {
		r.Post("/", h.createTrip)

		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", h.getTrip)
			r.Post("/join", h.joinTrip)
			r.Get("/expenses", h.listExpenses)
			r.Post("/expenses/preview", h.previewExpense)
			r.Get("/settlement", h.getSettlement)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(jwt))
				r.Post("/expenses", h.createExpense)
				r.Put("/expenses/{expenseID}", h.updateExpense)
				r.Post("/settlements", h.recordTransfer)
			})
		})
	})

	return r
}
