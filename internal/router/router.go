package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mathduel-backend/internal/handlers"
	"mathduel-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	challengeHandler *handlers.ChallengeHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Answer submissions and poller reads share a per-IP budget generous
	// enough for a 2s poll cadence plus bursts of retried submissions.
	apiLimiter := middleware.NewRateLimiter(120, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Challenge Routes ────
		r.Route("/challenges", func(r chi.Router) {
			r.Use(apiLimiter.Middleware)
			r.Use(jwtAuth.Middleware)
			r.Post("/", challengeHandler.Create)
			r.Get("/", challengeHandler.List)
			r.Get("/{id}", challengeHandler.Get)
			r.Post("/{id}/respond", challengeHandler.Respond)
			r.Post("/{id}/answer", challengeHandler.SubmitAnswer)
		})
	})

	return r
}
