package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/point-ledger/internal/api/handlers"
	"github.com/baharkarakas/point-ledger/internal/config"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/middleware"
)

func NewRouter(cfg config.Config, ledger handlers.Ledger, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	ph := handlers.NewPointHandler(ledger, cfg.MinChargeAmount, cfg.MinUseAmount)

	r := chi.NewRouter()
	r.Use(chimw.RealIP, middleware.RequestID, middleware.Recover, middleware.AccessLog(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS, cfg.RateBurst), middleware.Timeout(cfg.RequestTimeout))

		r.Route("/point/{id}", func(r chi.Router) {
			r.Get("/", ph.Get)
			r.Patch("/charge", ph.Charge)
			r.Patch("/use", ph.Use)
			r.Get("/histories", ph.Histories)
		})

		if cfg.AdminResetEnabled {
			r.Post("/admin/reset", ph.Reset)
		}
	})

	return r
}
