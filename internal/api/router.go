package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/scheduling"
)

type RouterConfig struct {
	Scheduling      *scheduling.Service
	Auth            *auth.Service
	PgPool          *pgxpool.Pool
	Redis           *redis.Client // nil when running without Redis
	Env             string
	Version         string
	LoginRatePerMin int
	BookRatePerMin  int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	loginLimiter := newKeyedLimiter(cfg.LoginRatePerMin)
	bookLimiter := newKeyedLimiter(cfg.BookRatePerMin)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Liveness)
		r.Get("/health/ready", health.Readiness)

		r.Post("/auth/register", registerHandler(cfg.Auth))
		r.With(RateLimitByIP(loginLimiter)).Post("/auth/login", loginHandler(cfg.Auth))

		r.Group(func(r chi.Router) {
			r.Use(Authenticator(cfg.Auth))

			r.With(RequireRole(auth.RoleDoctor)).Post("/slots", createSlotHandler(cfg.Scheduling))
			r.Get("/slots/available", availableSlotsHandler(cfg.Scheduling))

			r.With(RequireRole(auth.RolePatient), RateLimitByUser(bookLimiter)).
				Post("/bookings", bookHandler(cfg.Scheduling))
			r.Post("/bookings/cancel", cancelHandler(cfg.Scheduling))
			r.With(RequireRole(auth.RoleDoctor)).Get("/bookings/doctor", doctorBookingsHandler(cfg.Scheduling))
			r.With(RequireRole(auth.RolePatient)).Get("/bookings/patient", patientBookingsHandler(cfg.Scheduling))
		})
	})

	return r
}
