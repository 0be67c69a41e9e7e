package studio

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rules "github.com/magabrotheeeer/practice-studio/internal/entitlement"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/access/check"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/health"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/progress/complete"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/progress/points"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/progress/read"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/progress/streak"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/trial"
	"github.com/magabrotheeeer/practice-studio/internal/http/handlers/users/entitlement"
	"github.com/magabrotheeeer/practice-studio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/practice-studio/internal/models"
)

// AccessService объединяет операции сервиса доступа, нужные маршрутам.
type AccessService interface {
	trial.Service
	check.Service
	entitlement.Service
	middlewarectx.Authorizer
}

// ProgressService объединяет операции сервиса прогресса, нужные маршрутам.
type ProgressService interface {
	read.Service
	complete.Service
	points.Service
	streak.Service
}

// TokenService выпускает и проверяет JWT токены.
type TokenService interface {
	trial.TokenMaker
	middlewarectx.TokenParser
}

// Deps зависимости маршрутов.
type Deps struct {
	Logger   *slog.Logger
	Access   AccessService
	Progress ProgressService
	Tokens   TokenService
	Limiter  *middlewarectx.RateLimiter
	Health   health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(d.Logger, d.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.With(middlewarectx.RateLimitMiddleware(d.Logger, d.Limiter)).
			Post("/trial", trial.New(d.Logger, d.Access, d.Tokens).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Tokens, d.Logger))
			r.Use(middlewarectx.RateLimitMiddleware(d.Logger, d.Limiter))

			r.Get("/content/{visibility}/access", check.New(d.Logger, d.Access).ServeHTTP)
			r.Get("/progress", read.New(d.Logger, d.Progress).ServeHTTP)

			// Завершать занятия могут только пользователи с доступом к контенту
			r.With(middlewarectx.EntitlementMiddleware(d.Logger, d.Access, rules.DefaultRoles...)).
				Post("/progress/complete", complete.New(d.Logger, d.Progress).ServeHTTP)

			// Только администраторы с действующим статусом: ручные начисления,
			// отметка дня практики от планировщика и смена доступа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.EntitlementMiddleware(d.Logger, d.Access, models.RoleAdmin))

				r.Put("/users/{id}/entitlement", entitlement.New(d.Logger, d.Access).ServeHTTP)
				r.Post("/users/{id}/progress/points", points.New(d.Logger, d.Progress).ServeHTTP)
				r.Post("/users/{id}/progress/streak", streak.New(d.Logger, d.Progress).ServeHTTP)
			})
		})
	})
}
