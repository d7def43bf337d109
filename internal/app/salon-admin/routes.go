// Package salonadmin собирает панель администратора салона: ядро сервисов,
// маршруты HTTP API и сам сервер.
package salonadmin

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/salon-admin/internal/config"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/auth/password"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/branches"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/memberships"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/panels"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/sessioninfo"
	"github.com/magabrotheeeer/salon-admin/internal/http/handlers/subscribers"
	"github.com/magabrotheeeer/salon-admin/internal/http/middlewarectx"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, core *Core, cfg config.HTTPServer) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimit(logger, cfg.RateLimit, cfg.RateBurst))

		// Открытые конечные точки
		r.Post("/auth/login", login.New(logger, core.Auth).ServeHTTP)
		r.Post("/auth/logout", logout.New(logger, core.Auth).ServeHTTP)
		r.Post("/auth/reset-password", password.NewReset(logger, core.Auth).ServeHTTP)
		r.Post("/auth/check-reset-token", password.NewCheckToken(logger, core.Auth).ServeHTTP)
		r.Post("/auth/change-password", password.NewChange(logger, core.Auth).ServeHTTP)
		r.Get("/session", sessioninfo.NewInfo(logger, core.Session, core.Branches).ServeHTTP)

		// Группа с сессией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireSession(core.Session, logger))

			r.Get("/session/access", sessioninfo.NewAccess(logger, core.Branches).ServeHTTP)
			r.Get("/branches", branches.NewList(logger, core.Branches).ServeHTTP)
			r.Put("/branches/current", branches.NewUse(logger, core.Branches).ServeHTTP)

			r.With(middlewarectx.RequirePermission(core.Branches, "/dashboard", logger)).
				Get("/dashboard", panels.NewDashboard(logger, core.Dashboard).ServeHTTP)
			r.With(middlewarectx.RequirePermission(core.Branches, "/reports", logger)).
				Get("/reports", panels.NewReports(logger, core.Dashboard).ServeHTTP)
			r.With(middlewarectx.RequirePermission(core.Branches, "/customers", logger)).
				Get("/customers", panels.NewCustomers(logger, core.Dashboard).ServeHTTP)
			r.Get("/bookings", panels.NewBookings(logger, core.Dashboard).ServeHTTP)

			r.Route("/memberships", func(r chi.Router) {
				r.Use(middlewarectx.RequirePermission(core.Branches, "/memberships", logger))

				mh := memberships.New(logger, core.Catalog)
				r.Get("/", mh.List)
				r.Post("/", mh.Create)
				r.Post("/sort", mh.Sort)
				r.Put("/{id}", mh.Update)
				r.Delete("/{id}", mh.Delete)
				r.Post("/{id}/toggle", mh.Toggle)

				sh := subscribers.New(logger, core.Roster)
				r.Get("/{id}/subscribers", sh.List)
				r.Post("/{id}/subscribers", sh.Add)
				r.Post("/{id}/subscribers/{sid}/cancel", sh.RequestCancel)
				r.Post("/{id}/cancel/confirm", sh.Confirm)
				r.Post("/{id}/cancel/decline", sh.Decline)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
