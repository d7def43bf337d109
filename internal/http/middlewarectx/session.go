// Package middlewarectx содержит HTTP middleware панели: проверку сессии,
// проверку прав в текущем филиале и ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/salon-admin/internal/http/response"
	"github.com/magabrotheeeer/salon-admin/internal/session"
)

// Authenticator сообщает, есть ли активная сессия.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// PermissionChecker проверяет право в текущем филиале.
type PermissionChecker interface {
	HasPermission(permission string) bool
}

// RequireSession пропускает запрос только при наличии токена сессии.
func RequireSession(sessions Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireSession"
			if !sessions.IsAuthenticated(r.Context()) {
				log.Warn("request without session",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("not logged in"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission пропускает запрос, если в текущем филиале есть право,
// которое таблица маршрутов требует для раздела route. Раздел без требования открыт.
func RequirePermission(perms PermissionChecker, route string, log *slog.Logger) func(http.Handler) http.Handler {
	required, gated := session.RequiredPermission(route)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequirePermission"
			if gated && !perms.HasPermission(required) {
				log.Warn("permission denied",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("permission", required),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("permission denied: "+required))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
