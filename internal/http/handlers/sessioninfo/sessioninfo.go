// Package sessioninfo реализует HTTP-обработчики состояния сессии: кто вошёл,
// какие у него права в текущем филиале и доступен ли ему раздел панели.
package sessioninfo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/salon-admin/internal/http/response"
	"github.com/magabrotheeeer/salon-admin/internal/lib/jwt"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/session"
)

// Sessions отдаёт данные сохранённой сессии.
type Sessions interface {
	IsAuthenticated(ctx context.Context) bool
	Token(ctx context.Context) (string, bool)
	User(ctx context.Context) *models.User
}

// Branches отдаёт текущий филиал и права в нём.
type Branches interface {
	CurrentBranch(ctx context.Context) *models.Branch
	Permissions() []string
}

// Info — ответ GET /session.
type Info struct {
	Authenticated bool           `json:"authenticated"`
	User          *models.User   `json:"user,omitempty"`
	CurrentBranch *models.Branch `json:"current_branch,omitempty"`
	Permissions   []string       `json:"permissions"`
	Token         *jwt.Info      `json:"token,omitempty"`
	TokenExpired  bool           `json:"token_expired,omitempty"`
}

// InfoHandler возвращает состояние сессии.
type InfoHandler struct {
	log      *slog.Logger
	sessions Sessions
	branches Branches
	now      func() time.Time
}

// NewInfo создает InfoHandler.
func NewInfo(log *slog.Logger, sessions Sessions, branches Branches) *InfoHandler {
	return &InfoHandler{log: log, sessions: sessions, branches: branches, now: time.Now}
}

// ServeHTTP godoc
// @Summary Состояние сессии
// @Description Пользователь, текущий филиал, права и срок действия токена, если токен является JWT.
// @Tags Session
// @Produce  json
// @Success 200 {object} response.Response{data=Info}
// @Router /session [get]
func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.info"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ctx := r.Context()
	info := Info{Permissions: []string{}}
	if !h.sessions.IsAuthenticated(ctx) {
		render.JSON(w, r, response.StatusOKWithData(info))
		return
	}

	info.Authenticated = true
	info.User = h.sessions.User(ctx)
	info.CurrentBranch = h.branches.CurrentBranch(ctx)
	if perms := h.branches.Permissions(); perms != nil {
		info.Permissions = perms
	}

	if token, ok := h.sessions.Token(ctx); ok {
		ti, err := jwt.Inspect(token)
		switch {
		case err == nil:
			info.Token = &ti
			info.TokenExpired = ti.Expired(h.now())
		case errors.Is(err, jwt.ErrNotJWT):
		default:
			log.Warn("failed to inspect token", sl.Err(err))
		}
	}

	render.JSON(w, r, response.StatusOKWithData(info))
}

// Access — ответ GET /session/access.
type Access struct {
	Path       string `json:"path"`
	Allowed    bool   `json:"allowed"`
	Permission string `json:"permission,omitempty"`
}

// AccessHandler отвечает, можно ли открыть раздел панели.
type AccessHandler struct {
	log      *slog.Logger
	branches Branches
}

// NewAccess создает AccessHandler.
func NewAccess(log *slog.Logger, branches Branches) *AccessHandler {
	return &AccessHandler{log: log, branches: branches}
}

// ServeHTTP godoc
// @Summary Доступ к разделу
// @Description Раздел без обязательного права доступен всегда.
// @Tags Session
// @Produce  json
// @Param path query string true "Путь раздела, например /booking/edit/42"
// @Success 200 {object} response.Response{data=Access}
// @Failure 400 {object} response.ErrorResponse "Не задан path"
// @Router /session/access [get]
func (h *AccessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.access"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("path is required"))
		return
	}

	perm, _ := session.RequiredPermission(path)
	allowed := session.CanAccess(path, h.branches.Permissions())
	log.Debug("access checked", slog.String("path", path), slog.Bool("allowed", allowed))

	render.JSON(w, r, response.StatusOKWithData(Access{
		Path:       path,
		Allowed:    allowed,
		Permission: perm,
	}))
}
