// Package login реализует HTTP-обработчик входа администратора.
//
// Обработчик декодирует форму, передаёт её сервису аутентификации и
// возвращает пользователя, его филиалы и выбранный филиал. Токен остаётся
// в хранилище сессии и клиенту не отдаётся.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/salon-admin/internal/http/response"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/services/auth"
	"github.com/magabrotheeeer/salon-admin/internal/session"
)

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service      // Сервис аутентификации
}

// Service описывает сценарий входа.
type Service interface {
	Login(ctx context.Context, req auth.LoginRequest) (models.Session, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Вход администратора
// @Description Проверяет email и пароль через API салона и открывает сессию.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body auth.LoginRequest true "Учетные данные"
// @Success 200 {object} response.Response "Пользователь и филиалы"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка API салона"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("email", req.Email))

	sess, err := h.service.Login(r.Context(), req)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		if errors.Is(err, session.ErrInvalidToken) {
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("login response has no token"))
			return
		}
		response.Fail(w, r, err, http.StatusInternalServerError, "Login failed")
		return
	}

	branches := sess.Branches
	if len(branches) == 0 && sess.User != nil && sess.User.Branch != nil {
		branches = []models.Branch{*sess.User.Branch}
	}
	var current *models.Branch
	if len(branches) > 0 {
		current = &branches[0]
	}

	log.Info("login success", slog.Int("branches", len(branches)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user":           sess.User,
		"branches":       branches,
		"current_branch": current,
	}))
}
