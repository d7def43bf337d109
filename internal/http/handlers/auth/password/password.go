// Package password реализует HTTP-обработчики восстановления пароля:
// запрос письма, проверку токена из письма и установку нового пароля.
package password

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/salon-admin/internal/http/response"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/services/auth"
)

// Service описывает сценарии восстановления пароля.
type Service interface {
	ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error
	CheckResetToken(ctx context.Context, req auth.CheckResetTokenRequest) error
	ChangePassword(ctx context.Context, req auth.ChangePasswordRequest) error
}

// ResetHandler отправляет письмо для сброса пароля.
type ResetHandler struct {
	log     *slog.Logger
	service Service
}

// NewReset создает ResetHandler.
func NewReset(log *slog.Logger, service Service) *ResetHandler {
	return &ResetHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запрос сброса пароля
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body auth.ResetPasswordRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/reset-password [post]
func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.password.reset"
	log := requestLog(h.log, op, r)

	var req auth.ResetPasswordRequest
	if !decode(w, r, log, &req) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		log.Error("reset password failed", sl.Err(err))
		response.Fail(w, r, err, http.StatusInternalServerError, "Failed to send reset link")
		return
	}

	log.Info("reset link requested")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"sent": true}))
}

// CheckTokenHandler проверяет токен сброса.
type CheckTokenHandler struct {
	log     *slog.Logger
	service Service
}

// NewCheckToken создает CheckTokenHandler.
func NewCheckToken(log *slog.Logger, service Service) *CheckTokenHandler {
	return &CheckTokenHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверка токена сброса пароля
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body auth.CheckResetTokenRequest true "Токен из письма"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/check-reset-token [post]
func (h *CheckTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.password.check"
	log := requestLog(h.log, op, r)

	var req auth.CheckResetTokenRequest
	if !decode(w, r, log, &req) {
		return
	}
	if err := h.service.CheckResetToken(r.Context(), req); err != nil {
		log.Warn("reset token rejected", sl.Err(err))
		response.Fail(w, r, err, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{"valid": true}))
}

// ChangeHandler устанавливает новый пароль.
type ChangeHandler struct {
	log     *slog.Logger
	service Service
}

// NewChange создает ChangeHandler.
func NewChange(log *slog.Logger, service Service) *ChangeHandler {
	return &ChangeHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Смена пароля по токену
// @Description Пароль не короче 8 символов и должен совпадать с подтверждением.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body auth.ChangePasswordRequest true "Новый пароль"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/change-password [post]
func (h *ChangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.password.change"
	log := requestLog(h.log, op, r)

	var req auth.ChangePasswordRequest
	if !decode(w, r, log, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), req); err != nil {
		log.Error("change password failed", sl.Err(err))
		response.Fail(w, r, err, http.StatusInternalServerError, "Failed to change password")
		return
	}

	log.Info("password changed")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"changed": true}))
}

func requestLog(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	return true
}
