// Package subscribers реализует HTTP-обработчики списка подписчиков абонемента:
// просмотр активных и отменённых/истёкших, добавление клиента и отмену
// подписки с подтверждением.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/salon-admin/internal/http/response"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/services/roster"
)

// Service описывает операции над списком подписчиков.
type Service interface {
	MembershipID() models.ID
	Load(ctx context.Context, membershipID models.ID) error
	View() roster.View
	SetFilter(f roster.Filter) error
	Search(q string)
	SetPage(n int)
	Add(ctx context.Context, customerID models.ID, startDate string) (models.Subscriber, error)
	RequestCancel(id models.ID, mode roster.Mode) (roster.PendingCancel, error)
	Confirm(ctx context.Context) (models.Subscriber, error)
	Decline()
}

// AddRequest добавляет клиента в абонемент.
type AddRequest struct {
	CustomerID models.ID `json:"customer_id" swaggertype:"string"`
	StartDate  string    `json:"start_date" example:"2024-08-30"`
}

// CancelRequest — запрос отмены. Пустой mode означает отмену подписки.
type CancelRequest struct {
	Mode roster.Mode `json:"mode" enums:"cancel,expire"`
}

// Handler обрабатывает запросы списка подписчиков.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Подписчики абонемента
// @Description Загружает список при переходе к другому абонементу или при refresh=true; загрузка сбрасывает фильтр, поиск и страницу.
// @Tags Subscribers
// @Produce  json
// @Param id path string true "ID абонемента"
// @Param filter query string false "active или cancelled_or_expired"
// @Param q query string false "Поиск по имени клиента"
// @Param page query int false "Страница"
// @Param refresh query bool false "Перечитать список"
// @Success 200 {object} response.Response{data=roster.View}
// @Failure 400 {object} response.ErrorResponse "Неизвестный фильтр"
// @Failure 502 {object} response.ErrorResponse "Ошибка API салона"
// @Router /memberships/{id}/subscribers [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.subscribers.list", r)
	id := models.ID(chi.URLParam(r, "id"))
	query := r.URL.Query()

	if h.service.MembershipID() != id || query.Get("refresh") == "true" {
		if err := h.service.Load(r.Context(), id); err != nil && !errors.Is(err, roster.ErrStale) {
			log.Error("failed to load subscribers", slog.String("membership_id", id.String()), sl.Err(err))
			response.Fail(w, r, err, http.StatusBadGateway, "Failed to load subscribers")
			return
		}
	}

	if f := query.Get("filter"); f != "" {
		if err := h.service.SetFilter(roster.Filter(f)); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown filter"))
			return
		}
	}
	if query.Has("q") {
		h.service.Search(query.Get("q"))
	}
	if n, err := strconv.Atoi(query.Get("page")); err == nil {
		h.service.SetPage(n)
	}

	render.JSON(w, r, response.StatusOKWithData(h.service.View()))
}

// Add godoc
// @Summary Добавление клиента в абонемент
// @Tags Subscribers
// @Accept  json
// @Produce  json
// @Param id path string true "ID абонемента"
// @Param request body AddRequest true "Клиент и дата начала"
// @Success 201 {object} response.Response{data=models.Subscriber}
// @Failure 409 {object} response.ErrorResponse "Абонемент не открыт"
// @Failure 422 {object} response.ErrorResponse "Не выбраны клиент или дата"
// @Router /memberships/{id}/subscribers [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.subscribers.add", r)
	if !h.opened(w, r) {
		return
	}

	var req AddRequest
	if !decode(w, r, log, &req) {
		return
	}
	s, err := h.service.Add(r.Context(), req.CustomerID, req.StartDate)
	if err != nil {
		log.Error("failed to add subscriber", sl.Err(err))
		h.fail(w, r, err, "Failed to add customer")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(s))
}

// RequestCancel godoc
// @Summary Запрос отмены подписки
// @Description Доступен только в активной части списка и только для активного подписчика. Повторный запрос заменяет предыдущий.
// @Tags Subscribers
// @Accept  json
// @Produce  json
// @Param id path string true "ID абонемента"
// @Param sid path string true "ID подписчика"
// @Param request body CancelRequest false "Способ отмены"
// @Success 200 {object} response.Response{data=roster.PendingCancel}
// @Failure 409 {object} response.ErrorResponse "Подписчик не активен"
// @Router /memberships/{id}/subscribers/{sid}/cancel [post]
func (h *Handler) RequestCancel(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.subscribers.cancel", r)
	if !h.opened(w, r) {
		return
	}

	var req CancelRequest
	if r.ContentLength != 0 && !decode(w, r, log, &req) {
		return
	}
	p, err := h.service.RequestCancel(models.ID(chi.URLParam(r, "sid")), req.Mode)
	if err != nil {
		log.Warn("cancel request rejected", sl.Err(err))
		h.fail(w, r, err, "Failed to cancel subscription")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

// Confirm godoc
// @Summary Подтверждение отмены
// @Tags Subscribers
// @Produce  json
// @Param id path string true "ID абонемента"
// @Success 200 {object} response.Response{data=models.Subscriber}
// @Failure 409 {object} response.ErrorResponse "Нет запроса отмены"
// @Router /memberships/{id}/cancel/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.subscribers.confirm", r)
	if !h.opened(w, r) {
		return
	}

	s, err := h.service.Confirm(r.Context())
	if err != nil {
		log.Error("failed to confirm cancellation", sl.Err(err))
		h.fail(w, r, err, "Failed to cancel subscription")
		return
	}
	log.Info("cancellation confirmed", slog.String("subscriber_id", s.ID.String()))
	render.JSON(w, r, response.StatusOKWithData(s))
}

// Decline godoc
// @Summary Отказ от отмены
// @Tags Subscribers
// @Produce  json
// @Param id path string true "ID абонемента"
// @Success 200 {object} response.Response
// @Router /memberships/{id}/cancel/decline [post]
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	if !h.opened(w, r) {
		return
	}
	h.service.Decline()
	render.JSON(w, r, response.StatusOKWithData(h.service.View()))
}

// opened проверяет, что в списке открыт абонемент из пути.
func (h *Handler) opened(w http.ResponseWriter, r *http.Request) bool {
	if h.service.MembershipID() != models.ID(chi.URLParam(r, "id")) {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("membership is not open"))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := 0, ""
	switch {
	case errors.Is(err, roster.ErrNotFound):
		status, msg = http.StatusNotFound, "subscriber not found"
	case errors.Is(err, roster.ErrNotActive):
		status, msg = http.StatusConflict, "subscriber is not active"
	case errors.Is(err, roster.ErrNoPendingCancel):
		status, msg = http.StatusConflict, "no pending cancellation"
	case errors.Is(err, roster.ErrNotLoaded):
		status, msg = http.StatusConflict, "membership is not open"
	case errors.Is(err, roster.ErrUnknownMode):
		status, msg = http.StatusBadRequest, "unknown cancel mode"
	case errors.Is(err, roster.ErrIncomplete):
		status, msg = http.StatusUnprocessableEntity, "customer and start date are required"
	case errors.Is(err, roster.ErrInvalidDate):
		status, msg = http.StatusUnprocessableEntity, "invalid start date"
	}
	if status != 0 {
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}
	response.Fail(w, r, err, http.StatusInternalServerError, fallback)
}

func (h *Handler) requestLog(op string, r *http.Request) *slog.Logger {
	return h.log.With(
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
