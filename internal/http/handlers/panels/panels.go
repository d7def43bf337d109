// Package panels реализует HTTP-обработчики панелей текущего филиала:
// главной страницы, отчётов, записей и клиентов.
//
// Ошибка бэкенда не подменяется данными: клиент получает код ошибки и
// сообщение из ответа API либо общее сообщение панели.
package panels

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/salon-admin/internal/adminapi"
	"github.com/magabrotheeeer/salon-admin/internal/http/response"
	"github.com/magabrotheeeer/salon-admin/internal/services/dashboard"
)

// Service отдаёт данные панелей.
type Service interface {
	Dashboard(ctx context.Context) dashboard.Panel
	Reports(ctx context.Context) dashboard.Panel
	Bookings(ctx context.Context, q adminapi.BookingsQuery) dashboard.Panel
	Customers(ctx context.Context, search string) dashboard.CustomerList
}

// Handler отдаёт одну панель.
type Handler struct {
	log   *slog.Logger
	name  string
	fetch func(r *http.Request) (data any, errMsg string, err error)
}

// NewDashboard godoc
// @Summary KPI главной страницы
// @Tags Panels
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse "Ошибка API салона"
// @Router /dashboard [get]
func NewDashboard(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "dashboard", fetch: func(r *http.Request) (any, string, error) {
		p := service.Dashboard(r.Context())
		return p.Data, p.Error, p.Err
	}}
}

// NewReports godoc
// @Summary Отчёты
// @Tags Panels
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse "Ошибка API салона"
// @Router /reports [get]
func NewReports(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "reports", fetch: func(r *http.Request) (any, string, error) {
		p := service.Reports(r.Context())
		return p.Data, p.Error, p.Err
	}}
}

// NewBookings godoc
// @Summary Записи
// @Tags Panels
// @Produce  json
// @Param date query string false "Дата"
// @Param per_page query int false "Записей на странице"
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse "Ошибка API салона"
// @Router /bookings [get]
func NewBookings(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "bookings", fetch: func(r *http.Request) (any, string, error) {
		q := adminapi.BookingsQuery{Date: r.URL.Query().Get("date")}
		if n, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && n > 0 {
			q.PerPage = n
		}
		p := service.Bookings(r.Context(), q)
		return p.Data, p.Error, p.Err
	}}
}

// NewCustomers godoc
// @Summary Клиенты
// @Tags Panels
// @Produce  json
// @Param search query string false "Строка поиска"
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse "Ошибка API салона"
// @Router /customers [get]
func NewCustomers(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "customers", fetch: func(r *http.Request) (any, string, error) {
		l := service.Customers(r.Context(), r.URL.Query().Get("search"))
		return map[string]any{"items": l.Items}, l.Error, l.Err
	}}
}

// ServeHTTP отдаёт данные панели или её ошибку.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.panels"

	log := h.log.With(
		slog.String("op", op),
		slog.String("panel", h.name),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	data, msg, err := h.fetch(r)
	if err != nil {
		log.Warn("panel unavailable", slog.String("message", msg))
		response.Fail(w, r, err, http.StatusBadGateway, msg)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
