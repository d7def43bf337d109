// Package memberships реализует HTTP-обработчики каталога абонементов
// текущего филиала: таблицу с сортировкой, поиском и страницами, создание,
// изменение, удаление и переключение активности.
package memberships

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
	"github.com/magabrotheeeer/salon-admin/internal/services/catalog"
)

// Service описывает каталог абонементов.
type Service interface {
	Loaded() bool
	Load(ctx context.Context) error
	View() catalog.View
	Sort(col catalog.Column) error
	Search(q string)
	SetPage(n int)
	Create(ctx context.Context, plan models.Plan) (models.Plan, error)
	Update(ctx context.Context, plan models.Plan) (models.Plan, error)
	Delete(ctx context.Context, id models.ID) error
	ToggleActive(ctx context.Context, id models.ID) (models.Plan, error)
}

// SortRequest задаёт столбец сортировки.
type SortRequest struct {
	Column catalog.Column `json:"column" enums:"title,price,duration"`
}

// Handler обрабатывает запросы каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Каталог абонементов
// @Description Загружает каталог при первом обращении или при refresh=true. Поиск идёт после сортировки, смена запроса возвращает на первую страницу.
// @Tags Memberships
// @Produce  json
// @Param q query string false "Поиск по названию, цене и сроку"
// @Param page query int false "Страница"
// @Param refresh query bool false "Перечитать каталог"
// @Success 200 {object} response.Response{data=catalog.View}
// @Failure 502 {object} response.ErrorResponse "Ошибка API салона"
// @Router /memberships [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.memberships.list", r)
	query := r.URL.Query()

	if !h.service.Loaded() || query.Get("refresh") == "true" {
		if err := h.service.Load(r.Context()); err != nil && !errors.Is(err, catalog.ErrStale) {
			log.Error("failed to load memberships", sl.Err(err))
			response.Fail(w, r, err, http.StatusBadGateway, "Failed to load memberships")
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

// Sort godoc
// @Summary Сортировка каталога
// @Description Повторная сортировка по тому же столбцу меняет направление, новый столбец сортируется по возрастанию.
// @Tags Memberships
// @Accept  json
// @Produce  json
// @Param request body SortRequest true "Столбец"
// @Success 200 {object} response.Response{data=catalog.View}
// @Failure 400 {object} response.ErrorResponse "Неизвестный столбец"
// @Router /memberships/sort [post]
func (h *Handler) Sort(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.memberships.sort", r)

	var req SortRequest
	if !decode(w, r, log, &req) {
		return
	}
	if err := h.service.Sort(req.Column); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown sort column"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(h.service.View()))
}

// Create godoc
// @Summary Новый абонемент
// @Tags Memberships
// @Accept  json
// @Produce  json
// @Param request body models.Plan true "Абонемент"
// @Success 201 {object} response.Response{data=models.Plan}
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /memberships [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.memberships.create", r)

	var plan models.Plan
	if !decode(w, r, log, &plan) {
		return
	}
	created, err := h.service.Create(r.Context(), plan)
	if err != nil {
		log.Error("failed to create membership", sl.Err(err))
		response.Fail(w, r, err, http.StatusInternalServerError, "Failed to create membership")
		return
	}

	log.Info("membership created", slog.String("id", created.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(created))
}

// Update godoc
// @Summary Изменение абонемента
// @Tags Memberships
// @Accept  json
// @Produce  json
// @Param id path string true "ID абонемента"
// @Param request body models.Plan true "Абонемент"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /memberships/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.memberships.update", r)

	var plan models.Plan
	if !decode(w, r, log, &plan) {
		return
	}
	plan.ID = models.ID(chi.URLParam(r, "id"))

	saved, err := h.service.Update(r.Context(), plan)
	if err != nil {
		log.Error("failed to update membership", sl.Err(err))
		h.fail(w, r, err, "Failed to update membership")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(saved))
}

// Delete godoc
// @Summary Удаление абонемента
// @Tags Memberships
// @Produce  json
// @Param id path string true "ID абонемента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден"
// @Router /memberships/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.memberships.delete", r)

	id := models.ID(chi.URLParam(r, "id"))
	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error("failed to delete membership", sl.Err(err))
		h.fail(w, r, err, "Failed to delete membership")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted": id}))
}

// Toggle godoc
// @Summary Переключение активности абонемента
// @Description Меняет флаг активности ровно одного абонемента.
// @Tags Memberships
// @Produce  json
// @Param id path string true "ID абонемента"
// @Success 200 {object} response.Response{data=models.Plan}
// @Failure 404 {object} response.ErrorResponse "Абонемент не найден"
// @Router /memberships/{id}/toggle [post]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog("handlers.memberships.toggle", r)

	plan, err := h.service.ToggleActive(r.Context(), models.ID(chi.URLParam(r, "id")))
	if err != nil {
		log.Error("failed to toggle membership", sl.Err(err))
		h.fail(w, r, err, "Failed to update membership")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(plan))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, catalog.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("membership not found"))
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
