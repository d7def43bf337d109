// Package branches реализует HTTP-обработчики списка филиалов и выбора текущего.
package branches

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/salon-admin/internal/branch"
	"github.com/magabrotheeeer/salon-admin/internal/http/response"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// Service описывает контекст филиалов.
type Service interface {
	Snapshot() branch.State
	SelectBranch(ctx context.Context, id models.ID) (models.Branch, error)
}

// UseRequest выбирает текущий филиал.
type UseRequest struct {
	BranchID models.ID `json:"branch_id" swaggertype:"string"`
}

// ListHandler возвращает филиалы и текущий филиал.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создает ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Филиалы пользователя
// @Tags Branches
// @Produce  json
// @Success 200 {object} response.Response{data=branch.State}
// @Router /branches [get]
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(h.service.Snapshot()))
}

// UseHandler переключает текущий филиал.
type UseHandler struct {
	log     *slog.Logger
	service Service
}

// NewUse создает UseHandler.
func NewUse(log *slog.Logger, service Service) *UseHandler {
	return &UseHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выбор филиала
// @Description Сохраняет филиал, перечитывает права в нём и увеличивает счётчик смены филиала на 1.
// @Tags Branches
// @Accept  json
// @Produce  json
// @Param request body UseRequest true "Филиал"
// @Success 200 {object} response.Response{data=branch.State}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Филиала нет в списке"
// @Router /branches/current [put]
func (h *UseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.branches.use"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req UseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BranchID.IsZero() {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("branch_id is required"))
		return
	}

	b, err := h.service.SelectBranch(r.Context(), req.BranchID)
	if err != nil {
		if errors.Is(err, branch.ErrUnknownBranch) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("unknown branch"))
			return
		}
		log.Error("failed to switch branch", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to switch branch"))
		return
	}

	log.Info("branch selected", slog.String("branch_id", b.ID.String()))
	render.JSON(w, r, response.StatusOKWithData(h.service.Snapshot()))
}
