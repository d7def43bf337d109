// Package dashboard читает данные главной страницы, отчётов, записей и
// клиентов текущего филиала. Ошибка загрузки возвращается как явное
// состояние панели, подменных данных нет.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/magabrotheeeer/salon-admin/internal/adminapi"
	"github.com/magabrotheeeer/salon-admin/internal/gateway"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// API описывает вызовы бэкенда для панелей.
type API interface {
	Dashboard(ctx context.Context) (json.RawMessage, error)
	Reports(ctx context.Context) (json.RawMessage, error)
	Bookings(ctx context.Context, q adminapi.BookingsQuery) (json.RawMessage, error)
	Customers(ctx context.Context, search string) ([]models.Customer, error)
}

// Panel — данные панели либо сообщение об ошибке.
type Panel struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	// Err — исходная ошибка для выбора HTTP-кода.
	Err error `json:"-"`
}

// OK сообщает, что данные загружены.
func (p Panel) OK() bool { return p.Err == nil }

// CustomerList содержит список клиентов либо сообщение об ошибке.
type CustomerList struct {
	Items []models.Customer `json:"items"`
	Error string            `json:"error,omitempty"`
	Err   error             `json:"-"`
}

// Service читает панели.
type Service struct {
	api API
	log *slog.Logger
}

// NewService создает сервис панелей.
func NewService(api API, log *slog.Logger) *Service {
	return &Service{api: api, log: sl.OrDiscard(log)}
}

// Dashboard возвращает KPI главной страницы.
func (s *Service) Dashboard(ctx context.Context) Panel {
	data, err := s.api.Dashboard(ctx)
	return s.panel("dashboard.Dashboard", data, err, "Failed to load dashboard")
}

// Reports возвращает отчёты.
func (s *Service) Reports(ctx context.Context) Panel {
	data, err := s.api.Reports(ctx)
	return s.panel("dashboard.Reports", data, err, "Failed to load reports")
}

// Bookings возвращает записи.
func (s *Service) Bookings(ctx context.Context, q adminapi.BookingsQuery) Panel {
	data, err := s.api.Bookings(ctx, q)
	return s.panel("dashboard.Bookings", data, err, "Failed to load bookings")
}

// Customers возвращает клиентов, отфильтрованных строкой search.
func (s *Service) Customers(ctx context.Context, search string) CustomerList {
	const op = "dashboard.Customers"
	items, err := s.api.Customers(ctx, search)
	if err != nil {
		s.log.Error("failed to load customers", sl.Op(op), sl.Err(err))
		return CustomerList{
			Items: []models.Customer{},
			Error: gateway.UserMessage(err, "Failed to load customers"),
			Err:   err,
		}
	}
	if items == nil {
		items = []models.Customer{}
	}
	return CustomerList{Items: items}
}

func (s *Service) panel(op string, data json.RawMessage, err error, fallback string) Panel {
	if err != nil {
		s.log.Error("failed to load panel", sl.Op(op), sl.Err(err))
		return Panel{Error: gateway.UserMessage(err, fallback), Err: err}
	}
	return Panel{Data: data}
}
