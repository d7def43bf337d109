package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// BookingsQuery — параметры списка записей. Пустые поля не передаются.
type BookingsQuery struct {
	Date    string
	PerPage int
}

// Dashboard возвращает KPI главной страницы как есть.
func (c *Client) Dashboard(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "adminapi.Dashboard", "/dashboard", nil)
}

// Reports возвращает данные отчётов как есть.
func (c *Client) Reports(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "adminapi.Reports", "/reports", nil)
}

// Bookings возвращает записи филиала.
func (c *Client) Bookings(ctx context.Context, q BookingsQuery) (json.RawMessage, error) {
	query := map[string]string{}
	if q.Date != "" {
		query["date"] = q.Date
	}
	if q.PerPage > 0 {
		query["per_page"] = strconv.Itoa(q.PerPage)
	}
	return c.raw(ctx, "adminapi.Bookings", "/bookings", query)
}

// Customers ищет клиентов филиала. Пустой search возвращает всех.
func (c *Client) Customers(ctx context.Context, search string) ([]models.Customer, error) {
	const op = "adminapi.Customers"
	var resp envelope[[]models.Customer]
	var query map[string]string
	if search != "" {
		query = map[string]string{"search": search}
	}
	if err := c.t.Get(ctx, "/customers", query, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp.Data, nil
}

func (c *Client) raw(ctx context.Context, op, path string, query map[string]string) (json.RawMessage, error) {
	var resp envelope[json.RawMessage]
	if err := c.t.Get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp.Data, nil
}
