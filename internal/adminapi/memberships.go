package adminapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// NewSubscriber описывает запрос на добавление клиента в абонемент.
type NewSubscriber struct {
	CustomerID models.ID `json:"customer_id"`
	// StartDate в формате 2006-01-02.
	StartDate string `json:"start_date"`
}

// Идентификаторы экранируются как отдельные сегменты пути.
func membershipPath(id models.ID) string {
	return "/memberships/" + url.PathEscape(id.String())
}

func subscriberPath(membershipID, subscriberID models.ID, action string) string {
	return fmt.Sprintf("%s/subscribers/%s/%s", membershipPath(membershipID), url.PathEscape(subscriberID.String()), action)
}

// Memberships возвращает каталог абонементов филиала.
func (c *Client) Memberships(ctx context.Context) ([]models.Plan, error) {
	const op = "adminapi.Memberships"
	var resp envelope[[]models.Plan]
	if err := c.t.Get(ctx, "/memberships", nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp.Data, nil
}

// CreateMembership создаёт абонемент и возвращает его с присвоенным ID.
func (c *Client) CreateMembership(ctx context.Context, plan models.Plan) (models.Plan, error) {
	const op = "adminapi.CreateMembership"
	var resp envelope[models.Plan]
	if err := c.t.Post(ctx, "/memberships", plan, &resp); err != nil {
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}
	return resp.Data, nil
}

// UpdateMembership сохраняет изменения абонемента, включая флаг активности.
func (c *Client) UpdateMembership(ctx context.Context, plan models.Plan) (models.Plan, error) {
	const op = "adminapi.UpdateMembership"
	var resp envelope[models.Plan]
	if err := c.t.Put(ctx, membershipPath(plan.ID), plan, &resp); err != nil {
		return models.Plan{}, fmt.Errorf("%s: %w", op, err)
	}
	if resp.Data.ID.IsZero() {
		return plan, nil
	}
	return resp.Data, nil
}

// DeleteMembership удаляет абонемент.
func (c *Client) DeleteMembership(ctx context.Context, id models.ID) error {
	const op = "adminapi.DeleteMembership"
	if err := c.t.Delete(ctx, membershipPath(id), nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscribers возвращает подписчиков абонемента.
func (c *Client) Subscribers(ctx context.Context, membershipID models.ID) ([]models.Subscriber, error) {
	const op = "adminapi.Subscribers"
	var resp envelope[[]models.Subscriber]
	if err := c.t.Get(ctx, membershipPath(membershipID)+"/subscribers", nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp.Data, nil
}

// AddSubscriber добавляет клиента в абонемент и возвращает созданную запись.
func (c *Client) AddSubscriber(ctx context.Context, membershipID models.ID, req NewSubscriber) (models.Subscriber, error) {
	const op = "adminapi.AddSubscriber"
	var resp envelope[models.Subscriber]
	if err := c.t.Post(ctx, membershipPath(membershipID)+"/subscribers", req, &resp); err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	return resp.Data, nil
}

// CancelSubscriber отменяет подписку: запись становится Cancelled.
func (c *Client) CancelSubscriber(ctx context.Context, membershipID, subscriberID models.ID) error {
	const op = "adminapi.CancelSubscriber"
	if err := c.t.Post(ctx, subscriberPath(membershipID, subscriberID, "cancel"), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExpireSubscriber завершает подписку вчерашним днём: запись становится Expired.
func (c *Client) ExpireSubscriber(ctx context.Context, membershipID, subscriberID models.ID, endDate string) error {
	const op = "adminapi.ExpireSubscriber"
	body := map[string]string{"end_date": endDate}
	if err := c.t.Post(ctx, subscriberPath(membershipID, subscriberID, "expire"), body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
