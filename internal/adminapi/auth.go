package adminapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/salon-admin/internal/models"
)

const (
	pathLogin           = "/authentication/login"
	pathCheckResetToken = "/authentication/check-reset-password-token"
	pathChangePassword  = "/authentication/change-password"
	pathResetPassword   = "/authentication/reset-password"
	pathPermissions     = "/get-permissions"
)

// Login выполняет вход и возвращает нормализованную сессию.
func (c *Client) Login(ctx context.Context, email, password string) (models.Session, error) {
	const op = "adminapi.Login"
	var resp envelope[json.RawMessage]
	body := map[string]string{"email": email, "password": password}
	if err := c.t.Post(ctx, pathLogin, body, &resp); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	sess, err := NormalizeLogin(resp.Data)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return sess, nil
}

// CheckResetPasswordToken проверяет токен сброса пароля. Любой ответ вне 2xx считается ошибкой.
func (c *Client) CheckResetPasswordToken(ctx context.Context, token string) error {
	const op = "adminapi.CheckResetPasswordToken"
	if err := c.t.Post(ctx, pathCheckResetToken, map[string]string{"token": token}, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword устанавливает новый пароль по токену сброса.
func (c *Client) ChangePassword(ctx context.Context, token, newPassword string) error {
	const op = "adminapi.ChangePassword"
	body := map[string]string{"token": token, "newPassword": newPassword}
	if err := c.t.Post(ctx, pathChangePassword, body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetPassword запрашивает письмо для сброса пароля.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	const op = "adminapi.ResetPassword"
	if err := c.t.Post(ctx, pathResetPassword, map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Permissions возвращает права текущего пользователя в филиале branchID.
func (c *Client) Permissions(ctx context.Context, branchID models.ID) ([]string, error) {
	const op = "adminapi.Permissions"
	var resp envelope[struct {
		Permissions []string `json:"permissions"`
	}]
	query := map[string]string{"branch_id": branchID.String()}
	if err := c.t.Get(ctx, pathPermissions, query, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.Data.Permissions == nil {
		return []string{}, nil
	}
	return resp.Data.Permissions, nil
}
