// Package auth содержит сценарии входа, выхода и восстановления пароля.
// Формы проверяются до обращения к сети: невалидный запрос не уходит на бэкенд.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// API описывает вызовы бэкенда для аутентификации.
type API interface {
	// Login возвращает нормализованную сессию.
	Login(ctx context.Context, email, password string) (models.Session, error)
	ResetPassword(ctx context.Context, email string) error
	CheckResetPasswordToken(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, token, newPassword string) error
}

// Session сохраняет и удаляет сессию.
type Session interface {
	ApplyLogin(ctx context.Context, sess models.Session) error
	Logout(ctx context.Context)
}

// Branches перечитывает филиалы после входа.
type Branches interface {
	Reload(ctx context.Context)
}

// LoginRequest содержит форму входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest запрашивает письмо для сброса пароля.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CheckResetTokenRequest проверяет токен из письма.
type CheckResetTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ChangePasswordRequest задаёт новый пароль по токену сброса.
type ChangePasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// Service реализует сценарии аутентификации.
type Service struct {
	api      API
	session  Session
	branches Branches
	validate *validator.Validate
	log      *slog.Logger
}

// NewService создает сервис. branches может быть nil.
func NewService(api API, session Session, branches Branches, log *slog.Logger) *Service {
	return &Service{
		api:      api,
		session:  session,
		branches: branches,
		validate: validator.New(),
		log:      sl.OrDiscard(log),
	}
}

// Login проверяет форму, выполняет вход, сохраняет сессию и перечитывает филиалы.
func (s *Service) Login(ctx context.Context, req LoginRequest) (models.Session, error) {
	const op = "auth.Login"
	if err := s.validate.Struct(req); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	sess, err := s.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.log.Warn("login failed", sl.Op(op), sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.session.ApplyLogin(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if s.branches != nil {
		s.branches.Reload(ctx)
	}

	s.log.Info("user logged in", sl.Op(op), slog.Int("branches", len(sess.Branches)))
	return sess, nil
}

// Logout завершает сессию.
func (s *Service) Logout(ctx context.Context) {
	s.session.Logout(ctx)
}

// ResetPassword запрашивает письмо со ссылкой для сброса пароля.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	const op = "auth.ResetPassword"
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.api.ResetPassword(ctx, req.Email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CheckResetToken проверяет токен из письма.
func (s *Service) CheckResetToken(ctx context.Context, req CheckResetTokenRequest) error {
	const op = "auth.CheckResetToken"
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.api.CheckResetPasswordToken(ctx, req.Token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword устанавливает новый пароль. Пароль не короче 8 символов и
// должен совпадать с подтверждением.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	const op = "auth.ChangePassword"
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.api.ChangePassword(ctx, req.Token, req.Password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password changed", sl.Op(op))
	return nil
}
