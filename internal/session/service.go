package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// ErrInvalidToken возвращается, если ответ входа не содержит пригодного токена.
var ErrInvalidToken = errors.New("session: login response has no usable token")

// Service — единственный владелец сессии: только он пишет в Store.
type Service struct {
	store *Store
	log   *slog.Logger

	mu       sync.Mutex
	onLogout []func()
}

// NewService создаёт Service поверх store.
func NewService(store *Store, log *slog.Logger) *Service {
	return &Service{store: store, log: sl.OrDiscard(log)}
}

// Store возвращает хранилище сессии.
func (s *Service) Store() *Store { return s.store }

// OnLogout регистрирует обработчик, вызываемый после каждого выхода.
func (s *Service) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// ApplyLogin сохраняет сессию после успешного входа. Если филиалов в ответе
// нет, но у пользователя есть один филиал, он становится списком из одного
// элемента. Текущим выбирается первый филиал.
func (s *Service) ApplyLogin(ctx context.Context, sess models.Session) error {
	const op = "session.Service.ApplyLogin"
	if !s.store.SetToken(ctx, sess.Token) {
		return ErrInvalidToken
	}

	branches := sess.Branches
	if len(branches) == 0 && sess.User != nil && sess.User.Branch != nil {
		branches = []models.Branch{*sess.User.Branch}
	}

	s.store.SetUser(ctx, sess.User)
	s.store.SetBranches(ctx, branches)
	if len(branches) > 0 {
		current := branches[0]
		s.store.SetCurrentBranch(ctx, &current)
	} else {
		s.store.SetCurrentBranch(ctx, nil)
	}

	s.log.Info("session established", sl.Op(op), slog.Int("branches", len(branches)))
	return nil
}

// Logout удаляет все данные сессии и уведомляет подписчиков.
func (s *Service) Logout(ctx context.Context) {
	s.store.RemoveToken(ctx)
	s.log.Info("session removed", sl.Op("session.Service.Logout"))

	s.mu.Lock()
	hooks := slices.Clone(s.onLogout)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// IsAuthenticated проверяет только наличие токена: ни срока жизни, ни запроса к серверу.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.store.Token(ctx)
	return ok
}

// Token возвращает текущий токен.
func (s *Service) Token(ctx context.Context) (string, bool) {
	return s.store.Token(ctx)
}

// User возвращает профиль пользователя или nil.
func (s *Service) User(ctx context.Context) *models.User {
	return s.store.User(ctx)
}

// Permissions возвращает права из профиля пользователя.
func (s *Service) Permissions(ctx context.Context) []string {
	if u := s.store.User(ctx); u != nil {
		return u.Permissions
	}
	return nil
}

// HasPermission проверяет право по профилю пользователя.
func (s *Service) HasPermission(ctx context.Context, permission string) bool {
	return slices.Contains(s.Permissions(ctx), permission)
}

// CanAccess проверяет доступ к разделу по правам профиля.
func (s *Service) CanAccess(ctx context.Context, path string) bool {
	return CanAccess(path, s.Permissions(ctx))
}
