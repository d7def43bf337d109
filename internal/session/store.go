// Package session хранит токен, профиль пользователя и филиалы в долговременном
// key-value хранилище и реализует поверх него проверки аутентификации и прав.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/storage/kv"
)

// Ключи долговременного хранилища.
const (
	KeyToken         = "auth_token"
	KeyUser          = "user_data"
	KeyBranches      = "user_branches"
	KeyCurrentBranch = "current_branch"
)

// Store — типизированная обёртка над kv.Storage. Ошибки хранилища наружу не
// выходят: они логируются, а вызывающий получает пустое значение.
// Store с nil-хранилищем работает как no-op.
type Store struct {
	kv  kv.Storage
	log *slog.Logger
}

// NewStore создаёт Store поверх storage.
func NewStore(storage kv.Storage, log *slog.Logger) *Store {
	return &Store{kv: storage, log: sl.OrDiscard(log)}
}

// IsPlaceholderToken сообщает, что значение не является токеном: пустая строка
// или результат сериализации undefined/null.
func IsPlaceholderToken(token string) bool {
	switch strings.TrimSpace(token) {
	case "", "undefined", "null":
		return true
	}
	return false
}

// SetToken сохраняет токен. Пустые и "undefined"/"null" значения отклоняются.
func (s *Store) SetToken(ctx context.Context, token string) bool {
	const op = "session.Store.SetToken"
	if IsPlaceholderToken(token) {
		s.log.Warn("refusing to store placeholder token", sl.Op(op), slog.String("value", token))
		return false
	}
	return s.set(ctx, op, KeyToken, token)
}

// Token возвращает токен, если он сохранён и не является заглушкой.
func (s *Store) Token(ctx context.Context) (string, bool) {
	raw, ok := s.get(ctx, "session.Store.Token", KeyToken)
	if !ok || IsPlaceholderToken(raw) {
		return "", false
	}
	return raw, true
}

// SetUser сохраняет профиль пользователя в плоском виде.
func (s *Store) SetUser(ctx context.Context, user *models.User) {
	const op = "session.Store.SetUser"
	if user == nil {
		s.del(ctx, op, KeyUser)
		return
	}
	s.setJSON(ctx, op, KeyUser, user)
}

// User возвращает профиль пользователя. Поддерживаются три исторических
// формата записи, см. NormalizeUser. Повреждённая запись удаляется.
func (s *Store) User(ctx context.Context) *models.User {
	const op = "session.Store.User"
	raw, ok := s.get(ctx, op, KeyUser)
	if !ok {
		return nil
	}
	user, err := NormalizeUser([]byte(raw))
	if err != nil {
		s.log.Error("corrupt user entry, removing", sl.Op(op), sl.Err(err))
		s.del(ctx, op, KeyUser)
		return nil
	}
	return user
}

// SetBranches сохраняет список доступных филиалов.
func (s *Store) SetBranches(ctx context.Context, branches []models.Branch) {
	if branches == nil {
		branches = []models.Branch{}
	}
	s.setJSON(ctx, "session.Store.SetBranches", KeyBranches, branches)
}

// Branches возвращает список филиалов или nil.
func (s *Store) Branches(ctx context.Context) []models.Branch {
	var branches []models.Branch
	if !s.getJSON(ctx, "session.Store.Branches", KeyBranches, &branches) {
		return nil
	}
	return branches
}

// SetCurrentBranch сохраняет текущий филиал. nil удаляет запись.
func (s *Store) SetCurrentBranch(ctx context.Context, branch *models.Branch) {
	const op = "session.Store.SetCurrentBranch"
	if branch == nil {
		s.del(ctx, op, KeyCurrentBranch)
		return
	}
	s.setJSON(ctx, op, KeyCurrentBranch, branch)
}

// CurrentBranch возвращает текущий филиал или nil.
func (s *Store) CurrentBranch(ctx context.Context) *models.Branch {
	var branch models.Branch
	if !s.getJSON(ctx, "session.Store.CurrentBranch", KeyCurrentBranch, &branch) {
		return nil
	}
	if branch.ID.IsZero() {
		return nil
	}
	return &branch
}

// RemoveToken удаляет токен, профиль, филиалы и текущий филиал одной операцией.
func (s *Store) RemoveToken(ctx context.Context) {
	s.del(ctx, "session.Store.RemoveToken", KeyToken, KeyUser, KeyBranches, KeyCurrentBranch)
}

func (s *Store) get(ctx context.Context, op, key string) (string, bool) {
	if s.kv == nil {
		return "", false
	}
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Error("storage read failed", sl.Op(op), slog.String("key", key), sl.Err(err))
		return "", false
	}
	return v, ok
}

func (s *Store) set(ctx context.Context, op, key, value string) bool {
	if s.kv == nil {
		return false
	}
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.log.Error("storage write failed", sl.Op(op), slog.String("key", key), sl.Err(err))
		return false
	}
	return true
}

func (s *Store) del(ctx context.Context, op string, keys ...string) {
	if s.kv == nil {
		return
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		s.log.Error("storage delete failed", sl.Op(op), slog.Any("keys", keys), sl.Err(err))
	}
}

func (s *Store) setJSON(ctx context.Context, op, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Error("failed to encode entry", sl.Op(op), slog.String("key", key), sl.Err(err))
		return
	}
	s.set(ctx, op, key, string(raw))
}

func (s *Store) getJSON(ctx context.Context, op, key string, dst any) bool {
	raw, ok := s.get(ctx, op, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Error("corrupt entry, removing", sl.Op(op), slog.String("key", key), sl.Err(err))
		s.del(ctx, op, key)
		return false
	}
	return true
}

// NormalizeUser приводит запись пользователя к плоскому виду. Поддерживаются:
//
//	{"user": {...}, "permissions": [...], "branch": {...}}
//	{"user": {...}}
//	{...} — плоский пользователь
//
// Права и филиал верхнего уровня имеют приоритет над вложенными.
func NormalizeUser(raw []byte) (*models.User, error) {
	const op = "session.NormalizeUser"
	var envelope struct {
		User        json.RawMessage `json:"user"`
		Permissions []string        `json:"permissions"`
		Branch      *models.Branch  `json:"branch"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	nested := len(envelope.User) > 0 && string(envelope.User) != "null"
	if nested {
		if err := json.Unmarshal(envelope.User, &user); err != nil {
			return nil, fmt.Errorf("%s: nested user: %w", op, err)
		}
		if envelope.Permissions != nil {
			user.Permissions = envelope.Permissions
		}
		if envelope.Branch != nil {
			user.Branch = envelope.Branch
		}
	} else if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.Permissions == nil {
		user.Permissions = []string{}
	}
	return &user, nil
}
