package gateway

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
)

// Class — категория ответа 401.
type Class string

const (
	// ClassPermission — 401 от эндпоинтов прав филиала: только лог.
	ClassPermission Class = "permission"
	// ClassCritical — 401 от критичных эндпоинтов: выход и переход на вход.
	ClassCritical Class = "critical"
	// ClassOther — прочие 401: только лог.
	ClassOther Class = "other"
)

// Classify определяет категорию 401 по пути запроса.
func Classify(path string, criticalPrefixes []string) Class {
	if strings.Contains(strings.ToLower(path), "permission") {
		return ClassPermission
	}
	for _, prefix := range criticalPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return ClassCritical
		}
	}
	return ClassOther
}

// SessionTerminator завершает сессию.
type SessionTerminator interface {
	Logout(ctx context.Context)
}

// UnauthorizedPolicy применяет политику ответа 401.
type UnauthorizedPolicy struct {
	CriticalPrefixes []string
	// Exempt — пути, где 401 означает неверные учётные данные, а не
	// истёкшую сессию, например вход.
	Exempt  []string
	Session SessionTerminator
	// RedirectToLogin вызывается после завершения сессии.
	RedirectToLogin func()
	Log             *slog.Logger
}

// Handle классифицирует 401 и выполняет соответствующее действие.
// withToken сообщает, что запрос ушёл с токеном сессии: сессию завершает
// только отказ в этом токене.
func (p *UnauthorizedPolicy) Handle(ctx context.Context, path string, withToken bool) Class {
	const op = "gateway.UnauthorizedPolicy.Handle"
	log := sl.OrDiscard(p.Log).With(sl.Op(op), slog.String("path", path))

	class := Classify(path, p.CriticalPrefixes)
	if class == ClassCritical && (!withToken || slices.Contains(p.Exempt, path)) {
		log.Warn("unauthorized without session credentials, session kept")
		return ClassOther
	}
	switch class {
	case ClassCritical:
		log.Warn("unauthorized on critical endpoint, tearing down session")
		if p.Session != nil {
			p.Session.Logout(ctx)
		}
		if p.RedirectToLogin != nil {
			p.RedirectToLogin()
		}
	case ClassPermission:
		log.Warn("unauthorized on permissions endpoint")
	default:
		log.Warn("unauthorized on non-critical endpoint")
	}
	return class
}
