package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// BranchParam задаёт имя параметра филиала в запросах к API.
const BranchParam = "branch_id"

// Interceptor изменяет запрос перед отправкой. Перехватчики выполняются
// в порядке регистрации.
type Interceptor func(ctx context.Context, req *Request) error

// TokenSource отдаёт текущий токен доступа.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// BranchSource отдаёт текущий филиал.
type BranchSource interface {
	CurrentBranch(ctx context.Context) *models.Branch
}

// APIToken добавляет статический заголовок доступа к API.
func APIToken(header, token string) Interceptor {
	return func(_ context.Context, req *Request) error {
		if header != "" && token != "" {
			req.header().Set(header, token)
		}
		return nil
	}
}

// Bearer добавляет Authorization: Bearer <token>, если токен есть.
// Без токена запрос уходит как есть, решение принимает бэкенд.
func Bearer(src TokenSource) Interceptor {
	return func(ctx context.Context, req *Request) error {
		if token, ok := src.Token(ctx); ok {
			req.header().Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// BranchScope добавляет branch_id текущего филиала: в query для чтения и
// удаления, в JSON-тело для записи. Значение, уже заданное вызывающим,
// не переписывается. Для multipart branch_id уходит в query.
func BranchScope(src BranchSource) Interceptor {
	return func(ctx context.Context, req *Request) error {
		const op = "gateway.BranchScope"
		branch := src.CurrentBranch(ctx)
		if branch == nil || branch.ID.IsZero() {
			return nil
		}

		if !req.IsWrite() || req.Multipart != nil {
			if req.query().Get(BranchParam) == "" {
				req.query().Set(BranchParam, branch.ID.String())
			}
			return nil
		}

		body, ok, err := asObject(req.Body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			if req.query().Get(BranchParam) == "" {
				req.query().Set(BranchParam, branch.ID.String())
			}
			return nil
		}
		if _, set := body[BranchParam]; !set {
			body[BranchParam] = branch.ID
		}
		req.Body = body
		return nil
	}
}

// asObject приводит тело к map. ok=false, если тело не JSON-объект.
func asObject(body any) (map[string]any, bool, error) {
	switch b := body.(type) {
	case nil:
		return map[string]any{}, true, nil
	case map[string]any:
		out := make(map[string]any, len(b)+1)
		for k, v := range b {
			out[k] = v
		}
		return out, true, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, false, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, nil
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}
