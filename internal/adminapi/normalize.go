package adminapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/salon-admin/internal/models"
)

// ErrMalformedLogin — в data ответа входа нет ни токена, ни пользователя.
var ErrMalformedLogin = errors.New("adminapi: malformed login payload")

// loginPayloadV1 — все исторические варианты поля data ответа входа.
// Токен приходил как token и как access_token, филиалы массивом branches
// или одиночным branch, права на верхнем уровне или внутри user.
type loginPayloadV1 struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"access_token"`
	User        *models.User    `json:"user"`
	Permissions []string        `json:"permissions"`
	Branch      *models.Branch  `json:"branch"`
	Branches    []models.Branch `json:"branches"`
}

// NormalizeLogin приводит data ответа входа к models.Session.
// Это единственное место, где разбираются альтернативные имена полей.
func NormalizeLogin(data json.RawMessage) (models.Session, error) {
	const op = "adminapi.NormalizeLogin"
	var p loginPayloadV1
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	token := p.Token
	if token == "" {
		token = p.AccessToken
	}
	if token == "" && p.User == nil {
		return models.Session{}, ErrMalformedLogin
	}

	user := p.User
	if user == nil {
		user = &models.User{}
	}
	if p.Permissions != nil {
		user.Permissions = p.Permissions
	}
	if user.Permissions == nil {
		user.Permissions = []string{}
	}
	if p.Branch != nil {
		user.Branch = p.Branch
	}

	branches := p.Branches
	if len(branches) == 0 {
		switch {
		case p.Branch != nil:
			branches = []models.Branch{*p.Branch}
		case user.Branch != nil:
			branches = []models.Branch{*user.Branch}
		}
	}
	if branches == nil {
		branches = []models.Branch{}
	}

	return models.Session{Token: token, User: user, Branches: branches}, nil
}
