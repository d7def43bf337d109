// Package jwt разбирает токен сессии, не проверяя подпись: подпись проверяет
// только бэкенд, клиенту нужны лишь субъект и срок действия для отображения.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims содержит поля токена, которые показывает клиент.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Info — сведения о токене.
type Info struct {
	Subject   string    `json:"subject,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired сообщает, что срок действия известен и истёк к моменту now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}
