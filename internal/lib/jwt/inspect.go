package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT — токен непрозрачный (например, "1|abc…"), разобрать его нельзя.
var ErrNotJWT = errors.New("jwt: token is not a JWT")

// Inspect читает claims токена без проверки подписи и срока.
func Inspect(token string) (Info, error) {
	const op = "jwt.Inspect"
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Info{}, ErrNotJWT
		}
		return Info{}, fmt.Errorf("%s: %w", op, err)
	}

	info := Info{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
