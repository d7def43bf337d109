// Package kv содержит долговременные key-value хранилища сессии:
// в памяти, в файле и в redis.
package kv

import "context"

// Storage описывает строковое key-value хранилище.
type Storage interface {
	// Get возвращает значение и признак его наличия.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set сохраняет значение без срока жизни.
	Set(ctx context.Context, key, value string) error
	// Delete удаляет ключи одной операцией.
	Delete(ctx context.Context, keys ...string) error
}
