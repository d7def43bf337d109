// Package adminapi содержит типизированные вызовы REST API салона поверх gateway.Client.
// Все ответы приходят в конверте {status, message, data}.
package adminapi

import (
	"context"
	"encoding/json"
)

// Transport описывает то, что нужно API от HTTP-шлюза.
type Transport interface {
	Get(ctx context.Context, path string, query map[string]string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Client вызывает API панели администратора.
type Client struct {
	t Transport
}

// New создаёт клиент поверх транспорта.
func New(t Transport) *Client {
	return &Client{t: t}
}

// envelope — общий конверт ответа. status бывает и bool, и строкой.
type envelope[T any] struct {
	Status  json.RawMessage `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    T               `json:"data"`
}
