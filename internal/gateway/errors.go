package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError — ответ API с кодом вне диапазона 2xx.
type APIError struct {
	Status  int
	Path    string
	Message string
	// Class заполняется для ответов 401.
	Class Class
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s: %d %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
}

// IsUnauthorized сообщает, что err является ответом 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// StatusCode возвращает HTTP-код ошибки API или 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage возвращает сообщение для пользователя: поле message из ответа
// API, а если его нет, fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func newAPIError(status int, path string, body []byte) *APIError {
	apiErr := &APIError{Status: status, Path: path}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
