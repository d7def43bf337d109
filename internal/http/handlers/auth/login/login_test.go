package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/salon-admin/internal/gateway"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/services/auth"
	"github.com/magabrotheeeer/salon-admin/internal/session"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, req auth.LoginRequest) (models.Session, error) {
	args := m.Called(ctx, req)
	sess, _ := args.Get(0).(models.Session)
	return sess, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	authMock := new(AuthServiceMock)
	handler := New(newNoopLogger(), authMock)

	validReq := auth.LoginRequest{Email: "admin@salon.test", Password: "secret"}
	validationErr := validator.New().Struct(auth.LoginRequest{Email: "admin@salon.test"})

	tests := []struct {
		name           string
		requestBody    any
		mockResp       models.Session
		mockErr        error
		callService    bool
		wantStatusCode int
		wantError      string
		wantStatus     string
		wantCurrent    any
	}{
		{
			name:        "valid login",
			requestBody: validReq,
			mockResp: models.Session{
				Token:    "tok",
				User:     &models.User{ID: "1", Email: "admin@salon.test"},
				Branches: []models.Branch{{ID: "5", Label: "Main"}, {ID: "6", Label: "North"}},
			},
			callService:    true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantCurrent:    "5",
		},
		{
			name:        "legacy single branch",
			requestBody: validReq,
			mockResp: models.Session{
				Token: "tok",
				User:  &models.User{ID: "1", Branch: &models.Branch{ID: "9", Label: "Only"}},
			},
			callService:    true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantCurrent:    "9",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing password",
			requestBody:    validReq,
			mockErr:        fmt.Errorf("auth.Login: %w", validationErr),
			callService:    true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password is a required field",
			wantStatus:     "Error",
		},
		{
			name:           "wrong credentials",
			requestBody:    validReq,
			mockErr:        &gateway.APIError{Status: http.StatusUnauthorized, Path: "/auth/login", Message: "Invalid credentials"},
			callService:    true,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "Invalid credentials",
			wantStatus:     "Error",
		},
		{
			name:           "placeholder token",
			requestBody:    validReq,
			mockErr:        session.ErrInvalidToken,
			callService:    true,
			wantStatusCode: http.StatusBadGateway,
			wantError:      "login response has no token",
			wantStatus:     "Error",
		},
		{
			name:           "network error",
			requestBody:    validReq,
			mockErr:        errors.New("dial tcp: connection refused"),
			callService:    true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "Login failed",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock.ExpectedCalls = nil
			authMock.Calls = nil

			if tt.callService {
				authMock.On("Login", mock.Anything, tt.requestBody.(auth.LoginRequest)).
					Return(tt.mockResp, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
				assert.Nil(t, got["data"])
			} else {
				assert.Nil(t, got["error"])
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.NotContains(t, data, "token")
				current, ok := data["current_branch"].(map[string]any)
				assert.True(t, ok)
				// целые идентификаторы возвращаются числом
				assert.EqualValues(t, tt.wantCurrent, fmt.Sprint(current["id"]))
			}

			if tt.callService {
				authMock.AssertExpectations(t)
			}
		})
	}
}
