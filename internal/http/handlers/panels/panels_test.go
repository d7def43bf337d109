package panels

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/salon-admin/internal/adminapi"
	"github.com/magabrotheeeer/salon-admin/internal/gateway"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/services/dashboard"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Dashboard(ctx context.Context) dashboard.Panel {
	return m.Called(ctx).Get(0).(dashboard.Panel)
}

func (m *ServiceMock) Reports(ctx context.Context) dashboard.Panel {
	return m.Called(ctx).Get(0).(dashboard.Panel)
}

func (m *ServiceMock) Bookings(ctx context.Context, q adminapi.BookingsQuery) dashboard.Panel {
	return m.Called(ctx, q).Get(0).(dashboard.Panel)
}

func (m *ServiceMock) Customers(ctx context.Context, search string) dashboard.CustomerList {
	return m.Called(ctx, search).Get(0).(dashboard.CustomerList)
}

func TestPanelHandlers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		url        string
		newHandler func(*slog.Logger, Service) *Handler
		setupMock  func(*ServiceMock)
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{
			name:       "dashboard ok",
			url:        "/dashboard",
			newHandler: NewDashboard,
			setupMock: func(m *ServiceMock) {
				m.On("Dashboard", mock.Anything).Return(dashboard.Panel{Data: json.RawMessage(`{"revenue":1200}`)})
			},
			wantStatus: http.StatusOK,
			wantBody:   `"revenue":1200`,
		},
		{
			name:       "reports error state",
			url:        "/reports",
			newHandler: NewReports,
			setupMock: func(m *ServiceMock) {
				m.On("Reports", mock.Anything).Return(dashboard.Panel{
					Error: "Failed to load reports",
					Err:   errors.New("dial tcp: timeout"),
				})
			},
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to load reports",
		},
		{
			name:       "bookings query forwarded",
			url:        "/bookings?date=2024-08-30&per_page=50",
			newHandler: NewBookings,
			setupMock: func(m *ServiceMock) {
				m.On("Bookings", mock.Anything, adminapi.BookingsQuery{Date: "2024-08-30", PerPage: 50}).
					Return(dashboard.Panel{Data: json.RawMessage(`[]`)})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "customers backend 403",
			url:        "/customers?search=ann",
			newHandler: NewCustomers,
			setupMock: func(m *ServiceMock) {
				m.On("Customers", mock.Anything, "ann").Return(dashboard.CustomerList{
					Items: []models.Customer{},
					Error: "Forbidden",
					Err:   &gateway.APIError{Status: http.StatusForbidden, Message: "Forbidden"},
				})
			},
			wantStatus: http.StatusForbidden,
			wantError:  "Forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			tt.newHandler(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantError != "" {
				var got map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, tt.wantError, got["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}
