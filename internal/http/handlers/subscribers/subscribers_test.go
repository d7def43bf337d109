package subscribers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/salon-admin/internal/adminapi"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/services/roster"
)

type APIMock struct {
	mock.Mock
}

func (m *APIMock) Subscribers(ctx context.Context, membershipID models.ID) ([]models.Subscriber, error) {
	args := m.Called(ctx, membershipID)
	subs, _ := args.Get(0).([]models.Subscriber)
	return subs, args.Error(1)
}

func (m *APIMock) AddSubscriber(ctx context.Context, membershipID models.ID, req adminapi.NewSubscriber) (models.Subscriber, error) {
	args := m.Called(ctx, membershipID, req)
	return args.Get(0).(models.Subscriber), args.Error(1)
}

func (m *APIMock) CancelSubscriber(ctx context.Context, membershipID, subscriberID models.ID) error {
	return m.Called(ctx, membershipID, subscriberID).Error(0)
}

func (m *APIMock) ExpireSubscriber(ctx context.Context, membershipID, subscriberID models.ID, endDate string) error {
	return m.Called(ctx, membershipID, subscriberID, endDate).Error(0)
}

func (m *APIMock) Customers(ctx context.Context, search string) ([]models.Customer, error) {
	args := m.Called(ctx, search)
	found, _ := args.Get(0).([]models.Customer)
	return found, args.Error(1)
}

func sampleSubscribers() []models.Subscriber {
	return []models.Subscriber{
		{ID: "11", CustomerName: "Anna Lee", StartDate: "Wed 1 Jan, 2020", EndDate: "Thu 1 Jan, 2099"},
		{ID: "12", CustomerName: "Boris Kim", StartDate: "Wed 1 Jan, 2020", EndDate: "Thu 1 Jan, 2099"},
		{ID: "13", CustomerName: "Carla Diaz", StartDate: "Wed 1 Jan, 2020", EndDate: "Thu 2 Jan, 2020"},
		{ID: "14", CustomerName: "Dmitri Orlov", StartDate: "Wed 1 Jan, 2020", EndDate: "Thu 1 Jan, 2099", IsCancelled: true},
	}
}

func newRouter(api *APIMock) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), roster.New(api, nil, nil))
	r := chi.NewRouter()
	r.Get("/memberships/{id}/subscribers", h.List)
	r.Post("/memberships/{id}/subscribers", h.Add)
	r.Post("/memberships/{id}/subscribers/{sid}/cancel", h.RequestCancel)
	r.Post("/memberships/{id}/cancel/confirm", h.Confirm)
	r.Post("/memberships/{id}/cancel/decline", h.Decline)
	return r
}

type viewResponse struct {
	Status string      `json:"status"`
	Error  string      `json:"error"`
	Data   roster.View `json:"data"`
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, url, rd))
	return rec
}

func view(t *testing.T, rec *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var got viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func names(v roster.View) []string {
	out := make([]string, 0, len(v.Items))
	for _, row := range v.Items {
		out = append(out, row.CustomerName)
	}
	return out
}

func TestList_PartitionsAndFilters(t *testing.T) {
	api := new(APIMock)
	api.On("Subscribers", mock.Anything, models.ID("7")).Return(sampleSubscribers(), nil).Once()
	h := newRouter(api)

	got := view(t, do(t, h, http.MethodGet, "/memberships/7/subscribers", ""))
	assert.Equal(t, []string{"Anna Lee", "Boris Kim"}, names(got.Data))
	assert.Equal(t, 2, got.Data.ActiveCount)
	assert.Equal(t, 2, got.Data.EndedCount)

	got = view(t, do(t, h, http.MethodGet, "/memberships/7/subscribers?filter=cancelled_or_expired", ""))
	assert.Equal(t, []string{"Carla Diaz", "Dmitri Orlov"}, names(got.Data))
	assert.Equal(t, models.StatusExpired, got.Data.Items[0].Status)
	assert.Equal(t, models.StatusCancelled, got.Data.Items[1].Status)

	got = view(t, do(t, h, http.MethodGet, "/memberships/7/subscribers?filter=active&q=BOR", ""))
	assert.Equal(t, []string{"Boris Kim"}, names(got.Data))

	rec := do(t, h, http.MethodGet, "/memberships/7/subscribers?filter=vip", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	api.AssertNumberOfCalls(t, "Subscribers", 1)
}

func TestCancel_RequestConfirm(t *testing.T) {
	api := new(APIMock)
	api.On("Subscribers", mock.Anything, models.ID("7")).Return(sampleSubscribers(), nil).Once()
	api.On("CancelSubscriber", mock.Anything, models.ID("7"), models.ID("12")).Return(nil).Once()
	h := newRouter(api)
	do(t, h, http.MethodGet, "/memberships/7/subscribers", "")

	rec := do(t, h, http.MethodPost, "/memberships/7/subscribers/12/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"cancel"`)

	rec = do(t, h, http.MethodPost, "/memberships/7/cancel/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_cancelled":true`)

	got := view(t, do(t, h, http.MethodGet, "/memberships/7/subscribers?filter=active", ""))
	assert.Equal(t, []string{"Anna Lee"}, names(got.Data))
	assert.Nil(t, got.Data.Pending)

	rec = do(t, h, http.MethodPost, "/memberships/7/cancel/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	api.AssertExpectations(t)
}

func TestCancel_DeclineKeepsStatus(t *testing.T) {
	api := new(APIMock)
	api.On("Subscribers", mock.Anything, models.ID("7")).Return(sampleSubscribers(), nil).Once()
	h := newRouter(api)
	do(t, h, http.MethodGet, "/memberships/7/subscribers", "")

	rec := do(t, h, http.MethodPost, "/memberships/7/subscribers/11/cancel", `{"mode":"expire"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := view(t, do(t, h, http.MethodPost, "/memberships/7/cancel/decline", ""))
	assert.Nil(t, got.Data.Pending)
	assert.Equal(t, 2, got.Data.ActiveCount)
	api.AssertNotCalled(t, "ExpireSubscriber", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_Rejections(t *testing.T) {
	api := new(APIMock)
	api.On("Subscribers", mock.Anything, models.ID("7")).Return(sampleSubscribers(), nil).Once()
	h := newRouter(api)

	rec := do(t, h, http.MethodPost, "/memberships/7/subscribers/11/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "membership not open yet")

	do(t, h, http.MethodGet, "/memberships/7/subscribers", "")

	rec = do(t, h, http.MethodPost, "/memberships/7/subscribers/99/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/memberships/7/subscribers/11/cancel", `{"mode":"refund"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	do(t, h, http.MethodGet, "/memberships/7/subscribers?filter=cancelled_or_expired", "")
	rec = do(t, h, http.MethodPost, "/memberships/7/subscribers/11/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "only from the active view")
}

func TestAdd(t *testing.T) {
	api := new(APIMock)
	api.On("Subscribers", mock.Anything, models.ID("7")).Return(sampleSubscribers(), nil).Once()
	created := models.Subscriber{ID: "15", CustomerName: "Eva Stone", StartDate: "Fri 30 Aug, 2024", EndDate: "Thu 1 Jan, 2099"}
	api.On("AddSubscriber", mock.Anything, models.ID("7"), adminapi.NewSubscriber{CustomerID: "42", StartDate: "2024-08-30"}).
		Return(created, nil).Once()
	h := newRouter(api)
	do(t, h, http.MethodGet, "/memberships/7/subscribers", "")

	rec := do(t, h, http.MethodPost, "/memberships/7/subscribers", `{"customer_id":42}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/memberships/7/subscribers", `{"customer_id":42,"start_date":"2024-08-30"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	got := view(t, do(t, h, http.MethodGet, "/memberships/7/subscribers", ""))
	assert.Equal(t, 3, got.Data.ActiveCount)
	api.AssertExpectations(t)
}
