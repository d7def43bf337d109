package memberships

import (
	"context"
	"encoding/json"
	"errors"
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

	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/services/catalog"
)

type APIMock struct {
	mock.Mock
}

func (m *APIMock) Memberships(ctx context.Context) ([]models.Plan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]models.Plan)
	return plans, args.Error(1)
}

func (m *APIMock) CreateMembership(ctx context.Context, plan models.Plan) (models.Plan, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(models.Plan), args.Error(1)
}

func (m *APIMock) UpdateMembership(ctx context.Context, plan models.Plan) (models.Plan, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(models.Plan), args.Error(1)
}

func (m *APIMock) DeleteMembership(ctx context.Context, id models.ID) error {
	return m.Called(ctx, id).Error(0)
}

func plans() []models.Plan {
	return []models.Plan{
		{ID: "1", Title: "Gold", Price: "$100.00", Duration: "12 Months", IsActive: true},
		{ID: "2", Title: "Bronze", Price: "$9.00", Duration: "1 Month", IsActive: true},
		{ID: "3", Title: "Silver", Price: "$20.00", Duration: "6 Months"},
	}
}

func newRouter(api *APIMock) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), catalog.New(api, nil, nil))
	r := chi.NewRouter()
	r.Get("/memberships", h.List)
	r.Post("/memberships", h.Create)
	r.Post("/memberships/sort", h.Sort)
	r.Put("/memberships/{id}", h.Update)
	r.Delete("/memberships/{id}", h.Delete)
	r.Post("/memberships/{id}/toggle", h.Toggle)
	return r
}

type viewResponse struct {
	Status string       `json:"status"`
	Error  string       `json:"error"`
	Data   catalog.View `json:"data"`
}

func do(t *testing.T, h http.Handler, method, url, body string) (*httptest.ResponseRecorder, viewResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, url, strings.NewReader(body)))
	var got viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return rec, got
}

func titles(v catalog.View) []string {
	out := make([]string, 0, len(v.Items))
	for _, p := range v.Items {
		out = append(out, p.Title)
	}
	return out
}

func TestList_LoadsOnceAndSearches(t *testing.T) {
	api := new(APIMock)
	api.On("Memberships", mock.Anything).Return(plans(), nil).Once()
	h := newRouter(api)

	rec, got := do(t, h, http.MethodGet, "/memberships", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Gold", "Bronze", "Silver"}, titles(got.Data))
	assert.Equal(t, 12, got.Data.Pagination.PerPage)

	_, got = do(t, h, http.MethodGet, "/memberships?q=month", "")
	assert.Equal(t, []string{"Gold", "Bronze", "Silver"}, titles(got.Data))

	_, got = do(t, h, http.MethodGet, "/memberships?q=gol", "")
	assert.Equal(t, []string{"Gold"}, titles(got.Data))

	api.AssertNumberOfCalls(t, "Memberships", 1)
}

func TestSort_TogglesDirection(t *testing.T) {
	api := new(APIMock)
	api.On("Memberships", mock.Anything).Return(plans(), nil).Once()
	h := newRouter(api)
	do(t, h, http.MethodGet, "/memberships", "")

	_, got := do(t, h, http.MethodPost, "/memberships/sort", `{"column":"price"}`)
	assert.Equal(t, []string{"Bronze", "Silver", "Gold"}, titles(got.Data))
	assert.Equal(t, catalog.Asc, got.Data.SortDir)

	_, got = do(t, h, http.MethodPost, "/memberships/sort", `{"column":"price"}`)
	assert.Equal(t, []string{"Gold", "Silver", "Bronze"}, titles(got.Data))

	rec, got := do(t, h, http.MethodPost, "/memberships/sort", `{"column":"color"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown sort column", got.Error)
}

func TestList_LoadFailure(t *testing.T) {
	api := new(APIMock)
	api.On("Memberships", mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()

	rec, got := do(t, newRouter(api), http.MethodGet, "/memberships", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to load memberships", got.Error)
}

func TestToggleAndDelete(t *testing.T) {
	api := new(APIMock)
	api.On("Memberships", mock.Anything).Return(plans(), nil).Once()
	h := newRouter(api)
	do(t, h, http.MethodGet, "/memberships", "")

	toggled := plans()[2]
	toggled.IsActive = true
	api.On("UpdateMembership", mock.Anything, toggled).Return(toggled, nil).Once()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/memberships/3/toggle", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":true`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/memberships/99/toggle", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	api.On("DeleteMembership", mock.Anything, models.ID("2")).Return(nil).Once()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/memberships/2", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, got := do(t, h, http.MethodGet, "/memberships", "")
	assert.Equal(t, []string{"Gold", "Silver"}, titles(got.Data))
	api.AssertExpectations(t)
}

func TestCreateAndUpdate(t *testing.T) {
	api := new(APIMock)
	api.On("Memberships", mock.Anything).Return(plans(), nil).Once()
	h := newRouter(api)
	do(t, h, http.MethodGet, "/memberships", "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/memberships", strings.NewReader(`{"title":"Platinum"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	api.AssertNotCalled(t, "CreateMembership", mock.Anything, mock.Anything)

	in := models.Plan{Title: "Platinum", Price: "$300.00", Duration: "12 Months"}
	out := in
	out.ID = "4"
	api.On("CreateMembership", mock.Anything, in).Return(out, nil).Once()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/memberships",
		strings.NewReader(`{"title":"Platinum","price":"$300.00","duration":"12 Months"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":4`)

	edited := models.Plan{ID: "1", Title: "Gold+", Price: "$120.00", Duration: "12 Months", IsActive: true}
	api.On("UpdateMembership", mock.Anything, edited).Return(edited, nil).Once()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/memberships/1",
		strings.NewReader(`{"title":"Gold+","price":"$120.00","duration":"12 Months","is_active":true}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	api.AssertExpectations(t)
}
