package salonadmin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/salon-admin/internal/config"
	"github.com/magabrotheeeer/salon-admin/internal/storage/kv"
)

// fakeBackend — REST API салона для сквозных тестов.
type fakeBackend struct {
	mu          sync.Mutex
	branchIDs   []string
	authHeader  []string
	memberships []string // branch_id каждого GET /memberships
}

func (b *fakeBackend) membershipLoads(branchID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, id := range b.memberships {
		if id == branchID {
			n++
		}
	}
	return n
}

func (b *fakeBackend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.branchIDs = append(b.branchIDs, r.URL.Query().Get("branch_id"))
	b.authHeader = append(b.authHeader, r.Header.Get("Authorization"))
}

func (b *fakeBackend) handler() http.Handler {
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	r := chi.NewRouter()
	r.Post("/authentication/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			write(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
			return
		}
		write(w, http.StatusOK, `{"status":true,"data":{
			"token":"tok-1",
			"user":{"id":1,"email":"admin@salon.test","permissions":["View Memberships"]},
			"branches":[{"id":5,"label":"Main"},{"id":6,"label":"North"}]}}`)
	})
	r.Post("/authentication/check-reset-password-token", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	})
	r.Get("/get-permissions", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		write(w, http.StatusOK, `{"data":{"permissions":["View Memberships"]}}`)
	})
	r.Get("/memberships", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		b.memberships = append(b.memberships, r.URL.Query().Get("branch_id"))
		b.mu.Unlock()
		write(w, http.StatusOK, `{"data":[
			{"id":1,"title":"Gold","price":"$100.00","duration":"12 Months","is_active":true},
			{"id":2,"title":"Bronze","price":"$9.00","duration":"1 Month","is_active":true}]}`)
	})
	r.Get("/memberships/1/subscribers", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"data":[
			{"id":"s1","customer_name":"Anna Lee","end_date":"Fri 29 Aug, 2099"}]}`)
	})
	return r
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeBackend) {
	t.Helper()
	srv, backend, _ := newTestApp(t)
	return srv, backend
}

func newTestApp(t *testing.T) (*httptest.Server, *fakeBackend, *Core) {
	t.Helper()
	backend := &fakeBackend{}
	api := httptest.NewServer(backend.handler())
	t.Cleanup(api.Close)

	cfg := &config.Config{
		Backend: config.Backend{
			BaseURL:          api.URL,
			APIToken:         "static",
			APITokenHeader:   "X-Api-Token",
			CriticalPrefixes: config.DefaultCriticalPrefixes,
			CriticalExempt:   config.DefaultCriticalExempt,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core, err := NewCore(context.Background(), cfg, logger, CoreOptions{Storage: kv.NewMemory()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })

	router := chi.NewRouter()
	RegisterRoutes(router, logger, core, cfg.HTTPServer)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, backend, core
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return resp.StatusCode, got
}

func TestRoutes_LoginScopesRequestsToBranch(t *testing.T) {
	srv, backend := newTestServer(t)

	status, _ := call(t, srv, http.MethodGet, "/api/v1/memberships", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, got := call(t, srv, http.MethodPost, "/api/v1/auth/login",
		`{"email":"admin@salon.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, status)
	data := got["data"].(map[string]any)
	assert.Equal(t, float64(5), data["current_branch"].(map[string]any)["id"])

	status, got = call(t, srv, http.MethodGet, "/api/v1/memberships", "")
	require.Equal(t, http.StatusOK, status)
	items := got["data"].(map[string]any)["items"].([]any)
	assert.Len(t, items, 2)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.NotEmpty(t, backend.branchIDs)
	for i := range backend.branchIDs {
		assert.Equal(t, "5", backend.branchIDs[i])
		assert.Equal(t, "Bearer tok-1", backend.authHeader[i])
	}
}

func TestRoutes_PermissionGate(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := call(t, srv, http.MethodPost, "/api/v1/auth/login",
		`{"email":"admin@salon.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/api/v1/reports", "")
	assert.Equal(t, http.StatusForbidden, status)

	status, got := call(t, srv, http.MethodGet, "/api/v1/session/access?path=/booking/edit/42", "")
	require.Equal(t, http.StatusOK, status)
	access := got["data"].(map[string]any)
	assert.Equal(t, false, access["allowed"])
	assert.Equal(t, "Edit Booking", access["permission"])
}

func TestRoutes_CriticalUnauthorizedEndsSession(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := call(t, srv, http.MethodPost, "/api/v1/auth/login",
		`{"email":"admin@salon.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, status)

	status, got := call(t, srv, http.MethodPost, "/api/v1/auth/check-reset-token", `{"token":"abc"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthenticated.", got["error"])

	_, got = call(t, srv, http.MethodGet, "/api/v1/session", "")
	assert.Equal(t, false, got["data"].(map[string]any)["authenticated"])

	status, _ = call(t, srv, http.MethodGet, "/api/v1/branches", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRoutes_BranchSwitchReloadsViewsOnce(t *testing.T) {
	srv, backend, core := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := core.Watch(ctx)

	status, _ := call(t, srv, http.MethodPost, "/api/v1/auth/login",
		`{"email":"admin@salon.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, status)
	// вход выбирает филиал 5, и наблюдатель загружает каталог для него
	require.Eventually(t, func() bool { return backend.membershipLoads("5") == 1 },
		time.Second, 5*time.Millisecond)

	status, _ = call(t, srv, http.MethodGet, "/api/v1/memberships/1/subscribers", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "1", core.Roster.MembershipID().String())

	status, got := call(t, srv, http.MethodPut, "/api/v1/branches/current", `{"branch_id":6}`)
	require.Equal(t, http.StatusOK, status)
	current := got["data"].(map[string]any)["current_branch"].(map[string]any)
	assert.Equal(t, float64(6), current["id"])

	require.Eventually(t, func() bool { return backend.membershipLoads("6") == 1 },
		time.Second, 5*time.Millisecond)
	assert.True(t, core.Roster.MembershipID().IsZero(), "roster belongs to the old branch")
	assert.Never(t, func() bool { return backend.membershipLoads("6") > 1 },
		100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 1, backend.membershipLoads("5"))
	assert.Eventually(t, core.Catalog.Loaded, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRoutes_FailedLoginKeepsSession(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := call(t, srv, http.MethodPost, "/api/v1/auth/login",
		`{"email":"admin@salon.test","password":"secret"}`)
	require.Equal(t, http.StatusOK, status)

	status, got := call(t, srv, http.MethodPost, "/api/v1/auth/login",
		`{"email":"admin@salon.test","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", got["error"])

	_, got = call(t, srv, http.MethodGet, "/api/v1/session", "")
	assert.Equal(t, true, got["data"].(map[string]any)["authenticated"])
	status, _ = call(t, srv, http.MethodGet, "/api/v1/branches", "")
	assert.Equal(t, http.StatusOK, status)
}
