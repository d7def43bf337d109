package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salonadmin "github.com/magabrotheeeer/salon-admin/internal/app/salon-admin"
	"github.com/magabrotheeeer/salon-admin/internal/config"
	"github.com/magabrotheeeer/salon-admin/internal/storage/kv"
)

type backend struct {
	mu        sync.Mutex
	cancelled []string
	added     []string
}

func (b *backend) handler() http.Handler {
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	r := chi.NewRouter()
	r.Post("/authentication/login", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"data":{
			"token":"tok-1",
			"user":{"id":1,"name":"Admin","email":"admin@salon.test","permissions":["View Memberships"]},
			"branches":[{"id":5,"label":"Main"},{"id":6,"label":"North"}]}}`)
	})
	r.Get("/get-permissions", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"data":{"permissions":["View Memberships"]}}`)
	})
	r.Get("/memberships", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"data":[
			{"id":1,"title":"Gold","price":"$100.00","duration":"12 Months","is_active":true},
			{"id":2,"title":"Bronze","price":"$9.00","duration":"1 Month","is_active":false}]}`)
	})
	r.Get("/memberships/1/subscribers", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"data":[
			{"id":"s1","customer_name":"Anna Lee","start_date":"Mon 1 Jan, 2024","end_date":"Fri 29 Aug, 2099"},
			{"id":"s2","customer_name":"Bob Stone","end_date":"Mon 2 Dec, 2020"}]}`)
	})
	r.Post("/memberships/1/subscribers/{sid}/cancel", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.cancelled = append(b.cancelled, chi.URLParam(r, "sid"))
		b.mu.Unlock()
		write(w, http.StatusOK, `{}`)
	})
	r.Get("/customers", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("search") {
		case "anna":
			write(w, http.StatusOK, `{"data":[{"id":7,"name":"Anna Lee"}]}`)
		default:
			write(w, http.StatusOK, `{"data":[{"id":7,"name":"Anna Lee"},{"id":8,"name":"Anna Cole"}]}`)
		}
	})
	r.Post("/memberships/1/subscribers", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.added = append(b.added, "7")
		b.mu.Unlock()
		write(w, http.StatusCreated, `{"data":{"id":"s3","customer_name":"Anna Lee","end_date":"Sat 1 Nov, 2099"}}`)
	})
	return r
}

// harness запускает команды как отдельные процессы с общим хранилищем сессии.
type harness struct {
	t       *testing.T
	cfg     *config.Config
	storage kv.Storage
	backend *backend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return &harness{
		t: t,
		cfg: &config.Config{Backend: config.Backend{
			BaseURL:          srv.URL,
			CriticalPrefixes: config.DefaultCriticalPrefixes,
			CriticalExempt:   config.DefaultCriticalExempt,
		}},
		storage: kv.NewMemory(),
		backend: b,
	}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	app := &App{
		Out: &out,
		In:  strings.NewReader(stdin),
		NewCore: func(ctx context.Context) (*salonadmin.Core, error) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			return salonadmin.NewCore(ctx, h.cfg, logger, salonadmin.CoreOptions{Storage: h.storage})
		},
	}
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_RequiresLogin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "memberships", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_LoginAndBranches(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("secret\n", "login", "--email", "admin@salon.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Admin")
	assert.Contains(t, out, "Branch: Main (5)")

	out, err = h.run("", "branches", "use", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "Switched to North (6)")

	out, err = h.run("", "branches", "list")
	require.NoError(t, err)
	assert.Regexp(t, `\*\s+6\s+North`, out)

	_, err = h.run("", "branches", "use", "99")
	assert.Error(t, err)

	_, err = h.run("", "logout")
	require.NoError(t, err)
	_, err = h.run("", "branches", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_Memberships(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "--email", "admin@salon.test", "--password", "secret")
	require.NoError(t, err)

	out, err := h.run("", "memberships", "list", "--sort", "price")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Bronze"), strings.Index(out, "Gold"))
	assert.Contains(t, out, "Page 1 of 1 (2 total)")

	out, err = h.run("", "memberships", "list", "--sort", "price", "--desc")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Gold"), strings.Index(out, "Bronze"))

	out, err = h.run("", "memberships", "list", "--search", "gold")
	require.NoError(t, err)
	assert.NotContains(t, out, "Bronze")

	_, err = h.run("", "memberships", "list", "--sort", "rating")
	assert.Error(t, err)
}

func TestCLI_Subscribers(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "--email", "admin@salon.test", "--password", "secret")
	require.NoError(t, err)

	out, err := h.run("", "subscribers", "list", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Active: 1, cancelled or expired: 1")
	assert.Contains(t, out, "Anna Lee")
	assert.NotContains(t, out, "Bob Stone")

	out, err = h.run("", "subscribers", "list", "1", "--filter", "cancelled_or_expired")
	require.NoError(t, err)
	assert.Contains(t, out, "Bob Stone")

	t.Run("declined cancel does nothing", func(t *testing.T) {
		out, err := h.run("n\n", "subscribers", "cancel", "1", "s1")
		require.NoError(t, err)
		assert.Contains(t, out, "Aborted")
		h.backend.mu.Lock()
		assert.Empty(t, h.backend.cancelled)
		h.backend.mu.Unlock()
	})

	t.Run("confirmed cancel", func(t *testing.T) {
		out, err := h.run("y\n", "subscribers", "cancel", "1", "s1")
		require.NoError(t, err)
		assert.Contains(t, out, "Membership of Anna Lee cancelled")
		h.backend.mu.Lock()
		assert.Equal(t, []string{"s1"}, h.backend.cancelled)
		h.backend.mu.Unlock()
	})

	t.Run("ended subscriber cannot be cancelled", func(t *testing.T) {
		_, err := h.run("", "subscribers", "cancel", "1", "s2", "--yes")
		assert.ErrorContains(t, err, "not active")
	})

	t.Run("add needs a single match", func(t *testing.T) {
		_, err := h.run("", "subscribers", "add", "1", "--customer", "an", "--start", "2099-01-01")
		assert.ErrorContains(t, err, "2 customers match")

		out, err := h.run("", "subscribers", "add", "1", "--customer", "anna", "--start", "2099-01-01")
		require.NoError(t, err)
		assert.Contains(t, out, "Added Anna Lee (subscriber s3)")
	})

	t.Run("add rejects bad date", func(t *testing.T) {
		_, err := h.run("", "subscribers", "add", "1", "--customer", "anna", "--start", "01/02/2099")
		assert.ErrorContains(t, err, "invalid start date")
	})
}
