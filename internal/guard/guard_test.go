// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/backend/backendtest"
	"github.com/taibuivan/alumniportal/internal/guard"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
	"github.com/taibuivan/alumniportal/internal/session"
)

var (
	alumni = &backend.User{ID: 1, Email: "a@x.com", Role: sec.RoleAlumni}
	admin  = &backend.User{ID: 2, Email: "admin@x.com", Role: sec.RoleAdmin}
)

/*
TestDecisions covers every rule over every session shape.
*/
func TestDecisions(t *testing.T) {
	loading := session.Snapshot{State: session.StateInitializing, Loading: true}
	anonymous := session.Snapshot{State: session.StateUnauthenticated}
	asAlumni := session.Snapshot{State: session.StateAuthenticated, Identity: alumni, HasCredential: true}
	asAdmin := session.Snapshot{State: session.StateAuthenticated, Identity: admin, HasCredential: true}

	tests := []struct {
		name     string
		rule     guard.Rule
		snapshot session.Snapshot
		want     guard.Decision
	}{
		{"auth_loading", guard.Authenticated, loading, guard.Wait},
		{"auth_anonymous", guard.Authenticated, anonymous, guard.RedirectLogin},
		{"auth_alumni", guard.Authenticated, asAlumni, guard.Render},
		{"auth_admin", guard.Authenticated, asAdmin, guard.Render},
		{"admin_loading", guard.Admin, loading, guard.Wait},
		{"admin_anonymous", guard.Admin, anonymous, guard.RedirectLogin},
		{"admin_alumni", guard.Admin, asAlumni, guard.RedirectHome},
		{"admin_admin", guard.Admin, asAdmin, guard.Render},
		{"guest_loading", guard.Guest, loading, guard.Wait},
		{"guest_anonymous", guard.Guest, anonymous, guard.Render},
		{"guest_alumni", guard.Guest, asAlumni, guard.RedirectHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule(tt.snapshot))
		})
	}
}

type env struct {
	fake   *backendtest.Server
	client *backend.Client
	slots  *session.MemorySlots
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fake := backendtest.New(t)
	fake.AddUser("a@x.com", "pw", "Alice", sec.RoleAlumni)
	fake.AddUser("admin@x.com", "pw", "Admin", sec.RoleAdmin)

	client, err := backend.New(backend.Options{BaseURL: fake.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return &env{fake: fake, client: client, slots: session.NewMemorySlots()}
}

func (e *env) store(t *testing.T, email string) *session.Store {
	t.Helper()
	store := session.NewStore(e.client, e.slots.For(email+"-visitor"), session.StoreOptions{CredentialTTL: time.Hour})
	store.Start(context.Background())
	if email != "" {
		_, err := store.Login(context.Background(), email, "pw")
		require.NoError(t, err)
	}
	return store
}

// countingHandler records how often the protected page rendered.
type countingHandler struct{ renders int }

func (h *countingHandler) ServeHTTP(writer http.ResponseWriter, _ *http.Request) {
	h.renders++
	writer.WriteHeader(http.StatusOK)
}

func serve(handler http.Handler, store *session.Store, target string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	request = request.WithContext(session.WithStore(request.Context(), store))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestRequireAdmin renders only for admins; alumni are sent home without the
page ever rendering.
*/
func TestRequireAdmin(t *testing.T) {
	e := newEnv(t)
	g := &guard.Guard{MaxWait: time.Second}

	t.Run("alumni_redirected_home", func(t *testing.T) {
		page := &countingHandler{}
		recorder := serve(g.RequireAdmin(page), e.store(t, "a@x.com"), "/dashboard/admin")

		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, "/dashboard", recorder.Header().Get("Location"))
		assert.Zero(t, page.renders)
	})

	t.Run("admin_renders", func(t *testing.T) {
		page := &countingHandler{}
		recorder := serve(g.RequireAdmin(page), e.store(t, "admin@x.com"), "/dashboard/admin")

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 1, page.renders)
	})

	t.Run("anonymous_redirected_to_login", func(t *testing.T) {
		page := &countingHandler{}
		recorder := serve(g.RequireAdmin(page), e.store(t, ""), "/dashboard/admin?tab=users")

		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		location, err := url.Parse(recorder.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/login", location.Path)
		assert.Equal(t, "/dashboard/admin?tab=users", location.Query().Get("next"))
		assert.Zero(t, page.renders)
	})
}

/*
TestRequireAuth_ReevaluatesEveryRequest verifies that logout takes effect on
the next request.
*/
func TestRequireAuth_ReevaluatesEveryRequest(t *testing.T) {
	e := newEnv(t)
	g := &guard.Guard{MaxWait: time.Second}
	page := &countingHandler{}
	handler := g.RequireAuth(page)
	store := e.store(t, "a@x.com")

	assert.Equal(t, http.StatusOK, serve(handler, store, "/dashboard").Code)

	store.Logout(context.Background())
	assert.Equal(t, http.StatusSeeOther, serve(handler, store, "/dashboard").Code)
	assert.Equal(t, 1, page.renders)
}

/*
TestRequireAuth_Waiting serves the waiting page while the session is still
validating and never renders the protected page.
*/
func TestRequireAuth_Waiting(t *testing.T) {
	e := newEnv(t)
	waiting := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("waiting"))
	})
	g := &guard.Guard{MaxWait: 10 * time.Millisecond, Waiting: waiting}
	page := &countingHandler{}

	// Never started: the store stays in its loading phase.
	store := session.NewStore(e.client, e.slots.For("pending"), session.StoreOptions{})
	recorder := serve(g.RequireAuth(page), store, "/dashboard")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "1", recorder.Header().Get("Refresh"))
	assert.Equal(t, "waiting", recorder.Body.String())
	assert.Empty(t, recorder.Header().Get("Location"))
	assert.Zero(t, page.renders)
}

/*
TestRequireAuth_WaitsForStartup decides once the session settles within MaxWait.
*/
func TestRequireAuth_WaitsForStartup(t *testing.T) {
	e := newEnv(t)
	g := &guard.Guard{MaxWait: 5 * time.Second}
	page := &countingHandler{}

	store := session.NewStore(e.client, e.slots.For("late"), session.StoreOptions{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		store.Start(context.Background())
	}()

	recorder := serve(g.RequireAuth(page), store, "/dashboard")
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Zero(t, page.renders)
}

/*
TestLoginURL keeps the requested path as the post-login destination.
*/
func TestLoginURL(t *testing.T) {
	target, err := url.Parse("/dashboard/posts?page=2")
	require.NoError(t, err)
	assert.Equal(t, "/login?next=%2Fdashboard%2Fposts%3Fpage%3D2", guard.LoginURL(target))

	login, err := url.Parse("/login")
	require.NoError(t, err)
	assert.Equal(t, "/login", guard.LoginURL(login))
}
