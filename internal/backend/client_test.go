// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/backend/backendtest"
	"github.com/taibuivan/alumniportal/internal/platform/apperr"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

// fakeCredentials is a hand-written credential source.
type fakeCredentials struct {
	mu          sync.Mutex
	token       string
	invalidated int
}

func (f *fakeCredentials) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCredentials) Invalidate(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.invalidated++
}

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
}

func (r *recordingObserver) ObserveBackend(method, route string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
}

func newClient(t *testing.T, baseURL string) *backend.Client {
	t.Helper()
	client, err := backend.New(backend.Options{BaseURL: baseURL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

/*
TestNew_InvalidBaseURL rejects URLs without scheme or host.
*/
func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := backend.New(backend.Options{BaseURL: "localhost"})
	assert.Error(t, err)
}

/*
TestCaller_AttachesBearer verifies that the token is sent only when present.
*/
func TestCaller_AttachesBearer(t *testing.T) {
	var headers []string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		headers = append(headers, request.Header.Get("Authorization"))
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	ctx := context.Background()

	require.NoError(t, client.As(&fakeCredentials{token: "tok-1"}).Health(ctx))
	require.NoError(t, client.As(&fakeCredentials{}).Health(ctx))
	require.NoError(t, client.Anonymous().Health(ctx))

	assert.Equal(t, []string{"Bearer tok-1", "", ""}, headers)
}

/*
TestCaller_Unauthorized verifies the 401 path: credentials invalidated, hooks run,
error wraps ErrUnauthorized.
*/
func TestCaller_Unauthorized(t *testing.T) {
	fake := backendtest.New(t)
	client := newClient(t, fake.URL)

	var hookCalls []string
	client.OnUnauthorized(func(_ context.Context, method, path string) {
		hookCalls = append(hookCalls, method+" "+path)
	})

	creds := &fakeCredentials{token: "not-a-valid-token"}
	_, err := client.As(creds).Me(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, backend.StatusOf(err))
	assert.Equal(t, 1, creds.invalidated)
	assert.Empty(t, creds.Token())
	assert.Equal(t, []string{"GET /api/auth/me"}, hookCalls)
}

/*
TestCaller_LoginFailureDoesNotFireHook verifies that a wrong password on an
anonymous caller is a plain error.
*/
func TestCaller_LoginFailureDoesNotFireHook(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@x.com", "secret", "Ada", sec.RoleAlumni)
	client := newClient(t, fake.URL)

	hookFired := false
	client.OnUnauthorized(func(context.Context, string, string) { hookFired = true })

	_, err := client.Anonymous().Login(context.Background(), backend.LoginInput{Email: "a@x.com", Password: "wrong"})

	require.Error(t, err)
	assert.False(t, hookFired)

	var backendErr *backend.Error
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "Incorrect email or password", backendErr.Detail)
}

/*
TestLoginThenMe covers the credential round trip: login returns a token and the
identity endpoint answers with the same account.
*/
func TestLoginThenMe(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@x.com", "secret", "Ada", sec.RoleAlumni)
	client := newClient(t, fake.URL)
	ctx := context.Background()

	login, err := client.Anonymous().Login(ctx, backend.LoginInput{Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "bearer", login.TokenType)

	me, err := client.As(&fakeCredentials{token: login.AccessToken}).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", me.Email)
	assert.Equal(t, sec.RoleAlumni, me.Role)
}

/*
TestProfileRoundTrip verifies that every field written on create comes back
from the own-profile endpoint.
*/
func TestProfileRoundTrip(t *testing.T) {
	fake := backendtest.New(t)
	user := fake.AddUser("a@x.com", "secret", "Ada", sec.RoleAlumni)
	client := newClient(t, fake.URL)
	caller := client.As(&fakeCredentials{token: fake.Token(user.ID)})
	ctx := context.Background()

	_, err := caller.MyProfile(ctx)
	require.Error(t, err)
	assert.True(t, backend.IsNotFound(err))

	year := 2019
	str := func(value string) *string { return &value }
	input := backend.ProfileInput{
		GraduationYear:    &year,
		Major:             str("Computer Science"),
		CurrentPosition:   str("Engineer"),
		Company:           str("Acme"),
		Bio:               str("Hello"),
		LinkedinURL:       str("https://linkedin.com/in/ada"),
		ProfilePictureURL: str("https://img.example/ada.png"),
	}

	created, err := caller.SaveProfile(ctx, false, input)
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.UserID)

	fetched, err := caller.MyProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, input, fetched.Input())
	require.NotNil(t, fetched.User)
	assert.Equal(t, "a@x.com", fetched.User.Email)

	// A second create is refused.
	_, err = caller.CreateProfile(ctx, input)
	assert.Equal(t, http.StatusBadRequest, backend.StatusOf(err))

	// A partial update leaves the unsent fields alone.
	patched, err := caller.UpdateProfile(ctx, backend.ProfileInput{Company: str("Initech")})
	require.NoError(t, err)
	assert.Equal(t, "Initech", *patched.Company)
	assert.Equal(t, "Engineer", *patched.CurrentPosition)

	// Saving an existing profile replaces it, so omitted fields are cleared.
	updated, err := caller.SaveProfile(ctx, true, backend.ProfileInput{Company: str("Globex")})
	require.NoError(t, err)
	assert.Equal(t, "Globex", *updated.Company)
	assert.Empty(t, updated.CurrentPosition)
	assert.Empty(t, updated.Bio)
	assert.Nil(t, updated.GraduationYear)
}

/*
TestPosts covers listing defaults, author-only mutations and admin auto-approval.
*/
func TestPosts(t *testing.T) {
	fake := backendtest.New(t)
	alice := fake.AddUser("alice@x.com", "pw", "Alice", sec.RoleAlumni)
	bob := fake.AddUser("bob@x.com", "pw", "Bob", sec.RoleAlumni)
	admin := fake.AddUser("admin@x.com", "pw", "Admin", sec.RoleAdmin)
	fake.AddPost(alice.ID, "Approved", "body", backend.PostApproved)
	fake.AddPost(alice.ID, "Pending", "body", backend.PostPending)

	client := newClient(t, fake.URL)
	ctx := context.Background()
	asAlice := client.As(&fakeCredentials{token: fake.Token(alice.ID)})
	asBob := client.As(&fakeCredentials{token: fake.Token(bob.ID)})
	asAdmin := client.As(&fakeCredentials{token: fake.Token(admin.ID)})

	t.Run("default_list_is_approved_only", func(t *testing.T) {
		posts, err := client.Anonymous().Posts(ctx, backend.PostFilter{})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "Approved", posts[0].Title)
		require.NotNil(t, posts[0].Author)
		assert.Equal(t, "Alice", posts[0].Author.FullName)
	})

	t.Run("status_filter", func(t *testing.T) {
		posts, err := client.Anonymous().Posts(ctx, backend.PostFilter{Status: backend.PostPending})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "Pending", posts[0].Title)
	})

	t.Run("alumni_post_starts_pending", func(t *testing.T) {
		post, err := asAlice.CreatePost(ctx, backend.PostInput{Title: "New", Content: "Text"})
		require.NoError(t, err)
		assert.Equal(t, backend.PostPending, post.Status)

		mine, err := asAlice.MyPosts(ctx)
		require.NoError(t, err)
		assert.Len(t, mine, 3)
	})

	t.Run("admin_post_auto_approved", func(t *testing.T) {
		post, err := asAdmin.CreatePost(ctx, backend.PostInput{Title: "Announcement", Content: "Text"})
		require.NoError(t, err)
		assert.Equal(t, backend.PostApproved, post.Status)
	})

	t.Run("non_author_cannot_delete", func(t *testing.T) {
		post := fake.AddPost(alice.ID, "Mine", "body", backend.PostApproved)

		err := asBob.DeletePost(ctx, post.ID)
		assert.Equal(t, http.StatusForbidden, backend.StatusOf(err))

		title := "Renamed"
		updated, err := asAlice.UpdatePost(ctx, post.ID, backend.PostUpdate{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "body", updated.Content)

		require.NoError(t, asAdmin.DeletePost(ctx, post.ID))
		_, err = client.Anonymous().Post(ctx, post.ID)
		assert.True(t, backend.IsNotFound(err))
	})
}

/*
TestAdminEndpoints covers moderation transitions and the user toggle.
*/
func TestAdminEndpoints(t *testing.T) {
	fake := backendtest.New(t)
	alice := fake.AddUser("alice@x.com", "pw", "Alice", sec.RoleAlumni)
	admin := fake.AddUser("admin@x.com", "pw", "Admin", sec.RoleAdmin)
	pending := fake.AddPost(alice.ID, "Pending", "body", backend.PostPending)

	client := newClient(t, fake.URL)
	ctx := context.Background()
	asAlice := client.As(&fakeCredentials{token: fake.Token(alice.ID)})
	asAdmin := client.As(&fakeCredentials{token: fake.Token(admin.ID)})

	_, err := asAlice.PendingPosts(ctx)
	assert.Equal(t, http.StatusForbidden, backend.StatusOf(err))

	posts, err := asAdmin.PendingPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	approved, err := asAdmin.ApprovePost(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, backend.PostApproved, approved.Status)

	_, err = asAdmin.RejectPost(ctx, 9999)
	assert.True(t, backend.IsNotFound(err))

	toggled, err := asAdmin.ToggleUserActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = asAdmin.ToggleUserActive(ctx, admin.ID)
	var backendErr *backend.Error
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusBadRequest, backendErr.Status)
	assert.Equal(t, "Cannot deactivate yourself", backendErr.Detail)

	users, err := asAdmin.Users(ctx, backend.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

/*
TestNewsletter covers subscribe, reactivation and unsubscribe.
*/
func TestNewsletter(t *testing.T) {
	fake := backendtest.New(t)
	admin := fake.AddUser("admin@x.com", "pw", "Admin", sec.RoleAdmin)
	client := newClient(t, fake.URL)
	ctx := context.Background()
	anonymous := client.Anonymous()

	result, err := anonymous.Subscribe(ctx, "reader@x.com")
	require.NoError(t, err)
	assert.True(t, result.Subscribed)

	result, err = anonymous.Subscribe(ctx, "reader@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Email already subscribed", result.Message)

	message, err := anonymous.Unsubscribe(ctx, "reader@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Successfully unsubscribed from newsletter", message)

	subscribers, err := client.As(&fakeCredentials{token: fake.Token(admin.ID)}).Subscribers(ctx)
	require.NoError(t, err)
	assert.Empty(t, subscribers)

	result, err = anonymous.Subscribe(ctx, "reader@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Subscription reactivated", result.Message)

	_, err = anonymous.Unsubscribe(ctx, "nobody@x.com")
	assert.True(t, backend.IsNotFound(err))

	// Addresses match exactly; a differently cased address is another subscriber.
	_, err = anonymous.Unsubscribe(ctx, "Reader@X.com")
	assert.True(t, backend.IsNotFound(err))

	subscribers, err = client.As(&fakeCredentials{token: fake.Token(admin.ID)}).Subscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	assert.Equal(t, "reader@x.com", subscribers[0].Email)
}

/*
TestErrorDetail covers both FastAPI error shapes and the apperr translation.
*/
func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantCode   string
	}{
		{"string_detail", http.StatusBadRequest, `{"detail":"Email already registered"}`, "Email already registered", "BAD_REQUEST"},
		{"validation_list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, "value is not a valid email address", "UNPROCESSABLE"},
		{"no_body", http.StatusInternalServerError, ``, "", "BAD_GATEWAY"},
		{"forbidden", http.StatusForbidden, `{"detail":"Not enough permissions"}`, "Not enough permissions", "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
				writer.WriteHeader(tt.status)
				_, _ = writer.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := newClient(t, server.URL).Anonymous().Health(context.Background())

			var backendErr *backend.Error
			require.True(t, errors.As(err, &backendErr))
			assert.Equal(t, tt.status, backendErr.Status)
			assert.Equal(t, tt.wantDetail, backendErr.Detail)

			appErr := backendErr.AppError()
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.True(t, apperr.IsAppError(appErr))
		})
	}
}

/*
TestTransportError reports an unreachable backend with status 0.
*/
func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := newClient(t, url).Anonymous().Health(context.Background())
	require.Error(t, err)
	assert.True(t, backend.IsTransport(err))
	assert.Equal(t, 0, backend.StatusOf(err))
}

/*
TestObserver receives the route template, not the concrete path.
*/
func TestObserver(t *testing.T) {
	fake := backendtest.New(t)
	observer := &recordingObserver{}
	client, err := backend.New(backend.Options{BaseURL: fake.URL, Timeout: time.Second, Observer: observer})
	require.NoError(t, err)

	_, _ = client.Anonymous().Post(context.Background(), 42)
	assert.Equal(t, []string{"GET /api/posts/{id}"}, observer.routes)
}
