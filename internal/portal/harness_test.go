// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package portal_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/backend/backendtest"
	"github.com/taibuivan/alumniportal/internal/contact"
	"github.com/taibuivan/alumniportal/internal/guard"
	"github.com/taibuivan/alumniportal/internal/moderation"
	"github.com/taibuivan/alumniportal/internal/platform/apperr"
	"github.com/taibuivan/alumniportal/internal/platform/view"
	"github.com/taibuivan/alumniportal/internal/portal"
	"github.com/taibuivan/alumniportal/internal/session"
)

const cookieName = "alumni_sid"

// # Contact Inbox Fake

type memoryInbox struct {
	mu       sync.Mutex
	messages []*contact.Message
}

func (m *memoryInbox) Create(_ context.Context, message *contact.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *memoryInbox) List(_ context.Context, filter contact.Filter) ([]*contact.Message, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*contact.Message
	for _, message := range m.messages {
		if !filter.UnreadOnly || !message.IsRead {
			matched = append(matched, message)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := min(filter.Offset+filter.Limit, total)
	return matched[filter.Offset:end], total, nil
}

func (m *memoryInbox) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, message := range m.messages {
		if message.ID == id {
			message.IsRead = true
			return nil
		}
	}
	return apperr.NotFound("Contact message")
}

func (m *memoryInbox) Ping(context.Context) error { return nil }

func (m *memoryInbox) all() []contact.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]contact.Message, 0, len(m.messages))
	for _, message := range m.messages {
		out = append(out, *message)
	}
	return out
}

// # Harness

type harness struct {
	t       *testing.T
	backend *backendtest.Server
	client  *backend.Client
	slots   *session.MemorySlots
	inbox   *memoryInbox
	server  *httptest.Server
}

func newHarness(t *testing.T, configure ...func(*portal.Dependencies)) *harness {
	t.Helper()

	fake := backendtest.New(t)
	client, err := backend.New(backend.Options{BaseURL: fake.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	client.OnUnauthorized(portal.SessionExpired())

	slots := session.NewMemorySlots()
	registry := session.NewRegistry(client, slots, session.RegistryOptions{
		CredentialTTL: time.Hour,
		IdleTTL:       time.Hour,
	})

	views, err := view.New()
	require.NoError(t, err)

	inbox := &memoryInbox{}
	deps := portal.Dependencies{
		Views:      views,
		Client:     client,
		Contact:    contact.NewService(inbox),
		Moderation: moderation.New(nil),
		Guard:      &guard.Guard{MaxWait: 2 * time.Second, Waiting: views.Waiting()},
	}
	for _, apply := range configure {
		apply(&deps)
	}

	router := chi.NewRouter()
	router.Use(session.Middleware(registry, session.CookieOptions{Name: cookieName, MaxAge: time.Hour}, 0))
	router.Mount("/", portal.NewHandler(deps).Routes())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &harness{t: t, backend: fake, client: client, slots: slots, inbox: inbox, server: server}
}

// # Browser

// browser is one visitor with its own cookie jar. Redirects are not followed.
type browser struct {
	h      *harness
	jar    *cookiejar.Jar
	client *http.Client
}

func (h *harness) browser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(h.t, err)
	return &browser{
		h:   h,
		jar: jar,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	status   int
	location string
	body     string
}

func (b *browser) do(request *http.Request) page {
	b.h.t.Helper()
	response, err := b.client.Do(request)
	require.NoError(b.h.t, err)
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(b.h.t, err)
	return page{status: response.StatusCode, location: response.Header.Get("Location"), body: string(body)}
}

func (b *browser) get(path string) page {
	b.h.t.Helper()
	request, err := http.NewRequest(http.MethodGet, b.h.server.URL+path, nil)
	require.NoError(b.h.t, err)
	return b.do(request)
}

func (b *browser) post(path string, form url.Values) page {
	b.h.t.Helper()
	request, err := http.NewRequest(http.MethodPost, b.h.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.h.t, err)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(request)
}

// login signs in and fails the test unless the portal redirects.
func (b *browser) login(email, password string) {
	b.h.t.Helper()
	result := b.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.h.t, http.StatusSeeOther, result.status, result.body)
}

// visitorID returns the visitor cookie value.
func (b *browser) visitorID() string {
	target, _ := url.Parse(b.h.server.URL)
	for _, cookie := range b.jar.Cookies(target) {
		if cookie.Name == cookieName {
			return cookie.Value
		}
	}
	return ""
}

// credential returns the persisted credential of this visitor.
func (b *browser) credential() string {
	return b.h.slots.Peek(b.visitorID())
}

// # Backend Seeding

type staticToken string

func (s staticToken) Token() string               { return string(s) }
func (s staticToken) Invalidate(context.Context) {}

// seedProfile creates a profile for an existing account through the API.
func (h *harness) seedProfile(userID int, input backend.ProfileInput) {
	h.t.Helper()
	caller := h.client.As(staticToken(h.backend.Token(userID)))
	_, err := caller.CreateProfile(context.Background(), input)
	require.NoError(h.t, err)
}
