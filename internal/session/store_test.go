// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/backend/backendtest"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
	"github.com/taibuivan/alumniportal/internal/session"
)

const visitor = "visitor-0123456789abcdef0123456789abcdef"

type fixture struct {
	fake   *backendtest.Server
	client *backend.Client
	slots  *session.MemorySlots
	alice  backend.User
	admin  backend.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fake := backendtest.New(t)
	client, err := backend.New(backend.Options{BaseURL: fake.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	return &fixture{
		fake:   fake,
		client: client,
		slots:  session.NewMemorySlots(),
		alice:  fake.AddUser("a@x.com", "secret", "Alice", sec.RoleAlumni),
		admin:  fake.AddUser("admin@x.com", "admin-pw", "Admin", sec.RoleAdmin),
	}
}

func (f *fixture) store() *session.Store {
	return session.NewStore(f.client, f.slots.For(visitor), session.StoreOptions{CredentialTTL: time.Hour})
}

// started returns a store that has settled with an empty slot.
func (f *fixture) started(t *testing.T) *session.Store {
	t.Helper()
	store := f.store()
	store.Start(context.Background())
	require.Equal(t, session.StateUnauthenticated, store.Snapshot().State)
	return store
}

/*
TestStart_NoCredential settles immediately as unauthenticated.
*/
func TestStart_NoCredential(t *testing.T) {
	f := newFixture(t)
	store := f.store()

	assert.True(t, store.Snapshot().Loading)

	store.Start(context.Background())

	select {
	case <-store.Ready():
	default:
		t.Fatal("ready channel not closed")
	}

	snapshot := store.Snapshot()
	assert.False(t, snapshot.Loading)
	assert.False(t, snapshot.Authenticated())
	assert.False(t, snapshot.HasCredential)
	assert.Zero(t, f.fake.Calls(http.MethodGet, "/api/auth/me"))
}

/*
TestStart_RestoresPersistedCredential resumes a session from the slot.
*/
func TestStart_RestoresPersistedCredential(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.slots.For(visitor).Save(context.Background(), f.fake.Token(f.alice.ID), time.Hour))

	store := f.store()
	store.Start(context.Background())

	snapshot := store.Snapshot()
	assert.Equal(t, session.StateAuthenticated, snapshot.State)
	require.NotNil(t, snapshot.Identity)
	assert.Equal(t, "a@x.com", snapshot.Identity.Email)
	assert.False(t, snapshot.Loading)
}

/*
TestStart_RejectedCredential clears a stored credential the backend refuses.
*/
func TestStart_RejectedCredential(t *testing.T) {
	f := newFixture(t)
	token := f.fake.Token(f.alice.ID)
	f.fake.Revoke(token)
	require.NoError(t, f.slots.For(visitor).Save(context.Background(), token, time.Hour))

	store := f.store()
	store.Start(context.Background())

	snapshot := store.Snapshot()
	assert.Equal(t, session.StateUnauthenticated, snapshot.State)
	assert.Nil(t, snapshot.Identity)
	assert.False(t, snapshot.Loading)
	assert.False(t, snapshot.HasCredential)
	assert.Empty(t, f.slots.Peek(visitor))
}

/*
TestStart_TransportFailure also clears the slot; startup is never retried.
*/
func TestStart_TransportFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.slots.For(visitor).Save(context.Background(), f.fake.Token(f.alice.ID), time.Hour))
	f.fake.Fail(http.MethodGet, "/api/auth/me", http.StatusServiceUnavailable, "down")

	store := f.store()
	store.Start(context.Background())
	store.Start(context.Background())

	assert.Equal(t, session.StateUnauthenticated, store.Snapshot().State)
	assert.Empty(t, f.slots.Peek(visitor))
	assert.Equal(t, 1, f.fake.Calls(http.MethodGet, "/api/auth/me"))
}

/*
TestLogin establishes identity and persists the credential.
*/
func TestLogin(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)

	identity, err := store.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", identity.Email)

	snapshot := store.Snapshot()
	assert.Equal(t, session.StateAuthenticated, snapshot.State)
	assert.True(t, snapshot.HasCredential)
	assert.Equal(t, store.Token(), f.slots.Peek(visitor))
}

/*
TestLogin_Failures leaves the store unauthenticated with an empty slot.
*/
func TestLogin_Failures(t *testing.T) {
	t.Run("wrong_password", func(t *testing.T) {
		f := newFixture(t)
		store := f.started(t)

		_, err := store.Login(context.Background(), "a@x.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, backend.StatusOf(err))

		assert.Equal(t, session.StateUnauthenticated, store.Snapshot().State)
		assert.Empty(t, store.Token())
		assert.Empty(t, f.slots.Peek(visitor))
	})

	t.Run("identity_fetch_fails", func(t *testing.T) {
		f := newFixture(t)
		store := f.started(t)
		f.fake.Fail(http.MethodGet, "/api/auth/me", http.StatusInternalServerError, "boom")

		_, err := store.Login(context.Background(), "a@x.com", "secret")
		require.Error(t, err)

		snapshot := store.Snapshot()
		assert.Equal(t, session.StateUnauthenticated, snapshot.State)
		assert.False(t, snapshot.HasCredential)
		assert.Empty(t, f.slots.Peek(visitor))
	})
}

/*
TestLogin_LastSuccessWins keeps exactly one credential across repeated logins.
*/
func TestLogin_LastSuccessWins(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	first := store.Token()

	identity, err := store.Login(ctx, "admin@x.com", "admin-pw")
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", identity.Email)

	assert.NotEqual(t, first, store.Token())
	assert.Equal(t, store.Token(), f.slots.Peek(visitor))
	assert.True(t, store.Snapshot().IsAdmin())
}

/*
TestLogin_Concurrent serialises logins: the store ends with a single
credential that matches its identity.
*/
func TestLogin_Concurrent(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)

	var wg sync.WaitGroup
	for _, creds := range [][2]string{{"a@x.com", "secret"}, {"admin@x.com", "admin-pw"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Login(context.Background(), creds[0], creds[1])
		}()
	}
	wg.Wait()

	snapshot := store.Snapshot()
	require.NotNil(t, snapshot.Identity)

	me, err := f.client.As(store).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot.Identity.Email, me.Email)
	assert.Equal(t, store.Token(), f.slots.Peek(visitor))
}

/*
TestLogout clears identity, credential and slot, and is idempotent.
*/
func TestLogout(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	store.SetValue("board", 1)

	store.Logout(ctx)
	store.Logout(ctx)

	snapshot := store.Snapshot()
	assert.Equal(t, session.StateUnauthenticated, snapshot.State)
	assert.Nil(t, snapshot.Identity)
	assert.False(t, snapshot.HasCredential)
	assert.Empty(t, f.slots.Peek(visitor))

	_, found := store.Value("board")
	assert.False(t, found)
}

/*
TestRegister creates the account then signs in.
*/
func TestRegister(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)

	identity, err := store.Register(context.Background(), "new@x.com", "pw123456", "Newcomer")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", identity.Email)
	assert.Equal(t, sec.RoleAlumni, identity.Role)
	assert.Equal(t, session.StateAuthenticated, store.Snapshot().State)
}

/*
TestRegister_Failure stores no credential when the account cannot be created.
*/
func TestRegister_Failure(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)

	_, err := store.Register(context.Background(), "a@x.com", "whatever", "Duplicate")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, backend.StatusOf(err))

	assert.False(t, store.Snapshot().HasCredential)
	assert.Empty(t, f.slots.Peek(visitor))
	assert.Zero(t, f.fake.Calls(http.MethodPost, "/api/auth/login"))
}

/*
TestRegister_LoginFails keeps the new account but stores no credential when
the sign-in that follows registration fails.
*/
func TestRegister_LoginFails(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)
	ctx := context.Background()

	f.fake.Fail(http.MethodPost, "/api/auth/login", http.StatusInternalServerError, "login unavailable")

	_, err := store.Register(ctx, "new@x.com", "pw123456", "Newcomer")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, backend.StatusOf(err))

	snapshot := store.Snapshot()
	assert.Equal(t, session.StateUnauthenticated, snapshot.State)
	assert.False(t, snapshot.HasCredential)
	assert.Nil(t, snapshot.Identity)
	assert.Empty(t, f.slots.Peek(visitor))
	assert.Equal(t, 1, f.fake.Calls(http.MethodPost, "/api/auth/register"))

	// The account was created, so signing in afterwards works.
	identity, err := store.Login(ctx, "new@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", identity.Email)
}

/*
TestRegister_IdentityFails clears the saved credential when the identity
fetch after registration fails.
*/
func TestRegister_IdentityFails(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)

	f.fake.Fail(http.MethodGet, "/api/auth/me", http.StatusInternalServerError, "boom")

	_, err := store.Register(context.Background(), "new@x.com", "pw123456", "Newcomer")
	require.Error(t, err)

	assert.False(t, store.Snapshot().HasCredential)
	assert.Empty(t, f.slots.Peek(visitor))
	assert.Empty(t, store.Token())
}

/*
TestInvalidate_On401 ends the session when any call is rejected.
*/
func TestInvalidate_On401(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)

	f.fake.Revoke(store.Token())
	_, err = store.Backend().MyPosts(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnauthorized))

	snapshot := store.Snapshot()
	assert.Equal(t, session.StateUnauthenticated, snapshot.State)
	assert.Nil(t, snapshot.Identity)
	assert.Empty(t, f.slots.Peek(visitor))
}

/*
TestRefresh picks up role changes made on the backend.
*/
func TestRefresh(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)
	ctx := context.Background()

	_, err := store.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.False(t, store.Snapshot().IsAdmin())

	f.fake.SetRole(f.alice.ID, sec.RoleAdmin)
	require.NoError(t, store.Refresh(ctx))
	assert.True(t, store.Snapshot().IsAdmin())
}

/*
TestRefresh_FailureWaitsForNextWindow keeps the identity on a backend error
and does not ask again until the refresh window has passed.
*/
func TestRefresh_FailureWaitsForNextWindow(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	store := session.NewStore(f.client, f.slots.For(visitor), session.StoreOptions{
		CredentialTTL: time.Hour,
		Now:           func() time.Time { return now },
	})
	store.Start(context.Background())
	ctx := context.Background()

	_, err := store.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	require.Equal(t, 1, f.fake.Calls(http.MethodGet, "/api/auth/me"))

	now = now.Add(2 * time.Minute)
	require.True(t, store.Stale(time.Minute))

	f.fake.Fail(http.MethodGet, "/api/auth/me", http.StatusInternalServerError, "boom")
	require.Error(t, store.Refresh(ctx))
	assert.Equal(t, 2, f.fake.Calls(http.MethodGet, "/api/auth/me"))

	snapshot := store.Snapshot()
	assert.Equal(t, session.StateAuthenticated, snapshot.State)
	require.NotNil(t, snapshot.Identity)
	assert.Equal(t, "a@x.com", snapshot.Identity.Email)
	assert.False(t, store.Stale(time.Minute))

	now = now.Add(2 * time.Minute)
	assert.True(t, store.Stale(time.Minute))
}

/*
TestFlashes are delivered once.
*/
func TestFlashes(t *testing.T) {
	f := newFixture(t)
	store := f.started(t)

	store.AddFlash(session.FlashSuccess, "Saved")
	assert.Equal(t, []session.Flash{{Kind: session.FlashSuccess, Message: "Saved"}}, store.TakeFlashes())
	assert.Empty(t, store.TakeFlashes())
}
