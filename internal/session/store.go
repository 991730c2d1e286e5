// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

// ErrSuperseded is returned by a login that completed after the session was
// ended (logout or rejected credential) while it was in flight.
var ErrSuperseded = errors.New("session: login superseded")

// StoreOptions configures a [Store].
type StoreOptions struct {
	// CredentialTTL is the persisted lifetime of credentials without an exp claim.
	CredentialTTL time.Duration
	Observer      Observer
	Now           func() time.Time
}

// Store is the session of one visitor. It implements [backend.Credentials].
type Store struct {
	client   *backend.Client
	slot     CredentialSlot
	ttl      time.Duration
	observer Observer
	now      func() time.Time

	// authMu serialises Login so at most one credential is ever held.
	authMu sync.Mutex

	mu          sync.RWMutex
	state       State
	token       string
	identity    *backend.User
	generation  uint64
	refreshedAt time.Time
	values      map[string]any
	flashes     []Flash

	startOnce sync.Once
	ready     chan struct{}
}

// NewStore creates a store in the Initializing state. Call [Store.Start].
func NewStore(client *backend.Client, slot CredentialSlot, options StoreOptions) *Store {
	if options.Observer == nil {
		options.Observer = nopObserver{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Store{
		client:   client,
		slot:     slot,
		ttl:      options.CredentialTTL,
		observer: options.Observer,
		now:      options.Now,
		state:    StateInitializing,
		values:   make(map[string]any),
		ready:    make(chan struct{}),
	}
}

// # Credentials

// Token returns the bearer credential, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Invalidate discards the credential after the backend rejected it (HTTP 401).
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	hadCredential := s.token != ""
	s.endLocked()
	s.mu.Unlock()

	s.clearSlot(ctx)

	if hadCredential {
		s.observer.ObserveSession(EventInvalidated)
		ctxutil.GetLogger(ctx).InfoContext(ctx, "session_invalidated")
	}
}

// Backend returns a backend caller bound to this session's credential.
func (s *Store) Backend() *backend.Caller {
	return s.client.As(s)
}

// # Startup

// Ready is closed once the startup protocol has settled.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Start runs the one-shot startup protocol. Later calls are no-ops.
//
// Without a persisted credential the store settles as Unauthenticated. With
// one, the identity is fetched; any failure clears the slot. There is no retry.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		defer close(s.ready)
		s.restore(ctx)
	})
}

func (s *Store) restore(ctx context.Context) {
	logger := ctxutil.GetLogger(ctx)

	token, err := s.slot.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "session_slot_load_failed", slog.Any("error", err))
	}

	s.mu.Lock()
	if token == "" || s.state != StateInitializing {
		if s.state == StateInitializing {
			s.state = StateUnauthenticated
		}
		s.mu.Unlock()
		return
	}
	s.token = token
	generation := s.generation
	s.mu.Unlock()

	identity, err := s.Backend().Me(ctx)

	s.mu.Lock()
	if s.generation != generation {
		// Ended (or replaced by a login) while validating.
		if s.state == StateInitializing {
			s.state = StateUnauthenticated
		}
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.token = ""
		s.identity = nil
		s.state = StateUnauthenticated
		s.mu.Unlock()

		s.clearSlot(ctx)
		s.observer.ObserveSession(EventRestoreFailed)
		logger.InfoContext(ctx, "session_restore_failed", slog.Any("error", err))
		return
	}
	s.identity = identity
	s.refreshedAt = s.now()
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.observer.ObserveSession(EventRestored)
	logger.InfoContext(ctx, "session_restored", slog.Int("user_id", identity.ID))
}

// # Authentication

// Login authenticates with the backend and establishes the session.
//
// On success the credential is held in memory and persisted, then the identity
// is fetched. Any failure, including the identity fetch, leaves the store
// Unauthenticated with an empty slot.
func (s *Store) Login(ctx context.Context, email, password string) (*backend.User, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	logger := ctxutil.GetLogger(ctx)

	// A new generation also fences a startup validation still in flight.
	s.mu.Lock()
	s.generation++
	s.state = StateAuthenticating
	generation := s.generation
	s.mu.Unlock()

	response, err := s.client.Anonymous().Login(ctx, backend.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, s.failLogin(ctx, generation, err)
	}

	// Hold and persist the credential before fetching the identity.
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	s.token = response.AccessToken
	s.mu.Unlock()

	ttl := sec.CredentialTTL(response.AccessToken, s.ttl, s.now())
	if err := s.slot.Save(ctx, response.AccessToken, ttl); err != nil {
		return nil, s.failLogin(ctx, generation, err)
	}

	identity, err := s.Backend().Me(ctx)
	if err != nil {
		return nil, s.failLogin(ctx, generation, fmt.Errorf("session: fetch identity: %w", err))
	}

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		s.clearSlot(ctx)
		return nil, ErrSuperseded
	}
	s.identity = identity
	s.refreshedAt = s.now()
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.observer.ObserveSession(EventLogin)
	logger.InfoContext(ctx, "session_login", slog.Int("user_id", identity.ID), slog.String("role", string(identity.Role)))

	return identity, nil
}

// failLogin resets the store after a failed login attempt and returns err.
func (s *Store) failLogin(ctx context.Context, generation uint64, err error) error {
	s.mu.Lock()
	if s.generation == generation {
		s.token = ""
		s.identity = nil
		s.state = StateUnauthenticated
	}
	s.mu.Unlock()

	s.clearSlot(ctx)
	s.observer.ObserveSession(EventLoginFailed)
	ctxutil.GetLogger(ctx).InfoContext(ctx, "session_login_failed", slog.Any("error", err))

	return err
}

// Register creates an account and then logs in with the same credentials.
// A failure in either step fails the call without storing a credential.
func (s *Store) Register(ctx context.Context, email, password, fullName string) (*backend.User, error) {
	_, err := s.client.Anonymous().Register(ctx, backend.Registration{
		Email:    email,
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		ctxutil.GetLogger(ctx).InfoContext(ctx, "session_register_failed", slog.Any("error", err))
		return nil, err
	}

	s.observer.ObserveSession(EventRegistered)
	return s.Login(ctx, email, password)
}

// Logout ends the session locally. The backend is not called. Idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	hadIdentity := s.identity != nil
	s.endLocked()
	s.mu.Unlock()

	s.clearSlot(ctx)

	if hadIdentity {
		s.observer.ObserveSession(EventLogout)
		ctxutil.GetLogger(ctx).InfoContext(ctx, "session_logout")
	}
}

// endLocked drops credential, identity and page state and fences in-flight logins.
func (s *Store) endLocked() {
	s.generation++
	s.token = ""
	s.identity = nil
	s.values = make(map[string]any)
	if s.state != StateInitializing {
		s.state = StateUnauthenticated
	}
}

func (s *Store) clearSlot(ctx context.Context) {
	if err := s.slot.Clear(ctx); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_slot_clear_failed", slog.Any("error", err))
	}
}

// # Identity

// Snapshot returns the current session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{
		State:         s.state,
		HasCredential: s.token != "",
		Loading:       s.state == StateInitializing,
	}
	if s.identity != nil {
		identity := *s.identity
		snapshot.Identity = &identity
	}
	return snapshot
}

// Stale reports whether the cached identity is older than maxAge.
func (s *Store) Stale(maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && maxAge > 0 && s.now().Sub(s.refreshedAt) > maxAge
}

// Refresh re-fetches the identity of an authenticated session so role or
// activation changes take effect. A 401 ends the session through Invalidate.
// Any other failure keeps the cached identity until the next refresh window.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	authenticated := s.state == StateAuthenticated
	generation := s.generation
	s.mu.RUnlock()

	if !authenticated {
		return nil
	}

	identity, err := s.Backend().Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation || s.state != StateAuthenticated {
		return err
	}
	s.refreshedAt = s.now()
	if err != nil {
		return err
	}
	s.identity = identity
	return nil
}
