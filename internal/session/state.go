// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the authentication lifecycle of each portal visitor.

A [Store] holds the credential and cached identity of one visitor. It is the
only code that mutates them. The credential is persisted in a single-slot
[CredentialSlot] so that a returning visitor (or a restarted portal) resumes
the session after the identity has been re-validated against the backend.

Lifecycle:

	Initializing ──(no credential)──────────────▶ Unauthenticated
	Initializing ──(credential, identity ok)────▶ Authenticated
	Initializing ──(credential, identity fails)─▶ Unauthenticated  (slot cleared)
	Unauthenticated ──Login──▶ Authenticating ──ok──▶ Authenticated
	                                          └─fail─▶ Unauthenticated
	Authenticated ──Logout / 401──▶ Unauthenticated

The [Registry] maps visitor cookies to stores and evicts idle ones; the
[Middleware] resolves the store of each request into its context.
*/
package session

import "github.com/taibuivan/alumniportal/internal/backend"

// State is a node of the session lifecycle.
type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of a store at one instant.
type Snapshot struct {
	State         State
	Identity      *backend.User
	HasCredential bool
	// Loading is true only until the startup protocol has settled.
	Loading bool
}

// Authenticated reports whether an identity is present.
func (s Snapshot) Authenticated() bool {
	return s.Identity != nil
}

// IsAdmin reports whether the identity is present and carries the admin role.
func (s Snapshot) IsAdmin() bool {
	return s.Identity.IsAdmin()
}

// # Observation

// Session events reported to an [Observer].
const (
	EventRestored      = "restored"
	EventRestoreFailed = "restore_failed"
	EventLogin         = "login"
	EventLoginFailed   = "login_failed"
	EventRegistered    = "registered"
	EventLogout        = "logout"
	EventInvalidated   = "invalidated"
	EventEvicted       = "evicted"
)

// Observer receives session lifecycle events.
type Observer interface {
	ObserveSession(event string)
}

type nopObserver struct{}

func (nopObserver) ObserveSession(string) {}
