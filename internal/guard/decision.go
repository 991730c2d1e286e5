// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard gates protected pages on the visitor's session.

Decisions are pure functions of a [session.Snapshot] and are recomputed on
every request, so a logout or a role change takes effect on the next page
load. The HTTP middleware only translates a decision into a response.
*/
package guard

import "github.com/taibuivan/alumniportal/internal/session"

// Decision is the outcome of evaluating a guard.
type Decision int

const (
	// Wait means the session is still validating its stored credential.
	Wait Decision = iota
	// RedirectLogin sends the visitor to the unauthenticated entry view.
	RedirectLogin
	// RedirectHome sends the visitor to the default authenticated view.
	RedirectHome
	// Render lets the protected page render.
	Render
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Rule decides whether a page may render for a snapshot.
type Rule func(session.Snapshot) Decision

// Authenticated renders for any resolved identity.
func Authenticated(snapshot session.Snapshot) Decision {
	switch {
	case snapshot.Loading:
		return Wait
	case snapshot.Identity == nil:
		return RedirectLogin
	default:
		return Render
	}
}

// Admin renders only for a resolved identity with the admin role.
func Admin(snapshot session.Snapshot) Decision {
	if decision := Authenticated(snapshot); decision != Render {
		return decision
	}
	if !snapshot.IsAdmin() {
		return RedirectHome
	}
	return Render
}

// Guest renders only while nobody is signed in (login and register pages).
func Guest(snapshot session.Snapshot) Decision {
	switch {
	case snapshot.Loading:
		return Wait
	case snapshot.Identity != nil:
		return RedirectHome
	default:
		return Render
	}
}
