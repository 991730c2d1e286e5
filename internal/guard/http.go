// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
	"github.com/taibuivan/alumniportal/internal/session"
)

// Observer receives guard decisions.
type Observer interface {
	ObserveGuard(rule string, decision Decision)
}

// Guard turns rules into middleware.
type Guard struct {
	// MaxWait bounds how long a request blocks on a validating session
	// before the waiting page is served.
	MaxWait time.Duration
	// Waiting renders the neutral waiting page.
	Waiting http.Handler
	// Observer is optional.
	Observer Observer
}

// RequireAuth gates pages on [Authenticated].
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return g.Require("authenticated", Authenticated)(next)
}

// RequireAdmin gates pages on [Admin].
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.Require("admin", Admin)(next)
}

// RequireGuest gates pages on [Guest].
func (g *Guard) RequireGuest(next http.Handler) http.Handler {
	return g.Require("guest", Guest)(next)
}

// Require gates next on rule. next is invoked only for [Render].
func (g *Guard) Require(name string, rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			store := session.FromContext(request.Context())
			if store == nil {
				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "guard_without_session")
				http.Error(writer, "An unexpected error occurred.", http.StatusInternalServerError)
				return
			}

			g.await(request, store)
			decision := rule(store.Snapshot())
			if g.Observer != nil {
				g.Observer.ObserveGuard(name, decision)
			}

			switch decision {
			case Render:
				next.ServeHTTP(writer, request)
			case Wait:
				g.wait(writer, request)
			case RedirectLogin:
				http.Redirect(writer, request, LoginURL(request.URL), http.StatusSeeOther)
			case RedirectHome:
				ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "guard_redirect_home",
					slog.String("rule", name),
				)
				http.Redirect(writer, request, constants.PathHome, http.StatusSeeOther)
			}
		})
	}
}

// await blocks until the session has settled, MaxWait elapses, or the
// request is cancelled.
func (g *Guard) await(request *http.Request, store *session.Store) {
	select {
	case <-store.Ready():
		return
	default:
	}
	if g.MaxWait <= 0 {
		return
	}

	timer := time.NewTimer(g.MaxWait)
	defer timer.Stop()

	select {
	case <-store.Ready():
	case <-timer.C:
	case <-request.Context().Done():
	}
}

// wait serves the waiting page, which reloads the same URL.
func (g *Guard) wait(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set(constants.HeaderRefresh, strconv.Itoa(constants.WaitingRefreshSeconds))
	writer.Header().Set("Cache-Control", "no-store")
	if g.Waiting != nil {
		g.Waiting.ServeHTTP(writer, request)
		return
	}
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte("Loading..."))
}

// LoginURL returns the login page address that returns to target afterwards.
func LoginURL(target *url.URL) string {
	if target == nil || target.Path == "" || target.Path == constants.PathLogin {
		return constants.PathLogin
	}
	return constants.PathLogin + "?" + url.Values{constants.QueryNext: {target.RequestURI()}}.Encode()
}
