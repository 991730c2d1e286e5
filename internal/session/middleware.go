// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/alumniportal/internal/platform/ctxkey"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

// visitorIDBytes is the entropy of a visitor cookie.
const visitorIDBytes = 32

// CookieOptions configures the visitor cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// WithStore returns a context carrying the visitor's store.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, store)
}

// FromContext returns the visitor's store, or nil outside the session middleware.
func FromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(ctxkey.KeySession).(*Store)
	return store
}

// Middleware resolves the visitor's store into the request context, issuing
// the visitor cookie on first sight. An authenticated identity older than
// refreshAfter is re-fetched before the request proceeds.
func Middleware(registry *Registry, cookie CookieOptions, refreshAfter time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			logger := ctxutil.GetLogger(ctx)

			visitorID := readVisitorID(request, cookie.Name)
			if visitorID == "" {
				generated, err := sec.GenerateSecureToken(visitorIDBytes)
				if err != nil {
					logger.ErrorContext(ctx, "session_visitor_id_failed", slog.Any("error", err))
					http.Error(writer, "An unexpected error occurred.", http.StatusInternalServerError)
					return
				}
				visitorID = generated
			}

			// Sliding expiry: the cookie is re-issued on every request.
			http.SetCookie(writer, &http.Cookie{
				Name:     cookie.Name,
				Value:    visitorID,
				Path:     "/",
				MaxAge:   int(cookie.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx = ctxutil.WithVisitorID(ctx, visitorID)
			store := registry.Get(ctx, visitorID)
			ctx = WithStore(ctx, store)

			if store.Stale(refreshAfter) {
				if err := store.Refresh(ctx); err != nil {
					logger.WarnContext(ctx, "session_refresh_failed", slog.Any("error", err))
				}
			}

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// readVisitorID returns the cookie value if it looks like an id we issued.
func readVisitorID(request *http.Request, name string) string {
	cookie, err := request.Cookie(name)
	if err != nil {
		return ""
	}

	value := cookie.Value
	if len(value) < 32 || len(value) > 128 {
		return ""
	}
	for _, char := range value {
		isAlnum := (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')
		if !isAlnum && char != '-' && char != '_' {
			return ""
		}
	}
	return value
}
