// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package portal implements the portal's pages.

Every handler reads the visitor's [session.Store] from the request context and
talks to the alumni API through it, so the visitor's credential is attached
without the handler ever seeing it. Access rules are applied by the route
guard when the routes are mounted; handlers do not re-check roles.

Route map:

	public      /  /about  /contact  /newsletter/{subscribe,unsubscribe}  /logout
	guest       /login  /register
	signed in   /dashboard/...
	admin       /dashboard/admin/...

State-changing requests are POST forms that answer with a 303 redirect
(post/redirect/get). Outcomes are reported through session flashes.
*/
package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/contact"
	"github.com/taibuivan/alumniportal/internal/guard"
	"github.com/taibuivan/alumniportal/internal/moderation"
	"github.com/taibuivan/alumniportal/internal/platform/apperr"
	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
	"github.com/taibuivan/alumniportal/internal/platform/middleware"
	"github.com/taibuivan/alumniportal/internal/platform/view"
	"github.com/taibuivan/alumniportal/internal/session"
)

// # Handler

// Dependencies are the collaborators of the page handlers.
type Dependencies struct {
	Views      *view.Renderer
	Client     *backend.Client
	Contact    *contact.Service
	Moderation *moderation.Workflow
	Guard      *guard.Guard

	// FormLimiter throttles credential, contact and newsletter submissions.
	// Optional.
	FormLimiter *middleware.RateLimiter
}

// Handler serves the portal pages.
type Handler struct {
	views       *view.Renderer
	client      *backend.Client
	contact     *contact.Service
	moderation  *moderation.Workflow
	guard       *guard.Guard
	formLimiter *middleware.RateLimiter
}

// NewHandler creates the page handlers.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		views:       deps.Views,
		client:      deps.Client,
		contact:     deps.Contact,
		moderation:  deps.Moderation,
		guard:       deps.Guard,
		formLimiter: deps.FormLimiter,
	}
}

// Routes returns the page router. It expects the session middleware upstream.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.landing)
	r.Get("/about", h.about)
	r.Get("/contact", h.contactForm)
	r.Post("/contact", h.contactSubmit)
	r.Post("/newsletter/subscribe", h.subscribe)
	r.Post("/newsletter/unsubscribe", h.unsubscribe)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireGuest)
		r.Get("/login", h.loginForm)
		r.Post("/login", h.login)
		r.Get("/register", h.registerForm)
		r.Post("/register", h.register)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(h.guard.RequireAuth)

		r.Get("/", h.home)
		r.Get("/alumni", h.alumni)
		r.Get("/alumni/{id}", h.alumniDetail)
		r.Get("/profile", h.profile)
		r.Post("/profile", h.saveProfile)
		r.Get("/posts", h.posts)
		r.Get("/posts/mine", h.myPosts)
		r.Get("/posts/new", h.newPost)
		r.Post("/posts/new", h.createPost)
		r.Get("/posts/{id}/delete", h.confirmDelete)
		r.Post("/posts/{id}/delete", h.deletePost)
		r.Get("/news", h.news)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.guard.RequireAdmin)

			r.Get("/", h.adminBoard)
			r.Post("/reload", h.reloadBoard)
			r.Post("/posts/{id}/approve", h.approve)
			r.Get("/posts/{id}/reject", h.confirmReject)
			r.Post("/posts/{id}/reject", h.reject)
			r.Post("/users/{id}/toggle", h.toggleUser)
			r.Get("/subscribers", h.subscribers)
			r.Get("/messages", h.messages)
			r.Post("/messages/{id}/read", h.markRead)
		})
	})

	r.NotFound(h.notFound)

	return r
}

// # Session Expiry

// SessionExpired is the unauthorized hook registered on the backend client.
// The client has already invalidated the credential; this only tells the
// visitor why they are being sent to the login page.
func SessionExpired() backend.UnauthorizedHook {
	return func(ctx context.Context, method, path string) {
		if visitor := session.FromContext(ctx); visitor != nil {
			visitor.AddFlash(session.FlashInfo, "Your session has expired. Please sign in again.")
		}
		ctxutil.GetLogger(ctx).InfoContext(ctx, "session_expired",
			slog.String("method", method),
			slog.String("path", path),
		)
	}
}

// # Page Helpers

// store returns the visitor's session. The session middleware guarantees one.
func store(request *http.Request) *session.Store {
	return session.FromContext(request.Context())
}

// page builds the template data common to every page and drains the flashes.
func (h *Handler) page(request *http.Request, title string) view.Page {
	page := view.Page{Title: title}
	if visitor := store(request); visitor != nil {
		page.User = visitor.Snapshot().Identity
		page.Flashes = visitor.TakeFlashes()
	}
	return page
}

func (h *Handler) render(writer http.ResponseWriter, request *http.Request, status int, name string, page view.Page) {
	h.views.Render(writer, request, status, name, page)
}

func flash(request *http.Request, kind, message string) {
	if visitor := store(request); visitor != nil {
		visitor.AddFlash(kind, message)
	}
}

func redirect(writer http.ResponseWriter, request *http.Request, target string) {
	http.Redirect(writer, request, target, http.StatusSeeOther)
}

// errorPage is the data of the error template.
type errorPage struct {
	Heading string
	Message string
}

func (h *Handler) notFound(writer http.ResponseWriter, request *http.Request) {
	page := h.page(request, "Not found")
	page.Data = errorPage{Heading: "Page not found", Message: "The page you are looking for does not exist."}
	h.render(writer, request, http.StatusNotFound, "error", page)
}

// # Error Responders

// loadFailed answers a page whose data could not be loaded.
func (h *Handler) loadFailed(writer http.ResponseWriter, request *http.Request, err error) {
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(writer, request, guard.LoginURL(request.URL))
		return
	}

	appErr := toAppError(err)
	logFailure(request, "page_load_failed", appErr, err)

	page := h.page(request, "Error")
	page.Data = errorPage{Heading: headingFor(appErr.HTTPStatus), Message: appErr.Message}
	h.render(writer, request, appErr.HTTPStatus, "error", page)
}

// actionFailed reports a failed form action as a flash and returns to target.
func (h *Handler) actionFailed(writer http.ResponseWriter, request *http.Request, err error, target string) {
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(writer, request, constants.PathLogin)
		return
	}

	appErr := toAppError(err)
	logFailure(request, "page_action_failed", appErr, err)

	flash(request, session.FlashError, appErr.Message)
	redirect(writer, request, target)
}

// toAppError maps any failure onto a visitor-presentable error.
func toAppError(err error) *apperr.AppError {
	var upstream *backend.Error
	switch {
	case errors.Is(err, moderation.ErrInFlight):
		return apperr.Conflict("This item is already being processed. Please wait a moment.")
	case errors.Is(err, moderation.ErrNotPermitted):
		return apperr.Forbidden("You can only delete your own posts.")
	case errors.Is(err, moderation.ErrNotConfirmed):
		return apperr.BadRequest("Please confirm this action.")
	case errors.As(err, &upstream):
		return upstream.AppError()
	}
	if appErr := apperr.As(err); appErr != nil {
		return appErr
	}
	return apperr.Internal(err)
}

func logFailure(request *http.Request, event string, appErr *apperr.AppError, err error) {
	ctx := request.Context()
	level := slog.LevelInfo
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	ctxutil.GetLogger(ctx).Log(ctx, level, event,
		slog.String("path", request.URL.Path),
		slog.String("code", appErr.Code),
		slog.Int("status", appErr.HTTPStatus),
		slog.Any("error", err),
	)
}

func headingFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Not found"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "Service unavailable"
	default:
		return "Something went wrong"
	}
}

// throttled reports whether a form submission exceeded the per-IP budget,
// answering the request if so.
func (h *Handler) throttled(writer http.ResponseWriter, request *http.Request, target string) bool {
	if h.formLimiter == nil || h.formLimiter.Allow(middleware.RealIP(request)) {
		return false
	}
	ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "form_rate_limited",
		slog.String("path", request.URL.Path),
	)
	flash(request, session.FlashError, "Too many attempts. Please wait a moment and try again.")
	redirect(writer, request, target)
	return true
}
