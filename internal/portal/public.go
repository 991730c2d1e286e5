// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package portal

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/contact"
	"github.com/taibuivan/alumniportal/internal/platform/apperr"
	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
	"github.com/taibuivan/alumniportal/internal/platform/middleware"
	requestutil "github.com/taibuivan/alumniportal/internal/platform/request"
	"github.com/taibuivan/alumniportal/internal/platform/validate"
	"github.com/taibuivan/alumniportal/internal/session"
)

// landingPostLimit is how many approved posts the landing page shows.
const landingPostLimit = 6

type landingPage struct {
	Posts []backend.Post
}

// landing handles GET /.
// The feed is decorative; a backend failure still renders the page.
func (h *Handler) landing(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	posts, err := h.client.Anonymous().Posts(ctx, backend.PostFilter{Limit: landingPostLimit})
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "landing_posts_failed", slog.Any("error", err))
		posts = nil
	}

	page := h.page(request, "Welcome")
	page.Data = landingPage{Posts: posts}
	h.render(writer, request, http.StatusOK, "landing", page)
}

// about handles GET /about.
func (h *Handler) about(writer http.ResponseWriter, request *http.Request) {
	h.render(writer, request, http.StatusOK, "about", h.page(request, "About Us"))
}

// # Contact

// contactForm handles GET /contact.
func (h *Handler) contactForm(writer http.ResponseWriter, request *http.Request) {
	page := h.page(request, "Contact Us")
	if page.User != nil {
		page.Form = map[string]string{"name": page.User.FullName, "email": page.User.Email}
	}
	h.render(writer, request, http.StatusOK, "contact", page)
}

// contactSubmit handles POST /contact.
func (h *Handler) contactSubmit(writer http.ResponseWriter, request *http.Request) {
	if h.throttled(writer, request, "/contact") {
		return
	}
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, "/contact")
		return
	}

	submission := contact.Submission{
		Name:    requestutil.Field(request, "name"),
		Email:   requestutil.Field(request, "email"),
		Subject: requestutil.Field(request, "subject"),
		Message: requestutil.Field(request, "message"),
	}

	_, err := h.contact.Submit(request.Context(), submission, middleware.RealIP(request))
	if err != nil {
		if fields := validationFields(err); fields != nil {
			page := h.page(request, "Contact Us")
			page.Form = map[string]string{
				"name":    submission.Name,
				"email":   submission.Email,
				"subject": submission.Subject,
				"message": submission.Message,
			}
			page.Errors = fields
			h.render(writer, request, http.StatusUnprocessableEntity, "contact", page)
			return
		}
		h.actionFailed(writer, request, err, "/contact")
		return
	}

	flash(request, session.FlashSuccess, "Thank you for your message! We'll get back to you soon.")
	redirect(writer, request, "/contact")
}

// # Newsletter

// subscribe handles POST /newsletter/subscribe.
func (h *Handler) subscribe(writer http.ResponseWriter, request *http.Request) {
	if h.throttled(writer, request, constants.PathLanding) {
		return
	}
	email, ok := h.newsletterEmail(writer, request)
	if !ok {
		return
	}

	result, err := h.client.Anonymous().Subscribe(request.Context(), email)
	if err != nil {
		h.actionFailed(writer, request, err, constants.PathLanding)
		return
	}

	kind := session.FlashSuccess
	if !result.Subscribed {
		kind = session.FlashInfo
	}
	flash(request, kind, result.Message)
	redirect(writer, request, constants.PathLanding)
}

// unsubscribe handles POST /newsletter/unsubscribe.
func (h *Handler) unsubscribe(writer http.ResponseWriter, request *http.Request) {
	if h.throttled(writer, request, constants.PathLanding) {
		return
	}
	email, ok := h.newsletterEmail(writer, request)
	if !ok {
		return
	}

	message, err := h.client.Anonymous().Unsubscribe(request.Context(), email)
	if err != nil {
		h.actionFailed(writer, request, err, constants.PathLanding)
		return
	}

	flash(request, session.FlashSuccess, message)
	redirect(writer, request, constants.PathLanding)
}

// newsletterEmail reads and checks the email field, answering the request
// when it is unusable.
func (h *Handler) newsletterEmail(writer http.ResponseWriter, request *http.Request) (string, bool) {
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, constants.PathLanding)
		return "", false
	}

	email := requestutil.Field(request, "email")
	validator := &validate.Validator{}
	validator.Required("email", email).Email("email", email)
	if err := validator.Err(); err != nil {
		flash(request, session.FlashError, "Please enter a valid email address.")
		redirect(writer, request, constants.PathLanding)
		return "", false
	}
	return email, true
}

// validationFields extracts field messages from a validation failure, or nil.
func validationFields(err error) map[string]string {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || len(appErr.Details) == 0 {
		return nil
	}
	fields := make(map[string]string, len(appErr.Details))
	for _, detail := range appErr.Details {
		if _, seen := fields[detail.Field]; !seen {
			fields[detail.Field] = detail.Message
		}
	}
	return fields
}
