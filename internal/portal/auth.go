// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package portal

import (
	"errors"
	"net/http"

	"github.com/taibuivan/alumniportal/internal/platform/constants"
	requestutil "github.com/taibuivan/alumniportal/internal/platform/request"
	"github.com/taibuivan/alumniportal/internal/platform/validate"
	"github.com/taibuivan/alumniportal/internal/session"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72
	maxFullNameLength = 100
)

type loginPage struct {
	Next string
}

// loginForm handles GET /login.
func (h *Handler) loginForm(writer http.ResponseWriter, request *http.Request) {
	page := h.page(request, "Sign in")
	page.Data = loginPage{Next: request.URL.Query().Get(constants.QueryNext)}
	h.render(writer, request, http.StatusOK, "login", page)
}

// login handles POST /login.
func (h *Handler) login(writer http.ResponseWriter, request *http.Request) {
	if h.throttled(writer, request, constants.PathLogin) {
		return
	}
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, constants.PathLogin)
		return
	}

	email := requestutil.Field(request, "email")
	password := requestutil.Secret(request, "password")

	validator := &validate.Validator{}
	validator.Required("email", email).Email("email", email)
	validator.Required("password", password)

	if validator.HasErrors() {
		h.rerenderLogin(writer, request, email, http.StatusUnprocessableEntity, validator.Fields(), "")
		return
	}

	identity, err := store(request).Login(request.Context(), email, password)
	if errors.Is(err, session.ErrSuperseded) {
		redirect(writer, request, constants.PathLogin)
		return
	}
	if err != nil {
		appErr := toAppError(err)
		logFailure(request, "login_rejected", appErr, err)
		h.rerenderLogin(writer, request, email, appErr.HTTPStatus, nil, appErr.Message)
		return
	}

	flash(request, session.FlashSuccess, "Welcome back, "+identity.FullName+"!")
	redirect(writer, request, requestutil.NextPath(request))
}

func (h *Handler) rerenderLogin(writer http.ResponseWriter, request *http.Request, email string, status int, fields map[string]string, message string) {
	page := h.page(request, "Sign in")
	page.Form = map[string]string{"email": email}
	page.Errors = fields
	page.Data = loginPage{Next: request.PostFormValue(constants.QueryNext)}
	if message != "" {
		page.Flashes = append(page.Flashes, session.Flash{Kind: session.FlashError, Message: message})
	}
	h.render(writer, request, status, "login", page)
}

// registerForm handles GET /register.
func (h *Handler) registerForm(writer http.ResponseWriter, request *http.Request) {
	h.render(writer, request, http.StatusOK, "register", h.page(request, "Register"))
}

// register handles POST /register. The account is created and then signed in.
func (h *Handler) register(writer http.ResponseWriter, request *http.Request) {
	if h.throttled(writer, request, "/register") {
		return
	}
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, "/register")
		return
	}

	fullName := requestutil.Field(request, "full_name")
	email := requestutil.Field(request, "email")
	password := requestutil.Secret(request, "password")
	confirmation := requestutil.Secret(request, "confirm_password")

	validator := &validate.Validator{}
	validator.Required("full_name", fullName).MaxLen("full_name", fullName, maxFullNameLength)
	validator.Required("email", email).Email("email", email)
	validator.Required("password", password).
		MinLen("password", password, minPasswordLength).
		MaxLen("password", password, maxPasswordLength)
	validator.Custom("confirm_password", password != confirmation, "Passwords do not match")

	form := map[string]string{"full_name": fullName, "email": email}

	if validator.HasErrors() {
		page := h.page(request, "Register")
		page.Form = form
		page.Errors = validator.Fields()
		h.render(writer, request, http.StatusUnprocessableEntity, "register", page)
		return
	}

	identity, err := store(request).Register(request.Context(), email, password, fullName)
	if errors.Is(err, session.ErrSuperseded) {
		redirect(writer, request, constants.PathLogin)
		return
	}
	if err != nil {
		appErr := toAppError(err)
		logFailure(request, "register_rejected", appErr, err)

		page := h.page(request, "Register")
		page.Form = form
		page.Flashes = append(page.Flashes, session.Flash{Kind: session.FlashError, Message: appErr.Message})
		h.render(writer, request, appErr.HTTPStatus, "register", page)
		return
	}

	flash(request, session.FlashSuccess, "Welcome, "+identity.FullName+"! Your account is ready.")
	redirect(writer, request, constants.PathHome)
}

// logout handles POST /logout. It never calls the backend.
func (h *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	store(request).Logout(request.Context())
	flash(request, session.FlashInfo, "You have been signed out.")
	redirect(writer, request, constants.PathLogin)
}
