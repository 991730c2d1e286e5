// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and the form
decoding patterns of the portal pages, ensuring consistent error handling and
type safety.
*/
package requestutil

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/alumniportal/internal/platform/apperr"
	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/validate"
)

// maxFormBytes bounds urlencoded form bodies.
const maxFormBytes = 64 << 10

/*
ParseForm reads and parses a urlencoded form body.

Returns:
  - error: validate.ErrInvalidForm if the body is malformed or too large
*/
func ParseForm(writer http.ResponseWriter, request *http.Request) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxFormBytes)
	if err := request.ParseForm(); err != nil {
		return validate.ErrInvalidForm
	}
	return nil
}

/*
Field returns a normalized form value (trimmed, Unicode NFC).
*/
func Field(request *http.Request, name string) string {
	return validate.Normalize(request.PostFormValue(name))
}

/*
Secret returns a form value untouched. Passwords must not be normalized.
*/
func Secret(request *http.Request, name string) string {
	return request.PostFormValue(name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
IntParam parses a positive integer URL parameter such as a post or user id.

Returns:
  - int: the parsed identifier
  - error: apperr.NotFound if the parameter is not a positive integer
*/
func IntParam(request *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(request, name))
	if err != nil || value <= 0 {
		return 0, apperr.NotFound("Resource")
	}
	return value, nil
}

/*
Confirmed reports whether the form carries the explicit confirmation flag used
by destructive actions (reject, delete).
*/
func Confirmed(request *http.Request) bool {
	return request.PostFormValue("confirm") == "yes"
}

/*
NextPath returns the post-login destination carried in the "next" parameter.

Only local absolute paths are accepted so the login page cannot be used as an
open redirect; anything else falls back to the authenticated landing view.
*/
func NextPath(request *http.Request) string {
	next := request.FormValue(constants.QueryNext)
	if !localPath(next) {
		return constants.PathHome
	}
	return next
}

// localPath reports whether path stays on this host once a browser has
// normalized it. Browsers drop tabs and newlines, so "/\t/evil" becomes "//evil".
func localPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return false
	}
	if strings.ContainsFunc(path, unicode.IsControl) {
		return false
	}
	parsed, err := url.Parse(path)
	return err == nil && parsed.Scheme == "" && parsed.Host == ""
}
