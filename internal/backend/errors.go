// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/taibuivan/alumniportal/internal/platform/apperr"
)

// ErrUnauthorized is wrapped by every error produced from an HTTP 401.
var ErrUnauthorized = errors.New("backend: unauthorized")

// Error is a failed backend call.
//
// Status is the HTTP status, or 0 when no response was received.
// Detail is the backend's human-readable explanation, if any.
type Error struct {
	Method string
	Path   string
	Status int
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("backend: %s %s: %v", e.Method, e.Path, e.Cause)
	case e.Detail != "":
		return fmt.Sprintf("backend: %s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	default:
		return fmt.Sprintf("backend: %s %s: %d", e.Method, e.Path, e.Status)
	}
}

// Unwrap exposes ErrUnauthorized for 401 responses and the transport cause otherwise.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return e.Cause
}

// AppError translates the failure into the portal's error type.
func (e *Error) AppError() *apperr.AppError {
	return apperr.FromUpstream(e.Status, e.Detail, e)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// errorBody is the FastAPI error envelope. Detail is a string for raised
// HTTP errors and a list of field errors for request validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationDetail struct {
	Msg string `json:"msg"`
}

// parseDetail extracts a human-readable message from an error body.
func parseDetail(body []byte) string {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var list []validationDetail
	if err := json.Unmarshal(envelope.Detail, &list); err == nil && len(list) > 0 {
		return list[0].Msg
	}

	return ""
}
