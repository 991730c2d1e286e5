// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey names the request-scoped values the portal middleware puts on
// a context. Only ctxutil and the session middleware read or write them.
package ctxkey

// key is unexported so no other package can build a colliding key.
type key uint8

const (
	// KeyRequestID holds the X-Request-ID of the current request.
	KeyRequestID key = iota + 1
	// KeyLogger holds the request logger, already tagged with the request id.
	KeyLogger
	// KeyVisitor holds the visitor cookie id.
	KeyVisitor
	// KeySession holds the visitor's *session.Store.
	KeySession
)

var names = [...]string{
	KeyRequestID: "request_id",
	KeyLogger:    "logger",
	KeyVisitor:   "visitor",
	KeySession:   "session",
}

// String names the key in context dumps.
func (k key) String() string {
	if int(k) < len(names) && names[k] != "" {
		return "ctxkey." + names[k]
	}
	return "ctxkey.unknown"
}
