// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid issues and checks contact message ids.

Ids are UUIDv7, so they sort by creation time and the inbox primary key grows
at the end of its index. They travel in admin URLs, which is why [Valid] only
accepts the canonical hyphenated form that [New] produces.
*/
package uuid

import "github.com/google/uuid"

// canonicalLength is the length of the hyphenated form.
const canonicalLength = 36

// New returns a fresh canonical UUIDv7. It panics only if the system random
// source fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Valid reports whether s is a canonical hyphenated UUID. Braced, URN and
// unhyphenated spellings are refused.
func Valid(s string) bool {
	if len(s) != canonicalLength {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
