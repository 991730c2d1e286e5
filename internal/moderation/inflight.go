// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import "sync"

// InFlight tracks entities with an action currently running.
type InFlight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// NewInFlight creates an empty tracker.
func NewInFlight() *InFlight {
	return &InFlight{running: make(map[string]struct{})}
}

// Acquire marks key busy. It returns false if key is already busy; otherwise
// the caller must call release when the action ends.
func (f *InFlight) Acquire(key string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.running[key]; busy {
		return nil, false
	}
	f.running[key] = struct{}{}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.running, key)
	}, true
}

// Busy reports whether key has an action running.
func (f *InFlight) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.running[key]
	return busy
}
