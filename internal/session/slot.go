// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"
	"time"
)

// CredentialSlot persists at most one credential. Save overwrites.
type CredentialSlot interface {
	// Load returns the stored credential, or "" when the slot is empty.
	Load(ctx context.Context) (string, error)
	// Save stores token, replacing any previous one. A zero ttl empties the slot.
	Save(ctx context.Context, token string, ttl time.Duration) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error
}

// SlotProvider hands out the slot belonging to a visitor.
type SlotProvider interface {
	For(visitorID string) CredentialSlot
}

// # In-Memory Slots

// MemorySlots keeps credentials in process memory.
// Used in tests and local development without Redis.
type MemorySlots struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// NewMemorySlots creates an empty in-memory slot provider.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{entries: make(map[string]memoryEntry), now: time.Now}
}

// For returns the slot of a visitor.
func (m *MemorySlots) For(visitorID string) CredentialSlot {
	return &memorySlot{owner: m, key: visitorID}
}

// Peek returns the raw stored credential of a visitor.
func (m *MemorySlots) Peek(visitorID string) string {
	token, _ := m.For(visitorID).Load(context.Background())
	return token
}

type memorySlot struct {
	owner *MemorySlots
	key   string
}

func (s *memorySlot) Load(context.Context) (string, error) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	entry, ok := s.owner.entries[s.key]
	if !ok {
		return "", nil
	}
	if s.owner.now().After(entry.expires) {
		delete(s.owner.entries, s.key)
		return "", nil
	}
	return entry.token, nil
}

func (s *memorySlot) Save(_ context.Context, token string, ttl time.Duration) error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	if ttl <= 0 {
		delete(s.owner.entries, s.key)
		return nil
	}
	s.owner.entries[s.key] = memoryEntry{token: token, expires: s.owner.now().Add(ttl)}
	return nil
}

func (s *memorySlot) Clear(context.Context) error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	delete(s.owner.entries, s.key)
	return nil
}
