// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
)

// RegistryOptions configures a [Registry].
type RegistryOptions struct {
	// CredentialTTL is passed to every store.
	CredentialTTL time.Duration
	// IdleTTL is how long an unused store stays in memory.
	IdleTTL time.Duration
	// StartTimeout bounds the startup protocol of a new store.
	StartTimeout time.Duration
	Observer     Observer
	Now          func() time.Time
}

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry maps visitor ids to their live stores.
//
// Evicting a store only drops its memory; the persisted credential stays in
// its slot and is re-validated when the visitor returns.
type Registry struct {
	client  *backend.Client
	slots   SlotProvider
	options RegistryOptions

	mu     sync.Mutex
	stores map[string]*registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry(client *backend.Client, slots SlotProvider, options RegistryOptions) *Registry {
	if options.Observer == nil {
		options.Observer = nopObserver{}
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.StartTimeout <= 0 {
		options.StartTimeout = constants.GlobalRequestTimeout
	}

	return &Registry{
		client:  client,
		slots:   slots,
		options: options,
		stores:  make(map[string]*registryEntry),
	}
}

// Get returns the store of a visitor, creating it on first sight. A new store
// runs its startup protocol in the background; wait on [Store.Ready].
func (r *Registry) Get(ctx context.Context, visitorID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.options.Now()
	if entry, ok := r.stores[visitorID]; ok {
		entry.lastSeen = now
		return entry.store
	}

	store := NewStore(r.client, r.slots.For(visitorID), StoreOptions{
		CredentialTTL: r.options.CredentialTTL,
		Observer:      r.options.Observer,
		Now:           r.options.Now,
	})
	r.stores[visitorID] = &registryEntry{store: store, lastSeen: now}

	// Outlive the request that triggered the start, but keep its logger.
	startCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.options.StartTimeout)
	go func() {
		defer cancel()
		store.Start(startCtx)
	}()

	return store
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep evicts stores idle for longer than IdleTTL and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	if r.options.IdleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for visitorID, entry := range r.stores {
		if now.Sub(entry.lastSeen) > r.options.IdleTTL {
			delete(r.stores, visitorID)
			evicted++
			r.options.Observer.ObserveSession(EventEvicted)
		}
	}
	return evicted
}

// Run sweeps idle stores until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.SessionSweepInterval)
	defer ticker.Stop()

	logger := ctxutil.GetLogger(ctx)
	for {
		select {
		case <-ticker.C:
			if evicted := r.Sweep(r.options.Now()); evicted > 0 {
				logger.Debug("session_sweep", slog.Int("evicted", evicted), slog.Int("live", r.Len()))
			}
		case <-ctx.Done():
			return
		}
	}
}
