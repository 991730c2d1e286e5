// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package moderation implements the admin post workflow and account management.

Every action makes exactly one backend call. Local collections are reconciled
only after the backend confirmed success; on failure they are left exactly as
they were, so there is nothing to roll back. A second action on an entity
that already has one running is refused with [ErrInFlight].

	pending ──Approve──▶ approved
	pending ──Reject (confirmed)──▶ rejected
	any ──DeletePost (author or admin, confirmed)──▶ deleted
*/
package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
)

var (
	// ErrInFlight is returned when the entity already has an action running.
	ErrInFlight = errors.New("moderation: action already in progress")
	// ErrNotConfirmed is returned by destructive actions without confirmation.
	ErrNotConfirmed = errors.New("moderation: confirmation required")
	// ErrNotPermitted is returned when the actor may not delete the post.
	ErrNotPermitted = errors.New("moderation: not permitted")
)

// Backend is the subset of the backend API the workflow drives.
type Backend interface {
	PendingPosts(ctx context.Context) ([]backend.Post, error)
	ApprovePost(ctx context.Context, id int) (*backend.Post, error)
	RejectPost(ctx context.Context, id int) (*backend.Post, error)
	DeletePost(ctx context.Context, id int) error
	Users(ctx context.Context, page backend.Page) ([]backend.User, error)
	ToggleUserActive(ctx context.Context, id int) (*backend.User, error)
}

// Observer receives the outcome of every action.
type Observer interface {
	ObserveModeration(action, outcome string)
}

// Outcomes reported to an [Observer].
const (
	OutcomeOK           = "ok"
	OutcomeFailed       = "failed"
	OutcomeInFlight     = "in_flight"
	OutcomeUnconfirmed  = "unconfirmed"
	OutcomeNotPermitted = "not_permitted"
)

// usersPageLimit is how many accounts the admin board loads.
const usersPageLimit = 100

// Workflow runs moderation actions.
type Workflow struct {
	inflight *InFlight
	observer Observer
	now      func() time.Time
}

// New creates a workflow. observer may be nil.
func New(observer Observer) *Workflow {
	return &Workflow{inflight: NewInFlight(), observer: observer, now: time.Now}
}

// InFlight exposes the in-flight tracker, e.g. to disable buttons.
func (w *Workflow) InFlight() *InFlight {
	return w.inflight
}

// PostKey is the in-flight key of a post.
func PostKey(id int) string { return "post:" + strconv.Itoa(id) }

// UserKey is the in-flight key of an account.
func UserKey(id int) string { return "user:" + strconv.Itoa(id) }

// # Loading

// ListPending fetches the posts awaiting moderation.
func (w *Workflow) ListPending(ctx context.Context, b Backend) ([]backend.Post, error) {
	return b.PendingPosts(ctx)
}

// LoadBoard fetches pending posts and accounts concurrently.
func (w *Workflow) LoadBoard(ctx context.Context, b Backend) (*Board, error) {
	var (
		posts []backend.Post
		users []backend.User
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		posts, err = b.PendingPosts(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		users, err = b.Users(groupCtx, backend.Page{Limit: usersPageLimit})
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &Board{
		Pending:  NewPostSet(posts),
		Users:    NewUserList(users),
		LoadedAt: w.now(),
	}, nil
}

// # Post Transitions

// Approve approves a pending post and removes it from pending on success.
func (w *Workflow) Approve(ctx context.Context, b Backend, pending *PostSet, id int) error {
	return w.transition(ctx, "approve", pending, id, b.ApprovePost)
}

// Reject rejects a pending post after explicit confirmation and removes it
// from pending on success.
func (w *Workflow) Reject(ctx context.Context, b Backend, pending *PostSet, id int, confirmed bool) error {
	if !confirmed {
		w.observe("reject", OutcomeUnconfirmed)
		return ErrNotConfirmed
	}
	return w.transition(ctx, "reject", pending, id, b.RejectPost)
}

func (w *Workflow) transition(ctx context.Context, action string, pending *PostSet, id int, call func(context.Context, int) (*backend.Post, error)) error {
	release, ok := w.inflight.Acquire(PostKey(id))
	if !ok {
		w.observe(action, OutcomeInFlight)
		return ErrInFlight
	}
	defer release()

	if _, err := call(ctx, id); err != nil {
		w.fail(ctx, action, "post_id", id, err)
		return err
	}

	pending.Remove(id)
	w.succeed(ctx, action, "post_id", id)
	return nil
}

// DeletePost deletes a post on behalf of actor, who must be its author or an
// admin, and removes it from every given set on success.
func (w *Workflow) DeletePost(ctx context.Context, b Backend, actor *backend.User, post backend.Post, confirmed bool, sets ...*PostSet) error {
	const action = "delete"

	if actor == nil || (actor.ID != post.AuthorID && !actor.IsAdmin()) {
		w.observe(action, OutcomeNotPermitted)
		return ErrNotPermitted
	}
	if !confirmed {
		w.observe(action, OutcomeUnconfirmed)
		return ErrNotConfirmed
	}

	release, ok := w.inflight.Acquire(PostKey(post.ID))
	if !ok {
		w.observe(action, OutcomeInFlight)
		return ErrInFlight
	}
	defer release()

	if err := b.DeletePost(ctx, post.ID); err != nil {
		w.fail(ctx, action, "post_id", post.ID, err)
		return err
	}

	for _, set := range sets {
		if set != nil {
			set.Remove(post.ID)
		}
	}
	w.succeed(ctx, action, "post_id", post.ID)
	return nil
}

// # Accounts

// ToggleUserActive flips an account's active flag and replaces the local entry
// with the account the backend returned.
func (w *Workflow) ToggleUserActive(ctx context.Context, b Backend, users *UserList, id int) (*backend.User, error) {
	const action = "toggle_active"

	release, ok := w.inflight.Acquire(UserKey(id))
	if !ok {
		w.observe(action, OutcomeInFlight)
		return nil, ErrInFlight
	}
	defer release()

	updated, err := b.ToggleUserActive(ctx, id)
	if err != nil {
		w.fail(ctx, action, "user_id", id, err)
		return nil, err
	}

	users.Replace(*updated)
	w.succeed(ctx, action, "user_id", id)
	return updated, nil
}

// # Reporting

func (w *Workflow) observe(action, outcome string) {
	if w.observer != nil {
		w.observer.ObserveModeration(action, outcome)
	}
}

func (w *Workflow) succeed(ctx context.Context, action, idKey string, id int) {
	w.observe(action, OutcomeOK)
	ctxutil.GetLogger(ctx).InfoContext(ctx, "moderation_"+action, slog.Int(idKey, id))
}

func (w *Workflow) fail(ctx context.Context, action, idKey string, id int, err error) {
	w.observe(action, OutcomeFailed)
	ctxutil.GetLogger(ctx).WarnContext(ctx, "moderation_"+action+"_failed",
		slog.Int(idKey, id),
		slog.Int("status", backend.StatusOf(err)),
		slog.Any("error", err),
	)
}
