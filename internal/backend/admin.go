// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
	"strconv"
)

// PendingPosts lists posts awaiting moderation. Admin only.
func (c *Caller) PendingPosts(ctx context.Context) ([]Post, error) {
	var out []Post
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/admin/posts/pending", out: &out})
	return out, err
}

// ApprovePost moves a post to approved. Admin only.
func (c *Caller) ApprovePost(ctx context.Context, id int) (*Post, error) {
	return c.transition(ctx, id, "approve")
}

// RejectPost moves a post to rejected. Admin only.
func (c *Caller) RejectPost(ctx context.Context, id int) (*Post, error) {
	return c.transition(ctx, id, "reject")
}

func (c *Caller) transition(ctx context.Context, id int, action string) (*Post, error) {
	var out Post
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/api/admin/posts/{id}/" + action,
		path:   "/api/admin/posts/" + strconv.Itoa(id) + "/" + action,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists every account. Admin only.
func (c *Caller) Users(ctx context.Context, page Page) ([]User, error) {
	var out []User
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/admin/users", query: pageQuery(page), out: &out})
	return out, err
}

// ToggleUserActive flips an account's active flag and returns the account as
// the backend now stores it. Admin only; admins cannot deactivate themselves.
func (c *Caller) ToggleUserActive(ctx context.Context, id int) (*User, error) {
	var out User
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/api/admin/users/{id}/toggle-active",
		path:   "/api/admin/users/" + strconv.Itoa(id) + "/toggle-active",
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
