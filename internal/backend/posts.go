// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
	"strconv"
)

const routePost = "/api/posts/{id}"

func postPath(id int) string {
	return "/api/posts/" + strconv.Itoa(id)
}

// Posts lists posts, newest first. Without a status filter the backend
// returns approved posts only.
func (c *Caller) Posts(ctx context.Context, filter PostFilter) ([]Post, error) {
	query := pageQuery(Page{Skip: filter.Skip, Limit: filter.Limit})
	if filter.Status != "" {
		query.Set("status_filter", string(filter.Status))
	}

	var out []Post
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/posts/", query: query, out: &out})
	return out, err
}

// Post returns one post.
func (c *Caller) Post(ctx context.Context, id int) (*Post, error) {
	var out Post
	if err := c.do(ctx, call{method: http.MethodGet, route: routePost, path: postPath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyPosts lists the caller's posts in every status.
func (c *Caller) MyPosts(ctx context.Context) ([]Post, error) {
	var out []Post
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/posts/my-posts", out: &out})
	return out, err
}

// CreatePost submits a post. Alumni posts start pending; the backend
// auto-approves posts written by admins.
func (c *Caller) CreatePost(ctx context.Context, input PostInput) (*Post, error) {
	var out Post
	if err := c.do(ctx, call{method: http.MethodPost, route: "/api/posts/", body: input, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePost edits the set fields of a post. Only its author or an admin may do so.
func (c *Caller) UpdatePost(ctx context.Context, id int, input PostUpdate) (*Post, error) {
	var out Post
	if err := c.do(ctx, call{method: http.MethodPut, route: routePost, path: postPath(id), body: input, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost removes a post. Only its author or an admin may do so.
func (c *Caller) DeletePost(ctx context.Context, id int) error {
	return c.do(ctx, call{method: http.MethodDelete, route: routePost, path: postPath(id)})
}
