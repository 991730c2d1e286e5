// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
)

// Subscribe adds an email to the newsletter, reactivating a lapsed subscription.
func (c *Caller) Subscribe(ctx context.Context, email string) (*SubscribeResult, error) {
	var out SubscribeResult
	body := map[string]string{"email": email}
	if err := c.do(ctx, call{method: http.MethodPost, route: "/api/newsletter/subscribe", body: body, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unsubscribe deactivates a subscription and returns the backend's message.
func (c *Caller) Unsubscribe(ctx context.Context, email string) (string, error) {
	var out message
	err := c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/api/newsletter/unsubscribe/{email}",
		path:   "/api/newsletter/unsubscribe/" + email,
		out:    &out,
	})
	return out.Message, err
}

// Subscribers lists active subscriptions. Admin only.
func (c *Caller) Subscribers(ctx context.Context) ([]Subscriber, error) {
	var out []Subscriber
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/newsletter/subscribers", out: &out})
	return out, err
}

// Health checks backend liveness.
func (c *Caller) Health(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodGet, route: "/api/health"})
}
