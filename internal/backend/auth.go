// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a bearer token.
func (c *Caller) Login(ctx context.Context, credentials LoginInput) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, call{method: http.MethodPost, route: "/api/auth/login", body: credentials, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. It does not sign the visitor in.
func (c *Caller) Register(ctx context.Context, registration Registration) (*User, error) {
	var out User
	if err := c.do(ctx, call{method: http.MethodPost, route: "/api/auth/register", body: registration, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the identity the bound credential belongs to.
func (c *Caller) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, call{method: http.MethodGet, route: "/api/auth/me", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
