// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func pageQuery(page Page) url.Values {
	query := url.Values{}
	if page.Skip > 0 {
		query.Set("skip", strconv.Itoa(page.Skip))
	}
	if page.Limit > 0 {
		query.Set("limit", strconv.Itoa(page.Limit))
	}
	return query
}

// Profiles lists alumni profiles.
func (c *Caller) Profiles(ctx context.Context, page Page) ([]AlumniProfile, error) {
	var out []AlumniProfile
	err := c.do(ctx, call{method: http.MethodGet, route: "/api/alumni/profiles", query: pageQuery(page), out: &out})
	return out, err
}

// Profile returns one profile by its id.
func (c *Caller) Profile(ctx context.Context, id int) (*AlumniProfile, error) {
	var out AlumniProfile
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/api/alumni/profiles/{id}",
		path:   "/api/alumni/profiles/" + strconv.Itoa(id),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MyProfile returns the caller's own profile. A caller without one gets a 404
// (see [IsNotFound]).
func (c *Caller) MyProfile(ctx context.Context) (*AlumniProfile, error) {
	var out AlumniProfile
	if err := c.do(ctx, call{method: http.MethodGet, route: "/api/alumni/profile", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProfile creates the caller's profile.
func (c *Caller) CreateProfile(ctx context.Context, input ProfileInput) (*AlumniProfile, error) {
	var out AlumniProfile
	if err := c.do(ctx, call{method: http.MethodPost, route: "/api/alumni/profile", body: input, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile replaces the set fields of the caller's profile.
func (c *Caller) UpdateProfile(ctx context.Context, input ProfileInput) (*AlumniProfile, error) {
	var out AlumniProfile
	if err := c.do(ctx, call{method: http.MethodPut, route: "/api/alumni/profile", body: input, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplaceProfile overwrites every editable field of the caller's profile.
// Nil fields in input are cleared.
func (c *Caller) ReplaceProfile(ctx context.Context, input ProfileInput) (*AlumniProfile, error) {
	var out AlumniProfile
	if err := c.do(ctx, call{method: http.MethodPut, route: "/api/alumni/profile", body: input.replacement(), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveProfile stores a submitted profile form: it creates the profile on
// first save and replaces it afterwards.
func (c *Caller) SaveProfile(ctx context.Context, exists bool, input ProfileInput) (*AlumniProfile, error) {
	if exists {
		return c.ReplaceProfile(ctx, input)
	}
	return c.CreateProfile(ctx, input)
}
