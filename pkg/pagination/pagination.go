// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for paged listings.
//
// # Overview
//
// It standardizes how page-based navigation is requested via query parameters
// and how pagers are rendered. Listings backed by a count (the contact inbox)
// know their total; listings backed by the alumni API only know whether a
// further page exists, which is detected by fetching one extra item.
package pagination

import (
	"net/http"

	"github.com/taibuivan/alumniportal/pkg/convert"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 12
	// MaxLimit is the upper bound for items per page to prevent system abuse.
	MaxLimit = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
)

// Params holds the parsed page and limit from a request's query string.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET value derived from [Page] and [Limit].
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata rendered under a listing.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`

	// more is set by [Lookahead] when the total is unknown.
	more bool
}

// NewMeta constructs pagination metadata for a response.
//
// It automatically calculates the TotalPages based on the total count and limit.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Lookahead builds metadata for a listing without a total count. fetched is
// the number of items returned when asking for Limit+1.
func Lookahead(params Params, fetched int) Meta {
	return Meta{Page: params.Page, Limit: params.Limit, more: fetched > params.Limit}
}

// HasPrev reports whether a previous page exists.
func (m Meta) HasPrev() bool {
	return m.Page > 1
}

// HasNext reports whether a following page exists.
func (m Meta) HasNext() bool {
	if m.TotalPages > 0 {
		return m.Page < m.TotalPages
	}
	return m.more
}

// Prev returns the previous page number.
func (m Meta) Prev() int {
	return max(m.Page-1, DefaultPage)
}

// Next returns the following page number.
func (m Meta) Next() int {
	return m.Page + 1
}

// Trim drops the lookahead item from a page fetched with Limit+1.
func Trim[T any](items []T, params Params) []T {
	if len(items) > params.Limit {
		return items[:params.Limit]
	}
	return items
}

// FromRequest parses "page" and "limit" query parameters from an HTTP request.
//
// # Clamping
//
// Invalid, negative, or excessive values are automatically clamped to
// [DefaultPage], [DefaultLimit], or [MaxLimit].
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()
	page := convert.ToIntD(query.Get("page"), DefaultPage)
	limit := convert.ToIntD(query.Get("limit"), DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}

	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}
