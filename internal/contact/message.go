// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package contact implements the public contact form and the admin inbox.

Submissions are validated, stored in the portal's own PostgreSQL database,
and listed on the admin console where they can be marked as read.
*/
package contact

import (
	"context"
	"time"
)

// Message is one contact form submission.
type Message struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	IPAddress string
	IsRead    bool
	CreatedAt time.Time
}

// Submission is the raw contact form input.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Filter narrows the inbox listing.
type Filter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Store persists contact messages.
type Store interface {
	Create(ctx context.Context, message *Message) error
	List(ctx context.Context, filter Filter) ([]*Message, int, error)
	MarkRead(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
