// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package contact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/alumniportal/internal/platform/apperr"
	"github.com/taibuivan/alumniportal/internal/platform/ctxutil"
	"github.com/taibuivan/alumniportal/internal/platform/validate"
	"github.com/taibuivan/alumniportal/pkg/pagination"
	"github.com/taibuivan/alumniportal/pkg/uuid"
)

// Field limits of the contact form.
const (
	maxNameLength    = 100
	maxSubjectLength = 200
	minMessageLength = 10
	maxMessageLength = 5000
)

// Service validates and records contact form submissions.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a new [Service].
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Validate checks a submission without storing it.
func Validate(submission Submission) *validate.Validator {
	validator := &validate.Validator{}
	validator.Required("name", submission.Name).MaxLen("name", submission.Name, maxNameLength)
	validator.Required("email", submission.Email).Email("email", submission.Email)
	validator.Required("subject", submission.Subject).MaxLen("subject", submission.Subject, maxSubjectLength)
	validator.Required("message", submission.Message).
		MinLen("message", submission.Message, minMessageLength).
		MaxLen("message", submission.Message, maxMessageLength)
	return validator
}

/*
Submit validates a submission and stores it in the inbox.

Returns:
  - *Message: the stored message
  - error: apperr validation error with field details, or a storage failure
*/
func (service *Service) Submit(ctx context.Context, submission Submission, ipAddress string) (*Message, error) {
	if err := Validate(submission).Err(); err != nil {
		return nil, err
	}

	message := &Message{
		ID:        uuid.New(),
		Name:      submission.Name,
		Email:     submission.Email,
		Subject:   submission.Subject,
		Message:   submission.Message,
		IPAddress: ipAddress,
		CreatedAt: service.now().UTC(),
	}

	if err := service.store.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("contact_service_submit_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "contact_message_received",
		slog.String("message_id", message.ID),
		slog.String("subject", message.Subject),
	)
	return message, nil
}

// Inbox is one page of the admin inbox.
type Inbox struct {
	Messages []*Message
	Meta     pagination.Meta
}

// Inbox lists messages for the admin console.
func (service *Service) Inbox(ctx context.Context, params pagination.Params, unreadOnly bool) (*Inbox, error) {
	messages, total, err := service.store.List(ctx, Filter{
		UnreadOnly: unreadOnly,
		Limit:      params.Limit,
		Offset:     params.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("contact_service_inbox_failed: %w", err)
	}

	return &Inbox{
		Messages: messages,
		Meta:     pagination.NewMeta(params.Page, params.Limit, total),
	}, nil
}

// MarkRead flags a message as handled.
func (service *Service) MarkRead(ctx context.Context, id string) error {
	if !uuid.Valid(id) {
		return apperr.NotFound("Contact message")
	}
	if err := service.store.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("contact_service_mark_read_failed: %w", err)
	}
	return nil
}

// Ping reports whether the inbox storage is reachable.
func (service *Service) Ping(ctx context.Context) error {
	return service.store.Ping(ctx)
}
