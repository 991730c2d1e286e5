// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package portal

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/contact"
	"github.com/taibuivan/alumniportal/internal/moderation"
	"github.com/taibuivan/alumniportal/internal/platform/constants"
	requestutil "github.com/taibuivan/alumniportal/internal/platform/request"
	"github.com/taibuivan/alumniportal/internal/session"
	"github.com/taibuivan/alumniportal/pkg/convert"
	"github.com/taibuivan/alumniportal/pkg/pagination"
)

const (
	// keyBoard holds the admin's *moderation.Board between requests.
	keyBoard = "admin.board"

	pathMessages = constants.PathAdmin + "/messages"
)

// # Board

// loadedBoard returns the board kept in page state, or nil.
func loadedBoard(visitor *session.Store) *moderation.Board {
	value, ok := visitor.Value(keyBoard)
	if !ok {
		return nil
	}
	board, _ := value.(*moderation.Board)
	return board
}

// board returns the admin's working set, loading it on first use.
func (h *Handler) board(ctx context.Context, visitor *session.Store) (*moderation.Board, error) {
	if board := loadedBoard(visitor); board != nil {
		return board, nil
	}

	board, err := h.moderation.LoadBoard(ctx, visitor.Backend())
	if err != nil {
		return nil, err
	}
	visitor.SetValue(keyBoard, board)
	return board, nil
}

type adminPage struct {
	Pending  []backend.Post
	Users    []backend.User
	LoadedAt time.Time
}

// adminBoard handles GET /dashboard/admin.
func (h *Handler) adminBoard(writer http.ResponseWriter, request *http.Request) {
	board, err := h.board(request.Context(), store(request))
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "Admin Dashboard")
	page.Data = adminPage{
		Pending:  board.Pending.Items(),
		Users:    board.Users.Items(),
		LoadedAt: board.LoadedAt,
	}
	h.render(writer, request, http.StatusOK, "admin", page)
}

// reloadBoard handles POST /dashboard/admin/reload.
func (h *Handler) reloadBoard(writer http.ResponseWriter, request *http.Request) {
	store(request).DeleteValue(keyBoard)
	redirect(writer, request, constants.PathAdmin)
}

// # Post Moderation

// approve handles POST /dashboard/admin/posts/{id}/approve.
func (h *Handler) approve(writer http.ResponseWriter, request *http.Request) {
	id, board, ok := h.boardAction(writer, request)
	if !ok {
		return
	}

	visitor := store(request)
	if err := h.moderation.Approve(request.Context(), visitor.Backend(), board.Pending, id); err != nil {
		h.actionFailed(writer, request, err, constants.PathAdmin)
		return
	}

	flash(request, session.FlashSuccess, "Post approved.")
	redirect(writer, request, constants.PathAdmin)
}

// confirmReject handles GET /dashboard/admin/posts/{id}/reject.
func (h *Handler) confirmReject(writer http.ResponseWriter, request *http.Request) {
	id, board, ok := h.boardAction(writer, request)
	if !ok {
		return
	}

	post, found := board.Pending.Get(id)
	if !found {
		flash(request, session.FlashInfo, "This post is no longer pending.")
		redirect(writer, request, constants.PathAdmin)
		return
	}

	page := h.page(request, "Reject post")
	page.Data = post
	h.render(writer, request, http.StatusOK, "admin_reject", page)
}

// reject handles POST /dashboard/admin/posts/{id}/reject.
func (h *Handler) reject(writer http.ResponseWriter, request *http.Request) {
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, constants.PathAdmin)
		return
	}

	id, board, ok := h.boardAction(writer, request)
	if !ok {
		return
	}

	visitor := store(request)
	err := h.moderation.Reject(request.Context(), visitor.Backend(), board.Pending, id, requestutil.Confirmed(request))
	if errors.Is(err, moderation.ErrNotConfirmed) {
		redirect(writer, request, constants.PathAdmin+"/posts/"+strconv.Itoa(id)+"/reject")
		return
	}
	if err != nil {
		h.actionFailed(writer, request, err, constants.PathAdmin)
		return
	}

	flash(request, session.FlashSuccess, "Post rejected.")
	redirect(writer, request, constants.PathAdmin)
}

// # Accounts

// toggleUser handles POST /dashboard/admin/users/{id}/toggle.
func (h *Handler) toggleUser(writer http.ResponseWriter, request *http.Request) {
	id, board, ok := h.boardAction(writer, request)
	if !ok {
		return
	}

	visitor := store(request)
	user, err := h.moderation.ToggleUserActive(request.Context(), visitor.Backend(), board.Users, id)
	if err != nil {
		h.actionFailed(writer, request, err, constants.PathAdmin)
		return
	}

	state := "deactivated"
	if user.IsActive {
		state = "activated"
	}
	flash(request, session.FlashSuccess, user.FullName+" has been "+state+".")
	redirect(writer, request, constants.PathAdmin)
}

// boardAction resolves the id URL parameter and the admin's board, answering
// the request when either is unavailable.
func (h *Handler) boardAction(writer http.ResponseWriter, request *http.Request) (int, *moderation.Board, bool) {
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		h.actionFailed(writer, request, err, constants.PathAdmin)
		return 0, nil, false
	}

	board, err := h.board(request.Context(), store(request))
	if err != nil {
		h.actionFailed(writer, request, err, constants.PathAdmin)
		return 0, nil, false
	}
	return id, board, true
}

// # Newsletter & Inbox

type subscribersPage struct {
	Subscribers []backend.Subscriber
}

// subscribers handles GET /dashboard/admin/subscribers. The backend lists
// active subscribers only.
func (h *Handler) subscribers(writer http.ResponseWriter, request *http.Request) {
	subscribers, err := store(request).Backend().Subscribers(request.Context())
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "Subscribers")
	page.Data = subscribersPage{Subscribers: subscribers}
	h.render(writer, request, http.StatusOK, "subscribers", page)
}

type messagesPage struct {
	Inbox      *contact.Inbox
	UnreadOnly bool
}

// messages handles GET /dashboard/admin/messages.
func (h *Handler) messages(writer http.ResponseWriter, request *http.Request) {
	unreadOnly := convert.ToBool(request.URL.Query().Get("unread"))

	inbox, err := h.contact.Inbox(request.Context(), pagination.FromRequest(request), unreadOnly)
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "Messages")
	page.Data = messagesPage{Inbox: inbox, UnreadOnly: unreadOnly}
	h.render(writer, request, http.StatusOK, "messages", page)
}

// markRead handles POST /dashboard/admin/messages/{id}/read.
func (h *Handler) markRead(writer http.ResponseWriter, request *http.Request) {
	if err := h.contact.MarkRead(request.Context(), requestutil.Param(request, "id")); err != nil {
		h.actionFailed(writer, request, err, pathMessages)
		return
	}

	flash(request, session.FlashSuccess, "Message marked as read.")
	redirect(writer, request, pathMessages)
}
