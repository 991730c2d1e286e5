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
	"github.com/taibuivan/alumniportal/internal/moderation"
	requestutil "github.com/taibuivan/alumniportal/internal/platform/request"
	"github.com/taibuivan/alumniportal/internal/platform/validate"
	"github.com/taibuivan/alumniportal/internal/session"
	"github.com/taibuivan/alumniportal/pkg/convert"
	"github.com/taibuivan/alumniportal/pkg/pagination"
	"github.com/taibuivan/alumniportal/pkg/pointer"
	"github.com/taibuivan/alumniportal/pkg/slice"
)

const (
	homePostLimit = 5
	feedPostLimit = 50

	maxTitleLength    = 200
	maxContentLength  = 10000
	maxProfileText    = 100
	maxBioLength      = 2000
	minGraduationYear = 1900

	pathPosts   = "/dashboard/posts"
	pathMyPosts = "/dashboard/posts/mine"
	pathNewPost = "/dashboard/posts/new"
	pathProfile = "/dashboard/profile"

	// keyProfileExists remembers whether the visitor already has a profile.
	keyProfileExists = "profile.exists"
)

type feedPage struct {
	Posts []backend.Post
}

// home handles GET /dashboard.
func (h *Handler) home(writer http.ResponseWriter, request *http.Request) {
	posts, err := store(request).Backend().Posts(request.Context(), backend.PostFilter{Limit: homePostLimit})
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "Dashboard")
	page.Data = feedPage{Posts: posts}
	h.render(writer, request, http.StatusOK, "home", page)
}

// news handles GET /dashboard/news.
func (h *Handler) news(writer http.ResponseWriter, request *http.Request) {
	posts, err := store(request).Backend().Posts(request.Context(), backend.PostFilter{Limit: feedPostLimit})
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "News & Updates")
	page.Data = feedPage{Posts: posts}
	h.render(writer, request, http.StatusOK, "news", page)
}

// # Alumni Directory

type alumniPage struct {
	Profiles []backend.AlumniProfile
	Meta     pagination.Meta
}

// alumni handles GET /dashboard/alumni.
// One extra profile is requested to learn whether a next page exists.
func (h *Handler) alumni(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	profiles, err := store(request).Backend().Profiles(request.Context(), backend.Page{
		Skip:  params.Offset(),
		Limit: params.Limit + 1,
	})
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "Alumni Directory")
	page.Data = alumniPage{
		Profiles: pagination.Trim(profiles, params),
		Meta:     pagination.Lookahead(params, len(profiles)),
	}
	h.render(writer, request, http.StatusOK, "alumni", page)
}

// alumniDetail handles GET /dashboard/alumni/{id}.
func (h *Handler) alumniDetail(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	profile, err := store(request).Backend().Profile(request.Context(), id)
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	title := "Alumni profile"
	if profile.User != nil {
		title = profile.User.FullName
	}
	page := h.page(request, title)
	page.Data = profile
	h.render(writer, request, http.StatusOK, "alumni_detail", page)
}

// # Own Profile

type profilePage struct {
	Exists bool
}

// profile handles GET /dashboard/profile. A missing profile is not an error:
// the page offers the create form instead.
func (h *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	visitor := store(request)

	profile, err := visitor.Backend().MyProfile(request.Context())
	switch {
	case backend.IsNotFound(err):
		profile = nil
	case err != nil:
		h.loadFailed(writer, request, err)
		return
	}

	exists := profile != nil
	visitor.SetValue(keyProfileExists, exists)

	page := h.page(request, "My Profile")
	page.Data = profilePage{Exists: exists}
	if exists {
		page.Form = profileForm(profile.Input())
	}
	h.render(writer, request, http.StatusOK, "profile", page)
}

// saveProfile handles POST /dashboard/profile: create on first save, update afterwards.
func (h *Handler) saveProfile(writer http.ResponseWriter, request *http.Request) {
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, pathProfile)
		return
	}

	visitor := store(request)
	ctx := request.Context()

	input, validator := parseProfile(request)
	if validator.HasErrors() {
		value, _ := visitor.Value(keyProfileExists)
		exists, _ := value.(bool)
		page := h.page(request, "My Profile")
		page.Data = profilePage{Exists: exists}
		page.Form = formValues(request, profileFields...)
		page.Errors = validator.Fields()
		h.render(writer, request, http.StatusUnprocessableEntity, "profile", page)
		return
	}

	exists, err := profileExists(ctx, visitor)
	if err != nil {
		h.actionFailed(writer, request, err, pathProfile)
		return
	}

	caller := visitor.Backend()
	_, err = caller.SaveProfile(ctx, exists, input)
	if err != nil && !exists && backend.StatusOf(err) == http.StatusBadRequest {
		// Created elsewhere since the page was loaded.
		_, err = caller.ReplaceProfile(ctx, input)
	}
	if err != nil {
		h.actionFailed(writer, request, err, pathProfile)
		return
	}

	visitor.SetValue(keyProfileExists, true)
	flash(request, session.FlashSuccess, "Profile saved successfully.")
	redirect(writer, request, pathProfile)
}

// profileExists answers from page state, asking the backend when the profile
// page was not loaded in this session.
func profileExists(ctx context.Context, visitor *session.Store) (bool, error) {
	if value, ok := visitor.Value(keyProfileExists); ok {
		exists, _ := value.(bool)
		return exists, nil
	}

	_, err := visitor.Backend().MyProfile(ctx)
	switch {
	case err == nil:
		return true, nil
	case backend.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

var profileFields = []string{
	"graduation_year", "major", "current_position", "company", "bio", "linkedin_url", "profile_picture_url",
}

// parseProfile reads the profile form. Blank fields are nil, which a replace clears.
func parseProfile(request *http.Request) (backend.ProfileInput, *validate.Validator) {
	validator := &validate.Validator{}
	optional := func(field string, maxLength int) *string {
		value := requestutil.Field(request, field)
		if value == "" {
			return nil
		}
		validator.MaxLen(field, value, maxLength)
		return pointer.To(value)
	}

	input := backend.ProfileInput{
		Major:             optional("major", maxProfileText),
		CurrentPosition:   optional("current_position", maxProfileText),
		Company:           optional("company", maxProfileText),
		Bio:               optional("bio", maxBioLength),
		LinkedinURL:       optional("linkedin_url", maxContentLength),
		ProfilePictureURL: optional("profile_picture_url", maxContentLength),
	}
	validator.URL("linkedin_url", pointer.Val(input.LinkedinURL))
	validator.URL("profile_picture_url", pointer.Val(input.ProfilePictureURL))

	if raw := requestutil.Field(request, "graduation_year"); raw != "" {
		year := convert.ToIntD(raw, 0)
		validator.Range("graduation_year", year, minGraduationYear, time.Now().Year()+10)
		input.GraduationYear = pointer.To(year)
	}

	return input, validator
}

// profileForm renders a profile back into form values.
func profileForm(input backend.ProfileInput) map[string]string {
	form := map[string]string{
		"major":               pointer.Val(input.Major),
		"current_position":    pointer.Val(input.CurrentPosition),
		"company":             pointer.Val(input.Company),
		"bio":                 pointer.Val(input.Bio),
		"linkedin_url":        pointer.Val(input.LinkedinURL),
		"profile_picture_url": pointer.Val(input.ProfilePictureURL),
	}
	if input.GraduationYear != nil {
		form["graduation_year"] = strconv.Itoa(*input.GraduationYear)
	}
	return form
}

func formValues(request *http.Request, fields ...string) map[string]string {
	form := make(map[string]string, len(fields))
	for _, field := range fields {
		form[field] = requestutil.Field(request, field)
	}
	return form
}

// # Posts

type postItem struct {
	Post      backend.Post
	CanDelete bool
}

type postsPage struct {
	Posts []postItem
}

// canDelete mirrors the workflow's rule: authors and admins may delete.
func canDelete(actor *backend.User, post backend.Post) bool {
	return actor != nil && (actor.ID == post.AuthorID || actor.IsAdmin())
}

// posts handles GET /dashboard/posts.
func (h *Handler) posts(writer http.ResponseWriter, request *http.Request) {
	posts, err := store(request).Backend().Posts(request.Context(), backend.PostFilter{Limit: feedPostLimit})
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "Community Posts")
	page.Data = postsPage{Posts: slice.Map(posts, func(post backend.Post) postItem {
		return postItem{Post: post, CanDelete: canDelete(page.User, post)}
	})}
	h.render(writer, request, http.StatusOK, "posts", page)
}

// myPosts handles GET /dashboard/posts/mine. Every status is listed.
func (h *Handler) myPosts(writer http.ResponseWriter, request *http.Request) {
	posts, err := store(request).Backend().MyPosts(request.Context())
	if err != nil {
		h.loadFailed(writer, request, err)
		return
	}

	page := h.page(request, "My Posts")
	page.Data = feedPage{Posts: posts}
	h.render(writer, request, http.StatusOK, "posts_mine", page)
}

// newPost handles GET /dashboard/posts/new.
func (h *Handler) newPost(writer http.ResponseWriter, request *http.Request) {
	h.render(writer, request, http.StatusOK, "post_new", h.page(request, "Create post"))
}

// createPost handles POST /dashboard/posts/new.
func (h *Handler) createPost(writer http.ResponseWriter, request *http.Request) {
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, pathNewPost)
		return
	}

	input := backend.PostInput{
		Title:   requestutil.Field(request, "title"),
		Content: requestutil.Field(request, "content"),
	}

	validator := &validate.Validator{}
	validator.Required("title", input.Title).MaxLen("title", input.Title, maxTitleLength)
	validator.Required("content", input.Content).MaxLen("content", input.Content, maxContentLength)

	if validator.HasErrors() {
		page := h.page(request, "Create post")
		page.Form = map[string]string{"title": input.Title, "content": input.Content}
		page.Errors = validator.Fields()
		h.render(writer, request, http.StatusUnprocessableEntity, "post_new", page)
		return
	}

	post, err := store(request).Backend().CreatePost(request.Context(), input)
	if err != nil {
		h.actionFailed(writer, request, err, pathNewPost)
		return
	}

	// Admin posts are approved by the backend on creation.
	if post.Status == backend.PostApproved {
		flash(request, session.FlashSuccess, "Your post has been published.")
	} else {
		flash(request, session.FlashSuccess, "Your post was submitted and is awaiting approval.")
	}
	redirect(writer, request, pathMyPosts)
}

// confirmDelete handles GET /dashboard/posts/{id}/delete.
func (h *Handler) confirmDelete(writer http.ResponseWriter, request *http.Request) {
	post, ok := h.deletablePost(writer, request)
	if !ok {
		return
	}

	page := h.page(request, "Delete post")
	page.Data = post
	h.render(writer, request, http.StatusOK, "post_delete", page)
}

// deletePost handles POST /dashboard/posts/{id}/delete. Without the
// confirmation flag the visitor is sent to the confirmation page.
func (h *Handler) deletePost(writer http.ResponseWriter, request *http.Request) {
	if err := requestutil.ParseForm(writer, request); err != nil {
		h.actionFailed(writer, request, err, pathPosts)
		return
	}

	post, ok := h.deletablePost(writer, request)
	if !ok {
		return
	}

	visitor := store(request)
	actor := visitor.Snapshot().Identity

	var sets []*moderation.PostSet
	if board := loadedBoard(visitor); board != nil {
		sets = append(sets, board.Pending)
	}

	err := h.moderation.DeletePost(request.Context(), visitor.Backend(), actor, *post, requestutil.Confirmed(request), sets...)
	if errors.Is(err, moderation.ErrNotConfirmed) {
		redirect(writer, request, pathPosts+"/"+strconv.Itoa(post.ID)+"/delete")
		return
	}
	if err != nil {
		h.actionFailed(writer, request, err, pathPosts)
		return
	}

	flash(request, session.FlashSuccess, "Post deleted.")
	redirect(writer, request, pathPosts)
}

// deletablePost loads the post named in the URL and checks the visitor may
// delete it, answering the request otherwise.
func (h *Handler) deletablePost(writer http.ResponseWriter, request *http.Request) (*backend.Post, bool) {
	id, err := requestutil.IntParam(request, "id")
	if err != nil {
		h.loadFailed(writer, request, err)
		return nil, false
	}

	visitor := store(request)
	post, err := visitor.Backend().Post(request.Context(), id)
	if err != nil {
		h.actionFailed(writer, request, err, pathPosts)
		return nil, false
	}

	if !canDelete(visitor.Snapshot().Identity, *post) {
		h.actionFailed(writer, request, moderation.ErrNotPermitted, pathPosts)
		return nil, false
	}
	return post, true
}
