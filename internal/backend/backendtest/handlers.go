// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backendtest

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

func contextWithUser(request *http.Request, user backend.User) context.Context {
	return context.WithValue(request.Context(), ctxKey{}, user)
}

// # Auth

func (s *Server) login(writer http.ResponseWriter, request *http.Request) {
	var input backend.LoginInput
	if !decode(writer, request, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.accounts {
		if !strings.EqualFold(record.user.Email, input.Email) {
			continue
		}
		if bcrypt.CompareHashAndPassword(record.hash, []byte(input.Password)) != nil {
			break
		}
		if !record.user.IsActive {
			writeDetail(writer, http.StatusBadRequest, "Inactive user")
			return
		}
		writeJSON(writer, http.StatusOK, backend.LoginResponse{
			AccessToken: s.issueLocked(record.user.ID),
			TokenType:   "bearer",
		})
		return
	}

	writeDetail(writer, http.StatusUnauthorized, "Incorrect email or password")
}

func (s *Server) register(writer http.ResponseWriter, request *http.Request) {
	var input backend.Registration
	if !decode(writer, request, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.accounts {
		if strings.EqualFold(record.user.Email, input.Email) {
			writeDetail(writer, http.StatusBadRequest, "Email already registered")
			return
		}
	}

	user := s.addUserLocked(input.Email, input.Password, input.FullName, sec.RoleAlumni)
	writeJSON(writer, http.StatusCreated, user)
}

func (s *Server) me(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, caller(request))
}

// # Profiles

func (s *Server) withUser(profile backend.AlumniProfile) backend.AlumniProfile {
	if record, ok := s.accounts[profile.UserID]; ok {
		user := record.user
		profile.User = &user
	}
	return profile
}

func (s *Server) listProfiles(writer http.ResponseWriter, request *http.Request) {
	skip, limit := pageParams(request)

	s.mu.Lock()
	profiles := make([]backend.AlumniProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, s.withUser(*profile))
	}
	s.mu.Unlock()

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	writeJSON(writer, http.StatusOK, paginate(profiles, skip, limit))
}

func (s *Server) getProfile(writer http.ResponseWriter, request *http.Request) {
	id, ok := idParam(writer, request)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, found := s.profiles[id]
	if !found {
		writeDetail(writer, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(writer, http.StatusOK, s.withUser(*profile))
}

func (s *Server) ownProfileLocked(userID int) *backend.AlumniProfile {
	for _, profile := range s.profiles {
		if profile.UserID == userID {
			return profile
		}
	}
	return nil
}

func (s *Server) myProfile(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.ownProfileLocked(caller(request).ID)
	if profile == nil {
		writeDetail(writer, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(writer, http.StatusOK, s.withUser(*profile))
}

func (s *Server) createProfile(writer http.ResponseWriter, request *http.Request) {
	patch, ok := decodeProfile(writer, request)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID := caller(request).ID
	if s.ownProfileLocked(userID) != nil {
		writeDetail(writer, http.StatusBadRequest, "Profile already exists")
		return
	}

	s.nextID++
	profile := &backend.AlumniProfile{ID: s.nextID, UserID: userID, CreatedAt: time.Now().UTC()}
	patch.apply(profile)
	s.profiles[profile.ID] = profile

	writeJSON(writer, http.StatusCreated, profile)
}

func (s *Server) updateProfile(writer http.ResponseWriter, request *http.Request) {
	patch, ok := decodeProfile(writer, request)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.ownProfileLocked(caller(request).ID)
	if profile == nil {
		writeDetail(writer, http.StatusNotFound, "Profile not found")
		return
	}

	patch.apply(profile)
	now := time.Now().UTC()
	profile.UpdatedAt = &now

	writeJSON(writer, http.StatusOK, profile)
}

// profilePatch is a profile body with the set of keys it carried.
type profilePatch struct {
	input   backend.ProfileInput
	present map[string]json.RawMessage
}

func decodeProfile(writer http.ResponseWriter, request *http.Request) (profilePatch, bool) {
	var patch profilePatch
	if !decode(writer, request, &patch.present) {
		return patch, false
	}

	// Re-marshal the already validated keys into the typed input.
	raw, err := json.Marshal(patch.present)
	if err == nil {
		err = json.Unmarshal(raw, &patch.input)
	}
	if err != nil {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": "Invalid request body", "type": "value_error"}},
		})
		return patch, false
	}
	return patch, true
}

// apply copies the fields present in the body (exclude_unset semantics):
// an absent key keeps its value, an explicit null or "" overwrites it.
func (p profilePatch) apply(profile *backend.AlumniProfile) {
	set := func(key string) bool {
		_, ok := p.present[key]
		return ok
	}
	if set("graduation_year") {
		profile.GraduationYear = p.input.GraduationYear
	}
	if set("major") {
		profile.Major = p.input.Major
	}
	if set("current_position") {
		profile.CurrentPosition = p.input.CurrentPosition
	}
	if set("company") {
		profile.Company = p.input.Company
	}
	if set("bio") {
		profile.Bio = p.input.Bio
	}
	if set("linkedin_url") {
		profile.LinkedinURL = p.input.LinkedinURL
	}
	if set("profile_picture_url") {
		profile.ProfilePictureURL = p.input.ProfilePictureURL
	}
}

// # Posts

func (s *Server) withAuthor(post backend.Post) backend.Post {
	if record, ok := s.accounts[post.AuthorID]; ok {
		author := record.user
		post.Author = &author
	}
	return post
}

func (s *Server) collectLocked(keep func(*backend.Post) bool) []backend.Post {
	posts := make([]backend.Post, 0)
	for _, post := range s.posts {
		if keep(post) {
			posts = append(posts, s.withAuthor(*post))
		}
	}
	sortNewestFirst(posts)
	return posts
}

func (s *Server) listPosts(writer http.ResponseWriter, request *http.Request) {
	skip, limit := pageParams(request)

	status := backend.PostStatus(request.URL.Query().Get("status_filter"))
	if status == "" {
		status = backend.PostApproved
	}

	s.mu.Lock()
	posts := s.collectLocked(func(post *backend.Post) bool { return post.Status == status })
	s.mu.Unlock()

	writeJSON(writer, http.StatusOK, paginate(posts, skip, limit))
}

func (s *Server) myPosts(writer http.ResponseWriter, request *http.Request) {
	userID := caller(request).ID

	s.mu.Lock()
	posts := s.collectLocked(func(post *backend.Post) bool { return post.AuthorID == userID })
	s.mu.Unlock()

	writeJSON(writer, http.StatusOK, posts)
}

func (s *Server) getPost(writer http.ResponseWriter, request *http.Request) {
	id, ok := idParam(writer, request)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, found := s.posts[id]
	if !found {
		writeDetail(writer, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(writer, http.StatusOK, s.withAuthor(*post))
}

func (s *Server) createPost(writer http.ResponseWriter, request *http.Request) {
	var input backend.PostInput
	if !decode(writer, request, &input) {
		return
	}

	author := caller(request)
	status := backend.PostPending
	if author.Role.IsAdmin() {
		status = backend.PostApproved
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	post := &backend.Post{
		ID:        s.nextID,
		AuthorID:  author.ID,
		Title:     input.Title,
		Content:   input.Content,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	s.posts[post.ID] = post

	writeJSON(writer, http.StatusCreated, post)
}

// ownedPostLocked loads a post the caller may edit, writing the error response otherwise.
func (s *Server) ownedPostLocked(writer http.ResponseWriter, request *http.Request) *backend.Post {
	id, ok := idParam(writer, request)
	if !ok {
		return nil
	}

	post, found := s.posts[id]
	if !found {
		writeDetail(writer, http.StatusNotFound, "Post not found")
		return nil
	}

	user := caller(request)
	if post.AuthorID != user.ID && !user.Role.IsAdmin() {
		writeDetail(writer, http.StatusForbidden, "Not enough permissions")
		return nil
	}
	return post
}

func (s *Server) updatePost(writer http.ResponseWriter, request *http.Request) {
	var input backend.PostUpdate
	if !decode(writer, request, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.ownedPostLocked(writer, request)
	if post == nil {
		return
	}

	// exclude_unset: only the keys that were sent change.
	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	now := time.Now().UTC()
	post.UpdatedAt = &now

	writeJSON(writer, http.StatusOK, post)
}

func (s *Server) deletePost(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.ownedPostLocked(writer, request)
	if post == nil {
		return
	}

	delete(s.posts, post.ID)
	writer.WriteHeader(http.StatusNoContent)
}

// # Admin

func (s *Server) pendingPosts(writer http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	posts := s.collectLocked(func(post *backend.Post) bool { return post.Status == backend.PostPending })
	s.mu.Unlock()

	writeJSON(writer, http.StatusOK, posts)
}

func (s *Server) transition(status backend.PostStatus) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, ok := idParam(writer, request)
		if !ok {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		post, found := s.posts[id]
		if !found {
			writeDetail(writer, http.StatusNotFound, "Post not found")
			return
		}

		post.Status = status
		writeJSON(writer, http.StatusOK, post)
	}
}

func (s *Server) listUsers(writer http.ResponseWriter, request *http.Request) {
	skip, limit := pageParams(request)

	s.mu.Lock()
	users := make([]backend.User, 0, len(s.accounts))
	for _, record := range s.accounts {
		users = append(users, record.user)
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(writer, http.StatusOK, paginate(users, skip, limit))
}

func (s *Server) toggleActive(writer http.ResponseWriter, request *http.Request) {
	id, ok := idParam(writer, request)
	if !ok {
		return
	}

	if id == caller(request).ID {
		writeDetail(writer, http.StatusBadRequest, "Cannot deactivate yourself")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, found := s.accounts[id]
	if !found {
		writeDetail(writer, http.StatusNotFound, "User not found")
		return
	}

	record.user.IsActive = !record.user.IsActive
	writeJSON(writer, http.StatusOK, record.user)
}

// # Newsletter

func (s *Server) subscribe(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if !decode(writer, request, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Emails match exactly, as the backend's column comparison does.
	if existing, ok := s.subscribers[input.Email]; ok {
		if existing.IsActive {
			writeJSON(writer, http.StatusCreated, backend.SubscribeResult{Message: "Email already subscribed", Subscribed: true})
			return
		}
		existing.IsActive = true
		writeJSON(writer, http.StatusCreated, backend.SubscribeResult{Message: "Subscription reactivated", Subscribed: true})
		return
	}

	s.nextID++
	s.subscribers[input.Email] = &backend.Subscriber{ID: s.nextID, Email: input.Email, IsActive: true, SubscribedAt: time.Now().UTC()}
	writeJSON(writer, http.StatusCreated, backend.SubscribeResult{Message: "Successfully subscribed to newsletter", Subscribed: true})
}

func (s *Server) unsubscribe(writer http.ResponseWriter, request *http.Request) {
	email := chi.URLParam(request, "email")

	s.mu.Lock()
	defer s.mu.Unlock()

	subscriber, ok := s.subscribers[email]
	if !ok {
		writeDetail(writer, http.StatusNotFound, "Email not found in subscribers")
		return
	}

	subscriber.IsActive = false
	writeJSON(writer, http.StatusOK, map[string]string{"message": "Successfully unsubscribed from newsletter"})
}

func (s *Server) listSubscribers(writer http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	subscribers := make([]backend.Subscriber, 0, len(s.subscribers))
	for _, subscriber := range s.subscribers {
		if subscriber.IsActive {
			subscribers = append(subscribers, *subscriber)
		}
	}
	s.mu.Unlock()

	sort.Slice(subscribers, func(i, j int) bool { return subscribers[i].ID < subscribers[j].ID })
	writeJSON(writer, http.StatusOK, subscribers)
}
