// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backendtest provides an in-memory alumni REST API for tests.

The fake routes every endpoint the portal consumes, issues real HS256 bearer
tokens, stores bcrypt password hashes, and enforces the same authorization
rules as the production backend (active accounts, admin-only routes, author
or admin for post edits). Faults can be injected per route.
*/
package backendtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 30 * time.Minute

type account struct {
	user backend.User
	hash []byte
}

type fault struct {
	status int
	detail string
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	secret []byte

	mu          sync.Mutex
	nextID      int
	accounts    map[int]*account
	profiles    map[int]*backend.AlumniProfile
	posts       map[int]*backend.Post
	subscribers map[string]*backend.Subscriber
	revoked     map[string]bool
	faults      map[string]fault
	calls       map[string]int
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	server := &Server{
		secret:      []byte("backendtest-signing-secret"),
		accounts:    make(map[int]*account),
		profiles:    make(map[int]*backend.AlumniProfile),
		posts:       make(map[int]*backend.Post),
		subscribers: make(map[string]*backend.Subscriber),
		revoked:     make(map[string]bool),
		faults:      make(map[string]fault),
		calls:       make(map[string]int),
	}
	server.Server = httptest.NewServer(server.routes())
	t.Cleanup(server.Close)

	return server
}

// # Seeding

// AddUser creates an account directly.
func (s *Server) AddUser(email, password, fullName string, role sec.UserRole) backend.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, fullName, role)
}

func (s *Server) addUserLocked(email, password, fullName string, role sec.UserRole) backend.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.nextID++
	record := &account{
		user: backend.User{
			ID:        s.nextID,
			Email:     email,
			FullName:  fullName,
			Role:      role,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		},
		hash: hash,
	}
	s.accounts[record.user.ID] = record
	return record.user
}

// AddPost creates a post directly.
func (s *Server) AddPost(authorID int, title, content string, status backend.PostStatus) backend.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	post := &backend.Post{
		ID:        s.nextID,
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		Status:    status,
		CreatedAt: time.Now().UTC().Add(time.Duration(s.nextID) * time.Millisecond),
	}
	s.posts[post.ID] = post
	return *post
}

// SetRole changes an account's role.
func (s *Server) SetRole(userID int, role sec.UserRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.accounts[userID]; ok {
		record.user.Role = role
	}
}

// # Inspection

// PostStatus returns the stored status of a post, or "" if it does not exist.
func (s *Server) PostStatus(id int) backend.PostStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post, ok := s.posts[id]; ok {
		return post.Status
	}
	return ""
}

// User returns the stored account.
func (s *Server) User(id int) (backend.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.accounts[id]
	if !ok {
		return backend.User{}, false
	}
	return record.user, true
}

// Calls reports how often METHOD path was requested.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// # Tokens

// Token issues a valid token for an account.
func (s *Server) Token(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID)
}

// Revoke makes a previously issued token answer 401.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

func (s *Server) issueLocked(userID int) string {
	s.nextID++
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ID:        strconv.Itoa(s.nextID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// # Fault Injection

// Fail makes the next request to METHOD path answer with status and detail.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = fault{status: status, detail: detail}
}

// # Routing

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(s.intercept)

	router.Get("/api/health", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]string{"status": "healthy"})
	})

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.With(s.active).Get("/me", s.me)
	})

	router.Route("/api/alumni", func(r chi.Router) {
		r.Get("/profiles", s.listProfiles)
		r.Get("/profiles/{id}", s.getProfile)
		r.With(s.active).Get("/profile", s.myProfile)
		r.With(s.active).Post("/profile", s.createProfile)
		r.With(s.active).Put("/profile", s.updateProfile)
	})

	router.Route("/api/posts", func(r chi.Router) {
		r.Get("/", s.listPosts)
		r.With(s.active).Post("/", s.createPost)
		r.With(s.active).Get("/my-posts", s.myPosts)
		r.Get("/{id}", s.getPost)
		r.With(s.active).Put("/{id}", s.updatePost)
		r.With(s.active).Delete("/{id}", s.deletePost)
	})

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(s.active, s.admin)
		r.Get("/posts/pending", s.pendingPosts)
		r.Put("/posts/{id}/approve", s.transition(backend.PostApproved))
		r.Put("/posts/{id}/reject", s.transition(backend.PostRejected))
		r.Get("/users", s.listUsers)
		r.Put("/users/{id}/toggle-active", s.toggleActive)
	})

	router.Route("/api/newsletter", func(r chi.Router) {
		r.Post("/subscribe", s.subscribe)
		r.Delete("/unsubscribe/{email}", s.unsubscribe)
		r.With(s.active, s.admin).Get("/subscribers", s.listSubscribers)
	})

	return router
}

// intercept counts calls and serves injected faults.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		key := request.Method + " " + request.URL.Path

		s.mu.Lock()
		s.calls[key]++
		injected, found := s.faults[key]
		delete(s.faults, key)
		s.mu.Unlock()

		if found {
			writeDetail(writer, injected.status, injected.detail)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// # Authorization

type ctxKey struct{}

func caller(request *http.Request) backend.User {
	user, _ := request.Context().Value(ctxKey{}).(backend.User)
	return user
}

// active resolves the bearer token to an active account.
func (s *Server) active(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token, ok := strings.CutPrefix(request.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeDetail(writer, http.StatusUnauthorized, "Not authenticated")
			return
		}

		user, err := s.verify(token)
		if err != nil {
			writeDetail(writer, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if !user.IsActive {
			writeDetail(writer, http.StatusBadRequest, "Inactive user")
			return
		}

		next.ServeHTTP(writer, request.WithContext(contextWithUser(request, user)))
	})
}

func (s *Server) admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !caller(request).Role.IsAdmin() {
			writeDetail(writer, http.StatusForbidden, "Not enough permissions")
			return
		}
		next.ServeHTTP(writer, request)
	})
}

func (s *Server) verify(token string) (backend.User, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return backend.User{}, errors.New("invalid token")
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return backend.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revoked[token] {
		return backend.User{}, errors.New("revoked")
	}
	record, ok := s.accounts[id]
	if !ok {
		return backend.User{}, errors.New("unknown subject")
	}
	return record.user, nil
}

// # Helpers

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(writer).Encode(payload)
	}
}

func writeDetail(writer http.ResponseWriter, status int, detail string) {
	writeJSON(writer, status, map[string]string{"detail": detail})
}

func decode(writer http.ResponseWriter, request *http.Request, target any) bool {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": "Invalid request body", "type": "value_error"}},
		})
		return false
	}
	return true
}

func idParam(writer http.ResponseWriter, request *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(request, "id"))
	if err != nil {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"path", "id"}, "msg": "Input should be a valid integer", "type": "int_parsing"}},
		})
		return 0, false
	}
	return id, true
}

func pageParams(request *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(request.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(request.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	return max(skip, 0), limit
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	return items[skip:min(skip+limit, len(items))]
}

// sortNewestFirst orders posts by creation time, newest first.
func sortNewestFirst(posts []backend.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
