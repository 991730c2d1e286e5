// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"sync"
	"time"

	"github.com/taibuivan/alumniportal/internal/backend"
)

// PostSet is an ordered, concurrency-safe collection of posts owned by a page.
type PostSet struct {
	mu    sync.RWMutex
	posts []backend.Post
}

// NewPostSet copies posts into a new set.
func NewPostSet(posts []backend.Post) *PostSet {
	return &PostSet{posts: append([]backend.Post(nil), posts...)}
}

// Items returns a copy of the posts in order.
func (s *PostSet) Items() []backend.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]backend.Post(nil), s.posts...)
}

// Len returns the number of posts.
func (s *PostSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Get returns the post with id.
func (s *PostSet) Get(id int) (backend.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, post := range s.posts {
		if post.ID == id {
			return post, true
		}
	}
	return backend.Post{}, false
}

// Remove drops the post with id and reports whether it was present.
func (s *PostSet) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for index, post := range s.posts {
		if post.ID == id {
			s.posts = append(s.posts[:index], s.posts[index+1:]...)
			return true
		}
	}
	return false
}

// UserList is an ordered, concurrency-safe collection of accounts owned by a page.
type UserList struct {
	mu    sync.RWMutex
	users []backend.User
}

// NewUserList copies users into a new list.
func NewUserList(users []backend.User) *UserList {
	return &UserList{users: append([]backend.User(nil), users...)}
}

// Items returns a copy of the users in order.
func (l *UserList) Items() []backend.User {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]backend.User(nil), l.users...)
}

// Get returns the user with id.
func (l *UserList) Get(id int) (backend.User, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, user := range l.users {
		if user.ID == id {
			return user, true
		}
	}
	return backend.User{}, false
}

// Replace swaps the entry with the same id for user, keeping its position.
func (l *UserList) Replace(user backend.User) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for index := range l.users {
		if l.users[index].ID == user.ID {
			l.users[index] = user
			return true
		}
	}
	return false
}

// Board is the admin console's working set.
type Board struct {
	Pending  *PostSet
	Users    *UserList
	LoadedAt time.Time
}
