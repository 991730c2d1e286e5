// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"time"

	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

// # Identity

// User is the authenticated identity as the backend reports it.
type User struct {
	ID        int          `json:"id"`
	Email     string       `json:"email"`
	FullName  string       `json:"full_name"`
	Role      sec.UserRole `json:"role"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsAdmin reports whether the identity carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// LoginInput is the login form payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the account creation payload.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// # Posts

// PostStatus is the moderation state of a post.
type PostStatus string

const (
	PostPending  PostStatus = "pending"
	PostApproved PostStatus = "approved"
	PostRejected PostStatus = "rejected"
)

// Post is a community post.
type Post struct {
	ID        int        `json:"id"`
	AuthorID  int        `json:"author_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Status    PostStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Author    *User      `json:"author,omitempty"`
}

// PostInput is the create payload.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostUpdate is the edit payload. Nil fields are not sent and keep their value.
type PostUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// PostFilter narrows the post listing. The zero value lists approved posts.
type PostFilter struct {
	Skip   int
	Limit  int
	Status PostStatus
}

// # Profiles

// AlumniProfile is the optional extended profile of an identity.
type AlumniProfile struct {
	ID                int        `json:"id"`
	UserID            int        `json:"user_id"`
	GraduationYear    *int       `json:"graduation_year,omitempty"`
	Major             *string    `json:"major,omitempty"`
	CurrentPosition   *string    `json:"current_position,omitempty"`
	Company           *string    `json:"company,omitempty"`
	Bio               *string    `json:"bio,omitempty"`
	LinkedinURL       *string    `json:"linkedin_url,omitempty"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	User              *User      `json:"user,omitempty"`
}

// ProfileInput is the create and update payload. Nil fields are omitted.
type ProfileInput struct {
	GraduationYear    *int    `json:"graduation_year,omitempty"`
	Major             *string `json:"major,omitempty"`
	CurrentPosition   *string `json:"current_position,omitempty"`
	Company           *string `json:"company,omitempty"`
	Bio               *string `json:"bio,omitempty"`
	LinkedinURL       *string `json:"linkedin_url,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

// profileReplacement sends every editable field. Nil strings go out as ""
// and a nil graduation year as null, so blanked fields are cleared.
type profileReplacement struct {
	GraduationYear    *int   `json:"graduation_year"`
	Major             string `json:"major"`
	CurrentPosition   string `json:"current_position"`
	Company           string `json:"company"`
	Bio               string `json:"bio"`
	LinkedinURL       string `json:"linkedin_url"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

func (input ProfileInput) replacement() profileReplacement {
	value := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return profileReplacement{
		GraduationYear:    input.GraduationYear,
		Major:             value(input.Major),
		CurrentPosition:   value(input.CurrentPosition),
		Company:           value(input.Company),
		Bio:               value(input.Bio),
		LinkedinURL:       value(input.LinkedinURL),
		ProfilePictureURL: value(input.ProfilePictureURL),
	}
}

// Input returns the editable fields of the profile.
func (p *AlumniProfile) Input() ProfileInput {
	return ProfileInput{
		GraduationYear:    p.GraduationYear,
		Major:             p.Major,
		CurrentPosition:   p.CurrentPosition,
		Company:           p.Company,
		Bio:               p.Bio,
		LinkedinURL:       p.LinkedinURL,
		ProfilePictureURL: p.ProfilePictureURL,
	}
}

// Page bounds a listing.
type Page struct {
	Skip  int
	Limit int
}

// # Newsletter

// SubscribeResult is the newsletter subscription outcome.
type SubscribeResult struct {
	Message    string `json:"message"`
	Subscribed bool   `json:"subscribed"`
}

// Subscriber is one newsletter subscription.
type Subscriber struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// message is the generic {"message": ...} response body.
type message struct {
	Message string `json:"message"`
}
