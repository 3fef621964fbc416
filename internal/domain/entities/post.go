// Package entities defines the domain records the driver presence subsystem
// reads and produces. Posts and users are read-only views owned by an external
// store; DriverLocation is a value object built on every query.
//
// Go Learning Note — "internal/" directory:
// Packages under internal/ cannot be imported by code outside this module. Go
// enforces this at the compiler level.
package entities

import (
	"strings"
	"time"
)

// Post is a driver's ride offer as stored by the external write path.
//
// Go Learning Note — Pointer Fields for Nullable Columns:
// MatchedUserID and SourceCoordinates are *string because the store can hold
// NULL for both. A nil pointer means "no value", which is different from the
// empty string. database drivers such as pgx scan NULL into a nil pointer.
type Post struct {
	ID                string    `json:"id" yaml:"id"`
	UserID            string    `json:"user_id" yaml:"user_id"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
	MatchedUserID     *string   `json:"matched_user_id,omitempty" yaml:"matched_user_id"`
	SourceCoordinates *string   `json:"source_coordinates,omitempty" yaml:"source_coordinates"`
}

// IsMatched reports whether a rider has been matched to this post.
func (p *Post) IsMatched() bool {
	return p.MatchedUserID != nil
}

// RawCoordinates returns the stored location payload, or "" when it is NULL.
func (p *Post) RawCoordinates() string {
	if p.SourceCoordinates == nil {
		return ""
	}
	return *p.SourceCoordinates
}

// IsActive reports whether the post is unmatched, carries a location payload
// and was created strictly after now-window.
func (p *Post) IsActive(now time.Time, window time.Duration) bool {
	if p.IsMatched() {
		return false
	}
	if strings.TrimSpace(p.RawCoordinates()) == "" {
		return false
	}
	return p.CreatedAt.After(now.Add(-window))
}

// User is the public projection of a driver's account.
type User struct {
	ID             string `json:"id" yaml:"id"`
	DisplayName    string `json:"display_name" yaml:"display_name"`
	HasCustomPhoto bool   `json:"has_custom_photo" yaml:"has_custom_photo"`
}

// PostWithUser is what the store returns for the active-driver query: the
// post joined with its owner's public fields.
type PostWithUser struct {
	Post Post
	User User
}
