// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered store account.
//
// Accounts are created either with an email/password pair (the normal flow)
// or via GitHub sign-in. For OAuth-only accounts PasswordHash stays empty,
// which can never verify against any password — so password login is
// effectively disabled for them without any extra branching.
//
// WHY ID string (not int)?
// We generate xid identifiers in the repository rather than relying on the
// database's autoincrement. xids are sortable, URL-safe, and don't leak how
// many users the store has.
//
// PasswordHash is the full bcrypt output ($2a$10$salt+digest). It is tagged
// `json:"-"` so it can never leak through an encoder, no matter which
// handler serializes a User.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Name         string    `json:"name"      db:"name"`      // display name (may be empty)
	LastPost     string    `json:"lastPost"  db:"last_post"` // last forum activity (may be empty)
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	GitHubID     int64     `json:"-"         db:"github_id"` // 0 for password accounts
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the projection returned by GET /api/me.
//
// Name falls back to the local part of the email ("ana@example.com" → "ana")
// and LastPost to a placeholder when the user has no activity yet. AvatarURL
// is a pointer so an unset avatar serializes as JSON null, which is what the
// frontend expects.
type Profile struct {
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	LastPost  string  `json:"lastPost"`
	AvatarURL *string `json:"avatarUrl"`
}
