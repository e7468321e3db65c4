// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential store, token issuance and the
authorization guard.

# Architecture

A principal registers once, authenticates with a username and password, and
receives a short-lived signed bearer token. Every protected request hands that
token to [Service.Resolve], which turns it back into a live, active principal
or rejects it with one uniform error.
*/
package auth

import "time"

// # Domain Entities

// Principal is a registered account that owns documents.
//
// Username is case-sensitive and immutable. Principals are never hard
// deleted; deactivation flips IsActive.
type Principal struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string    `json:"display_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary is the client-facing view of a principal.
type Summary struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary projects the principal onto its client-facing view.
func (principal *Principal) Summary() Summary {
	return Summary{
		ID:          principal.ID,
		Username:    principal.Username,
		Email:       principal.Email,
		DisplayName: principal.DisplayName,
		IsActive:    principal.IsActive,
		CreatedAt:   principal.CreatedAt,
	}
}

// Session is what a successful register or login hands back.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
	Principal   *Principal
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldExpiresIn   = "expires_in"
	FieldUser        = "user"
)
