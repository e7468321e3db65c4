// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/dossier/internal/platform/apperr"

// # Input Constraints

const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	EmailMaxLength    = 254
	PasswordMinLength = 8
	PasswordMaxLength = 128
	DisplayNameMaxLen = 100
)

// # Domain Errors

var (
	// ErrDuplicateUsername is returned when the username is already registered.
	ErrDuplicateUsername = apperr.ConflictCode("DUPLICATE_USERNAME", "Username already registered")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = apperr.ConflictCode("DUPLICATE_EMAIL", "Email already registered")

	// ErrInvalidCredentials is the single login failure, whatever went wrong.
	ErrInvalidCredentials = apperr.UnauthorizedCode("INVALID_CREDENTIALS", "Incorrect username or password")

	// ErrUnauthorized is the single guard failure, whatever went wrong.
	ErrUnauthorized = apperr.Unauthorized("Could not validate credentials")

	// ErrPrincipalNotFound signals absence from a repository lookup.
	ErrPrincipalNotFound = apperr.NotFound("Principal")
)

// Guard rejection reasons. They label metrics and logs only.
const (
	reasonMalformed = "malformed"
	reasonSignature = "signature"
	reasonExpired   = "expired"
	reasonInvalid   = "invalid"
	reasonRevoked   = "revoked"
	reasonUnknown   = "unknown_principal"
	reasonInactive  = "inactive"
)
