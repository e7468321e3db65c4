// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/constants"
	"github.com/taibuivan/dossier/internal/platform/ctxutil"
	"github.com/taibuivan/dossier/internal/platform/metrics"
	"github.com/taibuivan/dossier/internal/platform/sec"
)

// # Contracts & Types

// TokenIssuer signs and verifies access tokens. [*sec.TokenService] implements it.
type TokenIssuer interface {
	Issue(username string) (*sec.IssuedToken, error)
	Verify(token string) (*sec.AuthClaims, error)
	TimeToLive() time.Duration
}

// Service implements the credential store, token issuance and guard use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or token resolution must be reviewed with the same care as a schema change.
type Service struct {
	principals  PrincipalRepository
	revocations RevocationList
	tokens      TokenIssuer
	metrics     *metrics.Metrics

	// equalizerHash is compared against when the username is unknown, so that
	// unknown users and wrong passwords cost the same hashing work.
	equalizerOnce sync.Once
	equalizerHash string
}

// NewService constructs a new [Service] with necessary dependencies.
// recorder may be nil.
func NewService(principals PrincipalRepository, revocations RevocationList, tokens TokenIssuer, recorder *metrics.Metrics) *Service {
	return &Service{
		principals:  principals,
		revocations: revocations,
		tokens:      tokens,
		metrics:     recorder,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new principal.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register checks both uniqueness constraints, hashes the password, persists
the principal and issues its first token.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Session: Token and created principal
  - err: ErrDuplicateUsername, ErrDuplicateEmail or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Session, error) {

	// Username first, then email. Both checks are repeated by the store's
	// unique constraints for registrations racing each other.
	if _, err := service.principals.FindByUsername(context, input.Username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, ErrPrincipalNotFound) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	if _, err := service.principals.FindByEmail(context, input.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrPrincipalNotFound) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	principal := &Principal{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		IsActive:     true,
	}

	if err := service.principals.Create(context, principal); err != nil {
		if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "principal_registered",
		slog.Int64("principal_id", principal.ID),
	)

	return service.newSession(principal)
}

// # Authentication Flow

/*
Authenticate verifies a username and password.

Description: Unknown usernames still pay for one hash comparison, and every
failure (unknown user, wrong password, deactivated account) returns the same
ErrInvalidCredentials.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - *Principal: The authenticated principal
  - err: ErrInvalidCredentials or storage failures
*/
func (service *Service) Authenticate(context context.Context, username, password string) (*Principal, error) {
	logger := ctxutil.GetLogger(context)

	principal, err := service.principals.FindByUsername(context, username)
	if err != nil {
		if !errors.Is(err, ErrPrincipalNotFound) {
			return nil, fmt.Errorf("auth_service_authenticate_lookup_failed: %w", err)
		}
		sec.CheckPasswordHash(password, service.equalizer())
		logger.InfoContext(context, "login_failed", slog.String("reason", reasonUnknown))
		return nil, ErrInvalidCredentials
	}

	if !sec.CheckPasswordHash(password, principal.PasswordHash) {
		logger.InfoContext(context, "login_failed", slog.String("reason", "password"), slog.Int64("principal_id", principal.ID))
		return nil, ErrInvalidCredentials
	}

	if !principal.IsActive {
		logger.InfoContext(context, "login_failed", slog.String("reason", reasonInactive), slog.Int64("principal_id", principal.ID))
		return nil, ErrInvalidCredentials
	}

	// Upgrade legacy or weaker hashes while the plain text is at hand.
	if sec.NeedsRehash(principal.PasswordHash) {
		if upgraded, err := sec.HashPassword(password); err == nil {
			if err := service.principals.UpdatePasswordHash(context, principal.ID, upgraded); err != nil {
				logger.WarnContext(context, "password_rehash_failed", slog.Int64("principal_id", principal.ID), slog.Any("error", err))
			} else {
				principal.PasswordHash = upgraded
			}
		}
	}

	return principal, nil
}

/*
Login authenticates and issues a fresh token. Earlier tokens stay valid.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - *Session: Transport-ready token and principal
  - err: ErrInvalidCredentials or internal failures
*/
func (service *Service) Login(context context.Context, username, password string) (*Session, error) {
	principal, err := service.Authenticate(context, username, password)
	if err != nil {
		return nil, err
	}
	return service.newSession(principal)
}

// # Credential Store Lookups

// FindByUsername returns the principal with username, or ErrPrincipalNotFound.
func (service *Service) FindByUsername(context context.Context, username string) (*Principal, error) {
	return service.principals.FindByUsername(context, username)
}

// FindByEmail returns the principal with email, or ErrPrincipalNotFound.
func (service *Service) FindByEmail(context context.Context, email string) (*Principal, error) {
	return service.principals.FindByEmail(context, email)
}

// # Authorization Guard

/*
Resolve turns a bearer token into the identity of a live, active principal.

Description: Every expected rejection (malformed, bad signature, expired,
revoked, unknown subject, deactivated) collapses into ErrUnauthorized. The
reason is only recorded in logs and metrics. Storage failures surface as
internal errors instead, since they say nothing about the token.

Parameters:
  - context: context.Context
  - token: string (raw bearer token)

Returns:
  - *sec.Identity: Resolved caller
  - err: ErrUnauthorized or internal failures
*/
func (service *Service) Resolve(context context.Context, token string) (*sec.Identity, error) {
	claims, err := service.tokens.Verify(token)
	if err != nil {
		return nil, service.reject(context, verifyReason(err))
	}

	revoked, err := service.revocations.IsRevoked(context, claims.ID)
	if err != nil {
		return nil, apperr.ServiceUnavailable("Token revocation list unavailable")
	}
	if revoked {
		return nil, service.reject(context, reasonRevoked)
	}

	principal, err := service.principals.FindByUsername(context, claims.Username())
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, service.reject(context, reasonUnknown)
		}
		return nil, fmt.Errorf("auth_service_resolve_lookup_failed: %w", err)
	}

	if !principal.IsActive {
		return nil, service.reject(context, reasonInactive)
	}

	return &sec.Identity{
		PrincipalID: principal.ID,
		Username:    principal.Username,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

/*
Logout revokes the token the caller authenticated with.

Parameters:
  - context: context.Context
  - identity: *sec.Identity (from the guard)

Returns:
  - err: Revocation storage failures
*/
func (service *Service) Logout(context context.Context, identity *sec.Identity) error {
	if err := service.revocations.Revoke(context, identity.TokenID, time.Until(identity.ExpiresAt)); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "token_revoked", slog.Int64("principal_id", identity.PrincipalID))
	return nil
}

// # Internals

func (service *Service) newSession(principal *Principal) (*Session, error) {
	issued, err := service.tokens.Issue(principal.Username)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &Session{
		AccessToken: issued.Value,
		TokenType:   constants.TokenTypeBearer,
		ExpiresAt:   issued.ExpiresAt,
		ExpiresIn:   service.tokens.TimeToLive(),
		Principal:   principal,
	}, nil
}

func (service *Service) reject(context context.Context, reason string) error {
	service.metrics.AuthRejected(reason)
	ctxutil.GetLogger(context).DebugContext(context, "auth_rejected", slog.String("reason", reason))
	return ErrUnauthorized
}

func (service *Service) equalizer() string {
	service.equalizerOnce.Do(func() {
		hash, err := sec.HashPassword("dossier-login-equalizer")
		if err == nil {
			service.equalizerHash = hash
		}
	})
	return service.equalizerHash
}

func verifyReason(err error) string {
	switch {
	case errors.Is(err, sec.ErrTokenMalformed):
		return reasonMalformed
	case errors.Is(err, sec.ErrTokenSignature):
		return reasonSignature
	case errors.Is(err, sec.ErrTokenExpired):
		return reasonExpired
	default:
		return reasonInvalid
	}
}
