// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, JWT signing)
// from the domain logic. Services receive a [*TokenService] through their
// constructors; nothing here reads configuration on its own.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/dossier/pkg/uuid"
)

// # Token Errors

// Verification outcomes. Callers collapse all of them into a single
// unauthorized response; the distinction only feeds logs and metrics.
var (
	ErrTokenMalformed = errors.New("sec: token malformed")
	ErrTokenSignature = errors.New("sec: token signature invalid")
	ErrTokenExpired   = errors.New("sec: token expired")
	ErrTokenInvalid   = errors.New("sec: token invalid")
)

// AuthClaims represents the payload embedded inside an access token.
//
// The subject is the principal's username; the ID (jti) identifies this
// particular token so it can be revoked before it expires.
type AuthClaims struct {
	jwt.RegisteredClaims
}

// Username returns the subject of the token.
func (claims *AuthClaims) Username() string { return claims.Subject }

// IssuedToken is a freshly signed access token.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenService signs and verifies HS256 access tokens with a process-wide secret.
type TokenService struct {
	secret     []byte
	issuer     string
	timeToLive time.Duration
	now        func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret []byte, issuer string, timeToLive time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("sec: signing secret is empty")
	}
	if timeToLive <= 0 {
		return nil, errors.New("sec: token lifetime must be positive")
	}

	return &TokenService{
		secret:     secret,
		issuer:     issuer,
		timeToLive: timeToLive,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *service
	clone.now = now
	return &clone
}

// TimeToLive reports the lifetime of issued tokens.
func (service *TokenService) TimeToLive() time.Duration {
	return service.timeToLive
}

// Issue creates a signed token whose subject is username.
func (service *TokenService) Issue(username string) (*IssuedToken, error) {
	issuedAt := service.now()
	expiresAt := issuedAt.Add(service.timeToLive)

	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   username,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return &IssuedToken{
		Value:     signedToken,
		ID:        claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature, issuer and expiry of a token string.
//
// The returned error is one of [ErrTokenMalformed], [ErrTokenSignature],
// [ErrTokenExpired] or [ErrTokenInvalid].
func (service *TokenService) Verify(tokenString string) (*AuthClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	claims := &AuthClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return service.secret, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// # Request Identity

// Identity is the resolved, authenticated caller attached to a request context.
type Identity struct {
	PrincipalID int64
	Username    string
	TokenID     string
	ExpiresAt   time.Time
}
