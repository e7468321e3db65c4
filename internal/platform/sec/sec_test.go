// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/dossier/internal/platform/sec"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

/*
TestHashPassword_RoundTrip verifies argon2id hashing and comparison.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	assert.NotContains(t, hash, "correct horse")
	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
	assert.False(t, sec.NeedsRehash(hash))

	// Salted: two hashes of the same password differ.
	other, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

/*
TestCheckPasswordHash_LegacyBcrypt verifies that bcrypt hashes still verify
and are flagged for upgrade.
*/
func TestCheckPasswordHash_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("secret-pass", string(legacy)))
	assert.False(t, sec.CheckPasswordHash("other-pass", string(legacy)))
	assert.True(t, sec.NeedsRehash(string(legacy)))
}

/*
TestCheckPasswordHash_Malformed ensures garbage hashes never match.
*/
func TestCheckPasswordHash_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$onlysalt",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5",
	}

	for _, hash := range tests {
		assert.False(t, sec.CheckPasswordHash("anything", hash), hash)
	}
}

/*
TestTokenService_IssueVerify verifies the happy path and claim contents.
*/
func TestTokenService_IssueVerify(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "dossier.test", 30*time.Minute)
	require.NoError(t, err)

	issued, err := service.Issue("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), issued.ExpiresAt, 2*time.Second)

	claims, err := service.Verify(issued.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username())
	assert.Equal(t, issued.ID, claims.ID)

	parsed, err := uuid.Parse(issued.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	again, err := service.Issue("alice")
	require.NoError(t, err)
	assert.NotEqual(t, issued.ID, again.ID)
}

/*
TestTokenService_Rejections covers every failure class of Verify.
*/
func TestTokenService_Rejections(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	service, err := sec.NewTokenService(testSecret, "dossier.test", 30*time.Minute)
	require.NoError(t, err)
	service = service.WithClock(func() time.Time { return base })

	issued, err := service.Issue("alice")
	require.NoError(t, err)

	otherKey, err := sec.NewTokenService([]byte("another-secret-another-secret-xx"), "dossier.test", 30*time.Minute)
	require.NoError(t, err)
	forged, err := otherKey.WithClock(func() time.Time { return base }).Issue("alice")
	require.NoError(t, err)

	otherIssuer, err := sec.NewTokenService(testSecret, "someone.else", 30*time.Minute)
	require.NoError(t, err)
	foreign, err := otherIssuer.WithClock(func() time.Time { return base }).Issue("alice")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		clock   time.Time
		wantErr error
	}{
		{"garbage", "not-a-token", base, sec.ErrTokenMalformed},
		{"empty", "", base, sec.ErrTokenMalformed},
		{"wrong_secret", forged.Value, base, sec.ErrTokenSignature},
		{"tampered_payload", tamper(issued.Value), base, sec.ErrTokenSignature},
		{"expired", issued.Value, base.Add(31 * time.Minute), sec.ErrTokenExpired},
		{"wrong_issuer", foreign.Value, base, sec.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := service.WithClock(func() time.Time { return tt.clock })
			claims, err := verifier.Verify(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Just before expiry the same token is still accepted.
	claims, err := service.WithClock(func() time.Time { return base.Add(29 * time.Minute) }).Verify(issued.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username())
}

/*
TestNewTokenService_Validation rejects unusable configuration.
*/
func TestNewTokenService_Validation(t *testing.T) {
	_, err := sec.NewTokenService(nil, "dossier.test", time.Minute)
	assert.Error(t, err)

	_, err = sec.NewTokenService(testSecret, "dossier.test", 0)
	assert.Error(t, err)
}

// tamper swaps the payload segment for one claiming a different subject.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	// {"sub":"mallory","iss":"dossier.test","exp":9999999999}
	parts[1] = "eyJzdWIiOiJtYWxsb3J5IiwiaXNzIjoiZG9zc2llci50ZXN0IiwiZXhwIjo5OTk5OTk5OTk5fQ"
	return strings.Join(parts, ".")
}
