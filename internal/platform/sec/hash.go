// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// # Password Hashing

// Argon2id parameters for newly created hashes.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

const argonPrefix = "$argon2id$"

// errMalformedHash is returned when a stored hash cannot be decoded.
var errMalformedHash = errors.New("sec: malformed password hash")

// HashPassword derives an argon2id hash from a plain-text password.
//
// The result is self-describing (PHC string format), so the parameters used
// to create it travel with the hash:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func HashPassword(plainTextPassword string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plainTextPassword), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix,
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// CheckPasswordHash compares a plain-text password with a stored hash.
//
// Both argon2id hashes and legacy bcrypt hashes are accepted. Unknown or
// malformed hashes never match.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	switch {
	case strings.HasPrefix(existingHash, argonPrefix):
		ok, err := compareArgon2id(plainTextPassword, existingHash)
		return err == nil && ok
	case isBcrypt(existingHash):
		return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword)) == nil
	default:
		return false
	}
}

// NeedsRehash reports whether a stored hash was produced by an older
// algorithm or with weaker parameters than the current defaults.
func NeedsRehash(existingHash string) bool {
	if !strings.HasPrefix(existingHash, argonPrefix) {
		return true
	}
	params, _, _, err := decodeArgon2id(existingHash)
	if err != nil {
		return true
	}
	return params != (argonParams{memory: argonMemory, time: argonTime, threads: argonThreads})
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func compareArgon2id(plainTextPassword, encoded string) (bool, error) {
	params, salt, key, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plainTextPassword), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

// decodeArgon2id splits "$argon2id$v=19$m=..,t=..,p=..$salt$key".
func decodeArgon2id(encoded string) (argonParams, []byte, []byte, error) {
	var params argonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return params, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, errMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return params, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errMalformedHash
	}

	return params, salt, key, nil
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
