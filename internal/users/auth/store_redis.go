// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/dossier/internal/platform/constants"
)

// RedisRevocationList implements [RevocationList] using Redis keys with TTLs.
type RedisRevocationList struct {
	client *redis.Client
}

// NewRevocationList creates a new Redis-backed RevocationList.
func NewRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

/*
Revoke stores the token ID until the token itself would have expired.

Parameters:
  - context: context.Context
  - tokenID: string (the jti claim)
  - ttl: time.Duration (remaining token lifetime)

Returns:
  - error: Execution errors
*/
func (list *RedisRevocationList) Revoke(context context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := list.client.Set(context, constants.RedisPrefixRevokedToken+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis_revocation_set_failed: %w", err)
	}

	return nil
}

/*
IsRevoked reports whether the token ID is present.

Returns:
  - bool: true if revoked
  - error: Connectivity errors
*/
func (list *RedisRevocationList) IsRevoked(context context.Context, tokenID string) (bool, error) {
	count, err := list.client.Exists(context, constants.RedisPrefixRevokedToken+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revocation_exists_failed: %w", err)
	}

	return count > 0, nil
}
