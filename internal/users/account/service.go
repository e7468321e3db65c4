// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/dossier/internal/platform/ctxutil"
	"github.com/taibuivan/dossier/internal/platform/sec"
	"github.com/taibuivan/dossier/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for the caller's own account.
type Service struct {
	accountRepository Repository
	documents         DocumentCounter
	index             IndexInspector
	revoker           TokenRevoker
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo Repository, documents DocumentCounter, index IndexInspector, revoker TokenRevoker) *Service {
	return &Service{
		accountRepository: accountRepo,
		documents:         documents,
		index:             index,
		revoker:           revoker,
	}
}

// # Profile Management

/*
GetProfile retrieves the caller's principal record.

Parameters:
  - context: context.Context
  - principalID: int64

Returns:
  - *auth.Principal: The hydrated principal
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, principalID int64) (*auth.Principal, error) {
	principal, err := service.accountRepository.FindByID(context, principalID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return principal, nil
}

// UpdateProfileInput defines the mutable subset of profile fields.
type UpdateProfileInput struct {
	DisplayName *string
}

/*
UpdateProfile applies a partial set of changes to the caller's profile.

Description: Username and email are immutable; only the display name can be
changed. A nil field is left untouched.

Parameters:
  - context: context.Context
  - principalID: int64
  - input: UpdateProfileInput

Returns:
  - *auth.Principal: The updated principal
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, principalID int64, input UpdateProfileInput) (*auth.Principal, error) {
	if input.DisplayName == nil {
		return service.GetProfile(context, principalID)
	}

	principal, err := service.accountRepository.UpdateDisplayName(context, principalID, *input.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "principal_profile_updated", slog.Int64("principal_id", principalID))

	return principal, nil
}

/*
Deactivate soft-disables the caller's account.

Description: The record is kept with its active flag cleared. The presenting
token is revoked outright; every other outstanding token fails the guard's
active check from now on.

Parameters:
  - context: context.Context
  - identity: *sec.Identity

Returns:
  - error: Execution failures
*/
func (service *Service) Deactivate(context context.Context, identity *sec.Identity) error {
	if err := service.accountRepository.Deactivate(context, identity.PrincipalID); err != nil {
		return fmt.Errorf("account_service_deactivate_failed: %w", err)
	}

	if err := service.revoker.Logout(context, identity); err != nil {
		return fmt.Errorf("account_service_deactivate_revoke_failed: %w", err)
	}

	ctxutil.GetLogger(context).WarnContext(context, "principal_deactivated", slog.Int64("principal_id", identity.PrincipalID))

	return nil
}

/*
Status reports the caller's document count and index readiness.

Parameters:
  - context: context.Context
  - identity: *sec.Identity

Returns:
  - *Status: Collection summary
  - error: Registry failures
*/
func (service *Service) Status(context context.Context, identity *sec.Identity) (*Status, error) {
	count, err := service.documents.CountForOwner(context, identity.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("account_service_status_failed: %w", err)
	}

	return &Status{
		Status:         StatusRunning,
		UserID:         identity.PrincipalID,
		Username:       identity.Username,
		DocumentsCount: count,
		IndexReady:     service.index.Ready(context, identity.PrincipalID),
	}, nil
}
