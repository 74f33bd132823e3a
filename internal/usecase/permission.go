package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// PermissionService resolves what a user may do with a list. Denials are
// reported as ErrListNotFound so callers cannot distinguish "no access" from
// "does not exist".
type PermissionService struct {
	lists  port.ListRepository
	shares port.ShareRepository
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(lists port.ListRepository, shares port.ShareRepository) *PermissionService {
	return &PermissionService{lists: lists, shares: shares}
}

// RoleFor returns the list and the user's effective role on it. Owners are
// owners regardless of shares; a share's hidden flag never weakens access.
func (s *PermissionService) RoleFor(ctx context.Context, userID, listID int64) (*domain.GroceryList, domain.ListRole, error) {
	list, err := s.lists.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrListNotFound
		}
		return nil, "", fmt.Errorf("lookup list: %w", err)
	}

	if list.OwnerID == userID {
		return list, domain.ListRoleOwner, nil
	}

	share, err := s.shares.GetForUser(ctx, listID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrListNotFound
		}
		return nil, "", fmt.Errorf("lookup share: %w", err)
	}

	switch share.Role {
	case domain.ShareRoleEditor:
		return list, domain.ListRoleEditor, nil
	case domain.ShareRoleViewer:
		return list, domain.ListRoleViewer, nil
	default:
		return nil, "", ErrListNotFound
	}
}

// RequireRead returns the list when the user may read it.
func (s *PermissionService) RequireRead(ctx context.Context, userID, listID int64) (*domain.GroceryList, error) {
	list, _, err := s.RoleFor(ctx, userID, listID)
	return list, err
}

// RequireWrite returns the list when the user may modify its contents.
// Viewers get the same ErrListNotFound as strangers.
func (s *PermissionService) RequireWrite(ctx context.Context, userID, listID int64) (*domain.GroceryList, error) {
	list, role, err := s.RoleFor(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	if role != domain.ListRoleOwner && role != domain.ListRoleEditor {
		return nil, ErrListNotFound
	}

	return list, nil
}

// RequireOwner returns the list only for its owner. Non-owners get
// ErrListNotFound even when they hold a share, keeping ownership-only
// surfaces invisible to collaborators.
func (s *PermissionService) RequireOwner(ctx context.Context, userID, listID int64) (*domain.GroceryList, error) {
	list, err := s.lists.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("lookup list: %w", err)
	}

	if list.OwnerID != userID {
		return nil, ErrListNotFound
	}

	return list, nil
}
