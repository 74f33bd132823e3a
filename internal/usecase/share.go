package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// ShareService manages list collaboration grants. All operations are
// owner-only; non-owners observe the same ErrListNotFound as strangers.
type ShareService struct {
	shares      port.ShareRepository
	users       port.UserRepository
	permissions *PermissionService
	events      port.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// ShareGrant describes a share together with the grantee's email for display.
type ShareGrant struct {
	Share domain.ListShare
	Email string
}

// NewShareService constructs a ShareService.
func NewShareService(shares port.ShareRepository, users port.UserRepository, permissions *PermissionService, events port.EventPublisher, log *zap.Logger) *ShareService {
	if log == nil {
		log = zap.NewNop()
	}

	return &ShareService{
		shares:      shares,
		users:       users,
		permissions: permissions,
		events:      events,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *ShareService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Shares lists the grants on an owned list.
func (s *ShareService) Shares(ctx context.Context, ownerID, listID int64) ([]ShareGrant, error) {
	if _, err := s.permissions.RequireOwner(ctx, ownerID, listID); err != nil {
		return nil, err
	}

	shares, err := s.shares.ListByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}

	grants := make([]ShareGrant, 0, len(shares))
	for _, share := range shares {
		grant := ShareGrant{Share: share}
		if user, err := s.users.GetByID(ctx, share.UserID); err == nil {
			grant.Email = user.Email
		}
		grants = append(grants, grant)
	}

	return grants, nil
}

// Grant shares an owned list with another account by email. Granting to a
// user who already holds a share updates the role in place.
func (s *ShareService) Grant(ctx context.Context, ownerID, listID int64, email string, role domain.ShareRole) (*ShareGrant, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	list, err := s.permissions.RequireOwner(ctx, ownerID, listID)
	if err != nil {
		return nil, err
	}

	grantee, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup grantee: %w", err)
	}

	if grantee.ID == ownerID {
		return nil, ErrSelfShare
	}

	now := s.now().UTC()
	share, err := s.shares.Upsert(ctx, domain.ListShare{
		ListID:    listID,
		UserID:    grantee.ID,
		Role:      role,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert share: %w", err)
	}

	if s.events != nil {
		event := domain.ListSharedEvent{
			EventID:  uuid.NewString(),
			ListID:   listID,
			OwnerID:  list.OwnerID,
			UserID:   grantee.ID,
			Role:     role,
			SharedAt: now,
		}
		if err := s.events.PublishListShared(ctx, event); err != nil {
			s.logger.Warn("publish list shared event failed", zap.Error(err))
		}
	}

	s.logger.Info("List shared",
		zap.Int64("list_id", listID),
		zap.Int64("owner_id", ownerID),
		zap.Int64("grantee_id", grantee.ID),
		zap.String("role", string(role)),
	)

	return &ShareGrant{Share: *share, Email: grantee.Email}, nil
}

// UpdateRole changes the role on an existing grant of an owned list.
func (s *ShareService) UpdateRole(ctx context.Context, ownerID, listID, shareID int64, role domain.ShareRole) (*domain.ListShare, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.permissions.RequireOwner(ctx, ownerID, listID); err != nil {
		return nil, err
	}

	share, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("lookup share: %w", err)
	}

	if share.ListID != listID {
		return nil, ErrShareNotFound
	}

	if err := s.shares.UpdateRole(ctx, shareID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("update share role: %w", err)
	}

	share.Role = role
	return share, nil
}

// Revoke removes a grant from an owned list.
func (s *ShareService) Revoke(ctx context.Context, ownerID, listID, shareID int64) error {
	if _, err := s.permissions.RequireOwner(ctx, ownerID, listID); err != nil {
		return err
	}

	share, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrShareNotFound
		}
		return fmt.Errorf("lookup share: %w", err)
	}

	if share.ListID != listID {
		return ErrShareNotFound
	}

	if err := s.shares.Delete(ctx, shareID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrShareNotFound
		}
		return fmt.Errorf("delete share: %w", err)
	}

	s.logger.Info("Share revoked",
		zap.Int64("list_id", listID),
		zap.Int64("share_id", shareID),
		zap.Int64("owner_id", ownerID),
	)

	return nil
}
