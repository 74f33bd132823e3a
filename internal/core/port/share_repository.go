package port

import (
	"context"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
)

// ShareRepository exposes persistence behavior for list shares.
type ShareRepository interface {
	// Upsert creates the share or, when a row for (list, user) already
	// exists, updates its role in place.
	Upsert(ctx context.Context, share domain.ListShare) (*domain.ListShare, error)
	GetByID(ctx context.Context, id int64) (*domain.ListShare, error)
	GetForUser(ctx context.Context, listID, userID int64) (*domain.ListShare, error)
	ListByList(ctx context.Context, listID int64) ([]domain.ListShare, error)
	UpdateRole(ctx context.Context, id int64, role domain.ShareRole) error
	Delete(ctx context.Context, id int64) error
	SetHidden(ctx context.Context, listID, userID int64, hidden bool) error
}
