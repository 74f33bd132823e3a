package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// ListService manages grocery lists and their items on behalf of a user.
// Every operation resolves the caller's effective role first; access failures
// come back as ErrListNotFound / ErrItemNotFound.
type ListService struct {
	lists       port.ListRepository
	shares      port.ShareRepository
	permissions *PermissionService
	logger      *zap.Logger
	now         func() time.Time
}

// ItemInput carries the mutable fields of a list item.
type ItemInput struct {
	Name      string
	Quantity  int
	Expiry    *time.Time
	Purchased *bool
	RemindOn  *time.Time
}

// ListDetail pairs a list with the caller's role and the list contents.
type ListDetail struct {
	List  domain.GroceryList
	Role  domain.ListRole
	Items []domain.ListItem
}

// NewListService constructs a ListService.
func NewListService(lists port.ListRepository, shares port.ShareRepository, permissions *PermissionService, log *zap.Logger) *ListService {
	if log == nil {
		log = zap.NewNop()
	}

	return &ListService{
		lists:       lists,
		shares:      shares,
		permissions: permissions,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *ListService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Lists returns the user's owned lists plus non-hidden shared lists, each
// annotated with the effective role.
func (s *ListService) Lists(ctx context.Context, userID int64) ([]domain.ListView, error) {
	views, err := s.lists.ListsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	return views, nil
}

// RoleFor reports the caller's effective role on a list.
func (s *ListService) RoleFor(ctx context.Context, userID, listID int64) (domain.ListRole, error) {
	_, role, err := s.permissions.RoleFor(ctx, userID, listID)
	if err != nil {
		return "", err
	}
	return role, nil
}

// CreateList creates a list owned by the user.
func (s *ListService) CreateList(ctx context.Context, userID int64, name string) (*domain.GroceryList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("list name is required")
	}

	list, err := s.lists.CreateList(ctx, domain.GroceryList{
		Name:      name,
		OwnerID:   userID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.logger.Info("List created", zap.Int64("user_id", userID), zap.Int64("list_id", list.ID))

	return list, nil
}

// GetList returns a readable list with its items and the caller's role.
func (s *ListService) GetList(ctx context.Context, userID, listID int64) (*ListDetail, error) {
	list, role, err := s.permissions.RoleFor(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	items, err := s.lists.ListItems(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return &ListDetail{List: *list, Role: role, Items: items}, nil
}

// RenameList updates the list name for owners and editors.
func (s *ListService) RenameList(ctx context.Context, userID, listID int64, name string) (*domain.GroceryList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("list name is required")
	}

	list, err := s.permissions.RequireWrite(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	if err := s.lists.RenameList(ctx, listID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("rename list: %w", err)
	}

	renamed := *list
	renamed.Name = name
	return &renamed, nil
}

// DeleteList removes a list. Only the owner may delete; collaborators get a 404.
func (s *ListService) DeleteList(ctx context.Context, userID, listID int64) error {
	if _, err := s.permissions.RequireOwner(ctx, userID, listID); err != nil {
		return err
	}

	if err := s.lists.DeleteList(ctx, listID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListNotFound
		}
		return fmt.Errorf("delete list: %w", err)
	}

	s.logger.Info("List deleted", zap.Int64("user_id", userID), zap.Int64("list_id", listID))

	return nil
}

// Items returns the items of a readable list.
func (s *ListService) Items(ctx context.Context, userID, listID int64) ([]domain.ListItem, error) {
	if _, err := s.permissions.RequireRead(ctx, userID, listID); err != nil {
		return nil, err
	}

	items, err := s.lists.ListItems(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// AddItem appends an item to a writable list.
func (s *ListService) AddItem(ctx context.Context, userID, listID int64, input ItemInput) (*domain.ListItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("item name is required")
	}

	if _, err := s.permissions.RequireWrite(ctx, userID, listID); err != nil {
		return nil, err
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	item := domain.ListItem{
		ListID:   listID,
		Name:     name,
		Quantity: quantity,
		Expiry:   input.Expiry,
		RemindOn: input.RemindOn,
	}
	if input.Purchased != nil {
		item.Purchased = *input.Purchased
	}

	created, err := s.lists.CreateItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	return created, nil
}

// UpdateItem applies a partial update to an item on a writable list.
func (s *ListService) UpdateItem(ctx context.Context, userID, itemID int64, input ItemInput) (*domain.ListItem, error) {
	item, err := s.lists.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("lookup item: %w", err)
	}

	if _, err := s.permissions.RequireWrite(ctx, userID, item.ListID); err != nil {
		if errors.Is(err, ErrListNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		item.Name = name
	}
	if input.Quantity > 0 {
		item.Quantity = input.Quantity
	}
	if input.Expiry != nil {
		item.Expiry = input.Expiry
	}
	if input.RemindOn != nil {
		item.RemindOn = input.RemindOn
		item.RemindedAt = nil
	}
	if input.Purchased != nil {
		item.Purchased = *input.Purchased
	}

	if err := s.lists.UpdateItem(ctx, *item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	return item, nil
}

// DeleteItem removes an item from a writable list.
func (s *ListService) DeleteItem(ctx context.Context, userID, itemID int64) error {
	item, err := s.lists.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("lookup item: %w", err)
	}

	if _, err := s.permissions.RequireWrite(ctx, userID, item.ListID); err != nil {
		if errors.Is(err, ErrListNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	if err := s.lists.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// SetHidden flips the caller's hidden preference on a shared list. Only
// grantees hold a share row; owners and strangers get ErrListNotFound.
func (s *ListService) SetHidden(ctx context.Context, userID, listID int64, hidden bool) error {
	if err := s.shares.SetHidden(ctx, listID, userID, hidden); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListNotFound
		}
		return fmt.Errorf("set hidden: %w", err)
	}

	return nil
}
