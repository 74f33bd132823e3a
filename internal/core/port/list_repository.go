package port

import (
	"context"
	"time"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
)

// ListRepository exposes persistence behavior for grocery lists and items.
type ListRepository interface {
	CreateList(ctx context.Context, list domain.GroceryList) (*domain.GroceryList, error)
	GetList(ctx context.Context, id int64) (*domain.GroceryList, error)
	// ListsForUser returns lists the user owns plus shared lists the user has
	// not hidden, each annotated with the user's effective role.
	ListsForUser(ctx context.Context, userID int64) ([]domain.ListView, error)
	RenameList(ctx context.Context, id int64, name string) error
	DeleteList(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item domain.ListItem) (*domain.ListItem, error)
	GetItem(ctx context.Context, id int64) (*domain.ListItem, error)
	ListItems(ctx context.Context, listID int64) ([]domain.ListItem, error)
	UpdateItem(ctx context.Context, item domain.ListItem) error
	DeleteItem(ctx context.Context, id int64) error

	// DueReminders returns items whose remind_on date has arrived and that
	// have not been reminded yet, joined with list and owner data and ordered
	// by owner.
	DueReminders(ctx context.Context, dueBy time.Time) ([]domain.ReminderEntry, error)
	MarkReminded(ctx context.Context, itemIDs []int64, at time.Time) error
}
