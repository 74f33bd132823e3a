package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// ListRepository implements port.ListRepository using PostgreSQL.
type ListRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewListRepository wires a PostgreSQL-backed list repository.
func NewListRepository(exec pgExecutor) *ListRepository {
	return &ListRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var itemColumns = []string{
	"id",
	"list_id",
	"name",
	"quantity",
	"expiry",
	"purchased",
	"remind_on",
	"reminded_at",
}

// CreateList inserts a new list and returns it with the generated id.
func (r *ListRepository) CreateList(ctx context.Context, list domain.GroceryList) (*domain.GroceryList, error) {
	stmt, args, err := r.builder.Insert("lists").
		Columns("name", "owner_id", "created_at").
		Values(list.Name, list.OwnerID, list.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert list sql: %w", err)
	}

	created := list
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}

	return &created, nil
}

// GetList retrieves a list by identifier.
func (r *ListRepository) GetList(ctx context.Context, id int64) (*domain.GroceryList, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "owner_id", "created_at").
		From("lists").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select list sql: %w", err)
	}

	var list domain.GroceryList
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&list.ID, &list.Name, &list.OwnerID, &list.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan list: %w", err)
	}

	return &list, nil
}

// ListsForUser returns lists the user owns plus shared lists the user has not
// hidden, each annotated with the user's effective role. Owned lists come
// first, then shared ones, both ordered by creation time.
func (r *ListRepository) ListsForUser(ctx context.Context, userID int64) ([]domain.ListView, error) {
	stmt, args, err := r.builder.
		Select(
			"l.id",
			"l.name",
			"l.owner_id",
			"l.created_at",
			"COALESCE(s.role, 'owner') AS role",
		).
		From("lists l").
		LeftJoin("list_shares s ON s.list_id = l.id AND s.user_id = ?", userID).
		Where(squirrel.Or{
			squirrel.Eq{"l.owner_id": userID},
			squirrel.And{
				squirrel.NotEq{"s.id": nil},
				squirrel.Eq{"s.hidden": false},
			},
		}).
		OrderBy("CASE WHEN s.id IS NULL THEN 0 ELSE 1 END", "l.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lists for user sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query lists for user: %w", err)
	}
	defer rows.Close()

	var views []domain.ListView
	for rows.Next() {
		var (
			view domain.ListView
			role string
		)
		if err := rows.Scan(&view.List.ID, &view.List.Name, &view.List.OwnerID, &view.List.CreatedAt, &role); err != nil {
			return nil, fmt.Errorf("scan list view: %w", err)
		}
		view.Role = domain.ListRole(role)
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate list views: %w", err)
	}

	return views, nil
}

// RenameList updates the list name.
func (r *ListRepository) RenameList(ctx context.Context, id int64, name string) error {
	stmt, args, err := r.builder.Update("lists").
		Set("name", name).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build rename list sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("rename list: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteList removes the list; items and shares cascade at the schema level.
func (r *ListRepository) DeleteList(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("lists").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete list sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CreateItem inserts a new item and returns it with the generated id.
func (r *ListRepository) CreateItem(ctx context.Context, item domain.ListItem) (*domain.ListItem, error) {
	stmt, args, err := r.builder.Insert("list_items").
		Columns("list_id", "name", "quantity", "expiry", "purchased", "remind_on", "reminded_at").
		Values(item.ListID, item.Name, item.Quantity, item.Expiry, item.Purchased, item.RemindOn, item.RemindedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert item sql: %w", err)
	}

	created := item
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return &created, nil
}

// GetItem retrieves an item by identifier.
func (r *ListRepository) GetItem(ctx context.Context, id int64) (*domain.ListItem, error) {
	stmt, args, err := r.builder.
		Select(itemColumns...).
		From("list_items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select item sql: %w", err)
	}

	var item domain.ListItem
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&item.ID,
		&item.ListID,
		&item.Name,
		&item.Quantity,
		&item.Expiry,
		&item.Purchased,
		&item.RemindOn,
		&item.RemindedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}

	return &item, nil
}

// ListItems returns the items on a list in insertion order.
func (r *ListRepository) ListItems(ctx context.Context, listID int64) ([]domain.ListItem, error) {
	stmt, args, err := r.builder.
		Select(itemColumns...).
		From("list_items").
		Where(squirrel.Eq{"list_id": listID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query list items: %w", err)
	}
	defer rows.Close()

	var items []domain.ListItem
	for rows.Next() {
		var item domain.ListItem
		if err := rows.Scan(
			&item.ID,
			&item.ListID,
			&item.Name,
			&item.Quantity,
			&item.Expiry,
			&item.Purchased,
			&item.RemindOn,
			&item.RemindedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// UpdateItem writes the full mutable state of an item.
func (r *ListRepository) UpdateItem(ctx context.Context, item domain.ListItem) error {
	stmt, args, err := r.builder.Update("list_items").
		Set("name", item.Name).
		Set("quantity", item.Quantity).
		Set("expiry", item.Expiry).
		Set("purchased", item.Purchased).
		Set("remind_on", item.RemindOn).
		Set("reminded_at", item.RemindedAt).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update item sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteItem removes a single item.
func (r *ListRepository) DeleteItem(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("list_items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete item sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DueReminders returns items whose remind_on date has arrived and that have
// not been reminded yet, joined with the owning list and account.
func (r *ListRepository) DueReminders(ctx context.Context, dueBy time.Time) ([]domain.ReminderEntry, error) {
	stmt, args, err := r.builder.
		Select(
			"i.id",
			"i.list_id",
			"i.name",
			"i.quantity",
			"i.expiry",
			"i.purchased",
			"i.remind_on",
			"i.reminded_at",
			"l.name",
			"l.owner_id",
			"u.email",
			"u.name",
		).
		From("list_items i").
		Join("lists l ON l.id = i.list_id").
		Join("users u ON u.id = l.owner_id").
		Where(squirrel.And{
			squirrel.NotEq{"i.remind_on": nil},
			squirrel.LtOrEq{"i.remind_on": dueBy},
			squirrel.Eq{"i.reminded_at": nil},
		}).
		OrderBy("l.owner_id ASC", "l.id ASC", "i.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due reminders sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	var entries []domain.ReminderEntry
	for rows.Next() {
		var entry domain.ReminderEntry
		if err := rows.Scan(
			&entry.Item.ID,
			&entry.Item.ListID,
			&entry.Item.Name,
			&entry.Item.Quantity,
			&entry.Item.Expiry,
			&entry.Item.Purchased,
			&entry.Item.RemindOn,
			&entry.Item.RemindedAt,
			&entry.ListName,
			&entry.OwnerID,
			&entry.OwnerEmail,
			&entry.OwnerName,
		); err != nil {
			return nil, fmt.Errorf("scan reminder entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder entries: %w", err)
	}

	return entries, nil
}

// MarkReminded stamps the given items as reminded.
func (r *ListRepository) MarkReminded(ctx context.Context, itemIDs []int64, at time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}

	stmt, args, err := r.builder.Update("list_items").
		Set("reminded_at", at).
		Where(squirrel.Eq{"id": itemIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark reminded sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("mark items reminded: %w", err)
	}

	return nil
}

var _ port.ListRepository = (*ListRepository)(nil)
