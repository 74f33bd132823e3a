package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// ShareRepository implements port.ShareRepository using PostgreSQL.
type ShareRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewShareRepository wires a PostgreSQL-backed share repository.
func NewShareRepository(exec pgExecutor) *ShareRepository {
	return &ShareRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var shareColumns = []string{
	"id",
	"list_id",
	"user_id",
	"role",
	"hidden",
	"created_at",
}

// Upsert creates the share or, when a row for (list, user) already exists,
// updates its role in place. The grantee's hidden flag survives a re-grant.
func (r *ShareRepository) Upsert(ctx context.Context, share domain.ListShare) (*domain.ListShare, error) {
	stmt, args, err := r.builder.Insert("list_shares").
		Columns("list_id", "user_id", "role", "hidden", "created_at").
		Values(share.ListID, share.UserID, share.Role, share.Hidden, share.CreatedAt).
		Suffix("ON CONFLICT (list_id, user_id) DO UPDATE SET role = EXCLUDED.role").
		Suffix("RETURNING " + columnList(shareColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert share sql: %w", err)
	}

	return r.scanShare(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByID retrieves a share by identifier.
func (r *ShareRepository) GetByID(ctx context.Context, id int64) (*domain.ListShare, error) {
	stmt, args, err := r.builder.
		Select(shareColumns...).
		From("list_shares").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select share sql: %w", err)
	}

	return r.scanShare(r.exec.QueryRow(ctx, stmt, args...))
}

// GetForUser retrieves the share granted to a user on a list, if any.
func (r *ShareRepository) GetForUser(ctx context.Context, listID, userID int64) (*domain.ListShare, error) {
	stmt, args, err := r.builder.
		Select(shareColumns...).
		From("list_shares").
		Where(squirrel.Eq{"list_id": listID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select share for user sql: %w", err)
	}

	return r.scanShare(r.exec.QueryRow(ctx, stmt, args...))
}

// ListByList returns every share on a list in grant order.
func (r *ShareRepository) ListByList(ctx context.Context, listID int64) ([]domain.ListShare, error) {
	stmt, args, err := r.builder.
		Select(shareColumns...).
		From("list_shares").
		Where(squirrel.Eq{"list_id": listID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list shares sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query list shares: %w", err)
	}
	defer rows.Close()

	var shares []domain.ListShare
	for rows.Next() {
		var share domain.ListShare
		if err := rows.Scan(&share.ID, &share.ListID, &share.UserID, &share.Role, &share.Hidden, &share.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, share)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}

	return shares, nil
}

// UpdateRole changes the role carried by an existing share.
func (r *ShareRepository) UpdateRole(ctx context.Context, id int64, role domain.ShareRole) error {
	stmt, args, err := r.builder.Update("list_shares").
		Set("role", role).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update share role sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update share role: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete revokes a share.
func (r *ShareRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("list_shares").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete share sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetHidden flips the grantee's display preference for a shared list.
func (r *ShareRepository) SetHidden(ctx context.Context, listID, userID int64, hidden bool) error {
	stmt, args, err := r.builder.Update("list_shares").
		Set("hidden", hidden).
		Where(squirrel.Eq{"list_id": listID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set hidden sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ShareRepository) scanShare(row pgx.Row) (*domain.ListShare, error) {
	var share domain.ListShare

	if err := row.Scan(
		&share.ID,
		&share.ListID,
		&share.UserID,
		&share.Role,
		&share.Hidden,
		&share.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan share: %w", err)
	}

	return &share, nil
}

var _ port.ShareRepository = (*ShareRepository)(nil)
