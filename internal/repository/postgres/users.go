package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var userColumns = []string{
	"id",
	"email",
	"hashed_password",
	"external_sub",
	"name",
	"picture",
	"password_changed_at",
	"created_at",
}

// Create inserts a new user row and returns it with the generated id.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	stmt, args, err := r.builder.Insert("users").
		Columns("email", "hashed_password", "external_sub", "name", "picture", "created_at").
		Values(user.Email, user.PasswordHash, user.ExternalSub, user.Name, user.Picture, user.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert user sql: %w", err)
	}

	created := user
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&created.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves a user by email. Callers are expected to lowercase
// the value before lookup; storage is lowercase as well.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by email sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// UpdateProfile updates display name and avatar, returning the fresh row.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name, picture *string) (*domain.User, error) {
	stmt, args, err := r.builder.Update("users").
		Set("name", name).
		Set("picture", picture).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + columnList(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update profile sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("hashed_password", passwordHash).
		Set("password_changed_at", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ResetPassword consumes the reset token's jti and updates the hash in one
// transaction. The unique jti column arbitrates concurrent redemptions: the
// second consumer's insert matches nothing and the whole transaction aborts
// with repository.ErrTokenConsumed.
func (r *UserRepository) ResetPassword(ctx context.Context, id int64, passwordHash, jti string, tokenExpiry time.Time) error {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset password tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	insertStmt, insertArgs, err := r.builder.Insert("used_reset_tokens").
		Columns("jti", "user_id", "expires_at").
		Values(jti, id, tokenExpiry).
		Suffix("ON CONFLICT (jti) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume jti sql: %w", err)
	}

	ct, err := tx.Exec(ctx, insertStmt, insertArgs...)
	if err != nil {
		return fmt.Errorf("consume reset jti: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrTokenConsumed
	}

	updateStmt, updateArgs, err := r.builder.Update("users").
		Set("hashed_password", passwordHash).
		Set("password_changed_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset password sql: %w", err)
	}

	uct, err := tx.Exec(ctx, updateStmt, updateArgs...)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if uct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reset password tx: %w", err)
	}

	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.ExternalSub,
		&user.Name,
		&user.Picture,
		&user.PasswordChangedAt,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
