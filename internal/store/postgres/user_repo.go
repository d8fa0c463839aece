package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"chatbackend/internal/domain"
)

const uniqueViolation = "23505"

const selectActiveUser = `
	SELECT id, name, email, password, is_online, created_at, updated_at, deleted_at
	FROM users
	WHERE deleted_at IS NULL`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password, is_online, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Password, u.IsOnline, u.CreatedAt, u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Conflict("Email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if u.FriendIDs == nil {
		u.FriendIDs = []string{}
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, selectActiveUser+` AND id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectActiveUser+` AND email = $1`, email)
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, selectActiveUser+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.FriendIDs, err = r.friendIDs(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *UserRepo) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	query := `UPDATE users SET name = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	if err := r.execOne(ctx, query, name, time.Now().UTC(), id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) ToggleOnline(ctx context.Context, id string) (*domain.User, error) {
	query := `UPDATE users SET is_online = NOT is_online, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	if err := r.execOne(ctx, query, time.Now().UTC(), id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	query := `UPDATE users SET deleted_at = $1, is_online = FALSE, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	if err := r.execOne(ctx, query, now, now, id); err != nil {
		return nil, err
	}
	u.DeletedAt = &now
	u.UpdatedAt = now
	u.IsOnline = false
	return u, nil
}

func (r *UserRepo) ListFriends(ctx context.Context, id string) ([]*domain.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password, u.is_online, u.created_at, u.updated_at, u.deleted_at
		FROM user_friends f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1 AND u.deleted_at IS NULL
		ORDER BY f.created_at ASC, u.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return scanUsers(rows)
}

func (r *UserRepo) AddFriend(ctx context.Context, id, friendID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM user_friends WHERE user_id = $1 AND friend_id = $2`, id, friendID).Scan(&exists)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check friendship: %w", err)
	}

	now := time.Now().UTC()
	for _, pair := range [][2]string{{id, friendID}, {friendID, id}} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_friends (user_id, friend_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, pair[0], pair[1], now); err != nil {
			return false, fmt.Errorf("insert friendship: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (r *UserRepo) RemoveFriend(ctx context.Context, id, friendID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM user_friends WHERE user_id = $1 AND friend_id = $2`, id, friendID)
	if err != nil {
		return false, fmt.Errorf("delete friendship: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_friends WHERE user_id = $1 AND friend_id = $2`, friendID, id); err != nil {
		return false, fmt.Errorf("delete reverse friendship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if u.FriendIDs, err = r.friendIDs(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) friendIDs(ctx context.Context, id string) ([]string, error) {
	query := `
		SELECT f.friend_id
		FROM user_friends f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1 AND u.deleted_at IS NULL
		ORDER BY f.created_at ASC, f.friend_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var fid string
		if err := rows.Scan(&fid); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		ids = append(ids, fid)
	}
	return ids, rows.Err()
}

func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{}
	var deletedAt sql.NullTime
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Password,
		&u.IsOnline,
		&u.CreatedAt,
		&u.UpdatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	u.DeletedAt = nullTimePtr(deletedAt)
	u.FriendIDs = []string{}
	return u, nil
}

func scanUsers(rows *sql.Rows) ([]*domain.User, error) {
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
