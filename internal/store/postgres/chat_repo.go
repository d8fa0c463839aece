package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatbackend/internal/domain"
)

const selectActiveChat = `
	SELECT c.id, c.owner_id, c.is_group, c.group_name, c.is_strict, c.created_at, c.updated_at, c.deleted_at
	FROM chats c
	WHERE c.deleted_at IS NULL`

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ domain.ChatRepository = (*ChatRepo)(nil)

func (r *ChatRepo) Create(ctx context.Context, c *domain.Chat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, owner_id, is_group, group_name, is_strict, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.OwnerID, c.IsGroup, c.GroupName, c.IsStrict, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}

	for i, uid := range c.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_members (chat_id, user_id, position)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, c.ID, uid, i+1); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	c, err := scanChat(r.db.QueryRowContext(ctx, selectActiveChat+` AND c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if c.Members, err = r.members(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	query := selectActiveChat + `
		AND EXISTS (SELECT 1 FROM chat_members m WHERE m.chat_id = c.id AND m.user_id = $1)
		ORDER BY c.created_at ASC, c.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats for user: %w", err)
	}

	chats := []*domain.Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, c := range chats {
		if c.Members, err = r.members(ctx, c.ID); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

func (r *ChatRepo) Rename(ctx context.Context, id, name string) error {
	return r.execOne(ctx, `UPDATE chats SET group_name = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		name, time.Now().UTC(), id)
}

func (r *ChatRepo) ToggleStrict(ctx context.Context, id string) (bool, error) {
	var strict bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE chats SET is_strict = NOT is_strict, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING is_strict
	`, time.Now().UTC(), id).Scan(&strict)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle strict: %w", err)
	}
	return strict, nil
}

func (r *ChatRepo) AddMember(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE chats SET updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_members (chat_id, user_id, position)
		SELECT $1::text, $2::text, COALESCE(MAX(position), 0) + 1 FROM chat_members WHERE chat_id = $1
		ON CONFLICT DO NOTHING
	`, id, userID); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ChatRepo) RemoveMember(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE chats SET updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_members WHERE chat_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ChatRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `UPDATE chats SET deleted_at = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return false, fmt.Errorf("soft delete chat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE messages SET deleted_at = $1 WHERE chat_id = $2 AND deleted_at IS NULL`, now, id); err != nil {
		return false, fmt.Errorf("soft delete messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func (r *ChatRepo) members(ctx context.Context, chatID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM chat_members WHERE chat_id = $1 ORDER BY position ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, uid)
	}
	return members, rows.Err()
}

func (r *ChatRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update chat: %w", err)
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

func scanChat(row scanner) (*domain.Chat, error) {
	c := &domain.Chat{}
	var (
		groupName sql.NullString
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.IsGroup,
		&groupName,
		&c.IsStrict,
		&c.CreatedAt,
		&c.UpdatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	if groupName.Valid {
		c.GroupName = &groupName.String
	}
	c.DeletedAt = nullTimePtr(deletedAt)
	c.Members = []string{}
	return c, nil
}
