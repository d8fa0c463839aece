package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chatbackend/internal/domain"
)

const selectActiveMessage = `
	SELECT id, sender_id, chat_id, content, type, created_at, deleted_at
	FROM messages
	WHERE deleted_at IS NULL`

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, content, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, m.ID, m.ChatID, m.SenderID, m.Content, string(m.Type), m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, selectActiveMessage+` AND id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) List(ctx context.Context) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, selectActiveMessage+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return scanMessages(rows)
}

func (r *MessageRepo) ListForChat(ctx context.Context, chatID string, offset, limit int) ([]*domain.Message, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ? AND deleted_at IS NULL`, chatID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, selectActiveMessage+`
		AND chat_id = ?
		ORDER BY seq DESC
		LIMIT ? OFFSET ?
	`, chatID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list chat messages: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func scanMessage(row scanner) (*domain.Message, error) {
	m := &domain.Message{}
	var (
		msgType   string
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&m.ID,
		&m.SenderID,
		&m.ChatID,
		&m.Content,
		&msgType,
		&m.CreatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	m.Type = domain.MessageType(msgType)
	m.DeletedAt = nullTimePtr(deletedAt)
	return m, nil
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	defer rows.Close()

	msgs := []*domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
