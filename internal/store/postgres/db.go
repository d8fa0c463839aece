package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the chat schema on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT         PRIMARY KEY,
			name       TEXT         NOT NULL,
			email      TEXT         NOT NULL,
			password   TEXT         NOT NULL,
			is_online  BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS user_friends (
			user_id    TEXT        NOT NULL REFERENCES users(id),
			friend_id  TEXT        NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, friend_id)
		)`,

		`CREATE TABLE IF NOT EXISTS chats (
			id         TEXT        PRIMARY KEY,
			owner_id   TEXT        NOT NULL,
			is_group   BOOLEAN     NOT NULL DEFAULT FALSE,
			group_name TEXT,
			is_strict  BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS chat_members (
			chat_id  TEXT    NOT NULL REFERENCES chats(id),
			user_id  TEXT    NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (chat_id, user_id)
		)`,

		// seq preserves insertion order independent of clock resolution
		`CREATE TABLE IF NOT EXISTS messages (
			seq        BIGSERIAL   PRIMARY KEY,
			id         TEXT        NOT NULL UNIQUE,
			chat_id    TEXT        NOT NULL REFERENCES chats(id),
			sender_id  TEXT        NOT NULL,
			content    TEXT        NOT NULL,
			type       TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_active_email ON users(email) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_user_friends_friend ON user_friends(friend_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_members_user ON chat_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_seq ON messages(chat_id, seq DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
