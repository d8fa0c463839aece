package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN. A single connection is
// used so that ":memory:" databases and transactions see one consistent file.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent CREATE TABLE / CREATE INDEX statements.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			password   TEXT NOT NULL,
			is_online  BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME DEFAULT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_friends (
			user_id    TEXT NOT NULL REFERENCES users(id),
			friend_id  TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, friend_id)
		);`,
		`CREATE TABLE IF NOT EXISTS chats (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			is_group   BOOLEAN NOT NULL DEFAULT 0,
			group_name TEXT DEFAULT NULL,
			is_strict  BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME DEFAULT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chat_members (
			chat_id  TEXT NOT NULL REFERENCES chats(id),
			user_id  TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (chat_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			chat_id    TEXT NOT NULL REFERENCES chats(id),
			sender_id  TEXT NOT NULL,
			content    TEXT NOT NULL,
			type       TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME DEFAULT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_active_email ON users(email) WHERE deleted_at IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_user_friends_friend ON user_friends(friend_id);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_members_user ON chat_members(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_seq ON messages(chat_id, seq DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
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
	t := nt.Time
	return &t
}
