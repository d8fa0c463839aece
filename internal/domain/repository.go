package domain

import (
	"context"
)

// Every repository read applies the active-row predicate (deleted_at IS NULL);
// soft-deleted rows are never returned and lookups on them yield ErrNotFound.

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
	ToggleOnline(ctx context.Context, id string) (*User, error)
	SoftDelete(ctx context.Context, id string) (*User, error)
	ListFriends(ctx context.Context, id string) ([]*User, error)
	// AddFriend links both users in one transaction. It reports false when
	// they were already friends.
	AddFriend(ctx context.Context, id, friendID string) (bool, error)
	// RemoveFriend unlinks both users in one transaction. It reports false
	// when they were not friends.
	RemoveFriend(ctx context.Context, id, friendID string) (bool, error)
}

// ChatRepository defines persistence operations for chats and their members.
type ChatRepository interface {
	Create(ctx context.Context, c *Chat) error
	GetByID(ctx context.Context, id string) (*Chat, error)
	ListForUser(ctx context.Context, userID string) ([]*Chat, error)
	Rename(ctx context.Context, id, name string) error
	// ToggleStrict flips the strict flag and returns the new value.
	ToggleStrict(ctx context.Context, id string) (bool, error)
	AddMember(ctx context.Context, id, userID string) error
	RemoveMember(ctx context.Context, id, userID string) error
	// SoftDelete marks the chat and all its messages deleted in one
	// transaction. It reports false when the chat was already gone.
	SoftDelete(ctx context.Context, id string) (bool, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
	// ListForChat returns up to limit messages newest first after skipping
	// offset, together with the total active count for the chat.
	ListForChat(ctx context.Context, chatID string, offset, limit int) ([]*Message, int, error)
}
