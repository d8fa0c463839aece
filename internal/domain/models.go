package domain

import (
	"time"

	"github.com/samber/lo"
)

// MessageType tags the kind of content a message carries.
type MessageType string

const (
	MessageNormal MessageType = "normal"
	MessageNoti   MessageType = "noti"
	MessageFile   MessageType = "file"
	MessageImage  MessageType = "image"
)

// User represents an application user.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	IsOnline  bool       `json:"isOnline"`
	FriendIDs []string   `json:"friend_ids"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Friend is the public projection of a user returned by friend listings.
type Friend struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Chat represents a direct or group conversation.
type Chat struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Members   []string   `json:"members"`
	IsGroup   bool       `json:"is_group"`
	GroupName *string    `json:"groupName"`
	IsStrict  bool       `json:"is_strict"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// HasMember reports whether userID is among the chat members.
func (c *Chat) HasMember(userID string) bool {
	return lo.Contains(c.Members, userID)
}

// Snapshot is the chat view pushed to connected clients.
func (c *Chat) Snapshot() ChatSnapshot {
	members := make([]string, len(c.Members))
	copy(members, c.Members)
	return ChatSnapshot{
		ID:        c.ID,
		IsGroup:   c.IsGroup,
		Members:   members,
		GroupName: c.GroupName,
		OwnerID:   c.OwnerID,
		IsStrict:  c.IsStrict,
	}
}

// ChatSnapshot is the payload of chatCreated and chatUpdated events.
type ChatSnapshot struct {
	ID        string   `json:"id"`
	IsGroup   bool     `json:"is_group"`
	Members   []string `json:"members"`
	GroupName *string  `json:"groupName"`
	OwnerID   string   `json:"owner_id"`
	IsStrict  bool     `json:"is_strict"`
}

// Message represents a single chat message. Content is text or a public URL
// for file and image messages.
type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"sender_id"`
	ChatID    string      `json:"chat_id"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
	DeletedAt *time.Time  `json:"deleted_at"`
}

// MessagePage is one page of a chat's history, oldest first.
type MessagePage struct {
	Messages   []*Message `json:"messages"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}
