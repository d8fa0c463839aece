package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatbackend/internal/blob"
	"chatbackend/internal/domain"
	"chatbackend/internal/events"
)

// Uploader stores attachment bytes and returns their public location.
type Uploader interface {
	Upload(ctx context.Context, p blob.Profile, obj blob.Object) (*blob.Result, error)
}

type ChatOptions struct {
	// BroadcastMutations makes HTTP member and strict-mode changes push
	// snapshots to connected sessions, like rename does.
	BroadcastMutations bool
}

// ChatService owns chats and keeps connected sessions in sync with changes
// made over HTTP.
type ChatService struct {
	chats     domain.ChatRepository
	messages  *MessageService
	uploader  Uploader
	rooms     domain.Broadcaster
	publisher events.Publisher
	log       *slog.Logger
	opts      ChatOptions
}

func NewChatService(
	chats domain.ChatRepository,
	messages *MessageService,
	uploader Uploader,
	rooms domain.Broadcaster,
	publisher events.Publisher,
	log *slog.Logger,
	opts ChatOptions,
) *ChatService {
	return &ChatService{
		chats:     chats,
		messages:  messages,
		uploader:  uploader,
		rooms:     rooms,
		publisher: publisher,
		log:       log,
		opts:      opts,
	}
}

type CreateChatInput struct {
	Members   []string `json:"members" validate:"required,min=1,dive,required"`
	IsGroup   bool     `json:"is_group"`
	GroupName *string  `json:"groupName"`
}

type RenameChatInput struct {
	Name string `json:"name" validate:"required"`
}

type UploadInput struct {
	SenderID    string `validate:"required"`
	Filename    string
	Body        []byte
	Size        int64
	ContentType string
}

type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// Create stores a chat owned by ownerID and announces it on each requested
// member's user room. The owner is not added implicitly.
func (s *ChatService) Create(ctx context.Context, ownerID string, in CreateChatInput) (*domain.Chat, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.Validation("owner id is required")
	}
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chat := &domain.Chat{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Members:   lo.Uniq(in.Members),
		IsGroup:   in.IsGroup,
		IsStrict:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.IsGroup {
		chat.GroupName = in.GroupName
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	snap := chat.Snapshot()
	for _, member := range chat.Members {
		s.rooms.Emit(member, domain.EventChatCreated, snap)
	}
	publish(ctx, s.log, s.publisher, domain.ActionChatCreated, snap)
	return chat, nil
}

func (s *ChatService) Get(ctx context.Context, id string) (*domain.Chat, error) {
	c, err := s.chats.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Chat not found")
	}
	return c, nil
}

func (s *ChatService) ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	return s.chats.ListForUser(ctx, userID)
}

// Messages pages a chat's history. A missing chat yields an empty page.
func (s *ChatService) Messages(ctx context.Context, chatID string, page, limit int) (*domain.MessagePage, error) {
	return s.messages.Page(ctx, chatID, page, limit)
}

// FlipStrict toggles strict mode and returns the updated chat without
// notifying anyone.
func (s *ChatService) FlipStrict(ctx context.Context, id string) (*domain.Chat, error) {
	if _, err := s.chats.ToggleStrict(ctx, id); err != nil {
		return nil, notFound(err, "Chat not found")
	}
	return s.Get(ctx, id)
}

func (s *ChatService) ToggleStrict(ctx context.Context, id string) (*domain.Chat, error) {
	chat, err := s.FlipStrict(ctx, id)
	if err != nil {
		return nil, err
	}
	s.syncMutation(chat)
	return chat, nil
}

func (s *ChatService) AddMember(ctx context.Context, id, memberID string) (*domain.Chat, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, domain.Validation("memberId is required")
	}
	chat, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if chat.HasMember(memberID) {
		return nil, domain.Conflict("Member already in chat")
	}
	if err := s.chats.AddMember(ctx, id, memberID); err != nil {
		return nil, notFound(err, "Chat not found")
	}
	if chat, err = s.Get(ctx, id); err != nil {
		return nil, err
	}
	s.syncMutation(chat)
	return chat, nil
}

func (s *ChatService) RemoveMember(ctx context.Context, id, memberID string) (*domain.Chat, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, domain.Validation("memberId is required")
	}
	chat, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(memberID) {
		return nil, domain.NotFound("Member not in chat")
	}
	if err := s.chats.RemoveMember(ctx, id, memberID); err != nil {
		return nil, notFound(err, "Chat not found")
	}
	if chat, err = s.Get(ctx, id); err != nil {
		return nil, err
	}
	s.syncMutation(chat, memberID)
	return chat, nil
}

// Rename sets the group name, re-announces the chat on every member's user
// room and pushes the snapshot to the chat room.
func (s *ChatService) Rename(ctx context.Context, id string, in RenameChatInput) (*domain.Chat, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	if err := s.chats.Rename(ctx, id, in.Name); err != nil {
		return nil, notFound(err, "Chat not found")
	}
	chat, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := chat.Snapshot()
	for _, member := range chat.Members {
		s.rooms.Emit(member, domain.EventChatCreated, snap)
	}
	s.rooms.Emit(chat.ID, domain.EventChatUpdated, snap)
	return chat, nil
}

// Delete soft-deletes the chat with its messages and tells the chat room.
// Deleting an already deleted chat changes nothing and emits nothing.
func (s *ChatService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	deleted, err := s.chats.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted {
		s.rooms.Emit(id, domain.EventChatUpdated, nil)
		publish(ctx, s.log, s.publisher, domain.ActionChatDeleted, map[string]string{"id": id})
	}
	return &DeleteResult{Deleted: deleted}, nil
}

// Upload stores an attachment and posts it to the chat as a message whose
// content is the public URL.
func (s *ChatService) Upload(ctx context.Context, chatID string, p blob.Profile, in UploadInput) (*domain.Message, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, chatID); err != nil {
		return nil, err
	}

	res, err := s.uploader.Upload(ctx, p, blob.Object{
		Key:         objectKey(in.Filename, time.Now()),
		Body:        in.Body,
		Size:        in.Size,
		ContentType: in.ContentType,
	})
	if err != nil {
		return nil, err
	}

	typ := domain.MessageFile
	if p.Name == blob.ImageProfile.Name {
		typ = domain.MessageImage
	}
	msg, err := s.messages.Post(ctx, chatID, in.SenderID, res.URL, typ)
	if err != nil {
		return nil, err
	}
	s.rooms.Emit(chatID, domain.EventNewMessage, msg)
	return msg, nil
}

// syncMutation pushes the chat snapshot to the chat room and to every member
// room, plus any extra user rooms, when HTTP mutation broadcasts are on.
func (s *ChatService) syncMutation(chat *domain.Chat, extraUsers ...string) {
	if !s.opts.BroadcastMutations {
		return
	}
	snap := chat.Snapshot()
	s.rooms.Emit(chat.ID, domain.EventChatUpdated, snap)
	for _, user := range lo.Uniq(append(chat.Members, extraUsers...)) {
		s.rooms.Emit(user, domain.EventChatCreated, snap)
	}
}

// objectKey builds "<name> - <unix millis><ext>" from the original filename.
func objectKey(filename string, now time.Time) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	return fmt.Sprintf("%s - %d%s", name, now.UnixMilli(), ext)
}
