package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatbackend/internal/domain"
	"chatbackend/internal/events"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

type MessageService struct {
	messages  domain.MessageRepository
	publisher events.Publisher
	log       *slog.Logger
}

func NewMessageService(messages domain.MessageRepository, publisher events.Publisher, log *slog.Logger) *MessageService {
	return &MessageService{
		messages:  messages,
		publisher: publisher,
		log:       log,
	}
}

// Post persists a message. Chat existence and membership are the caller's
// concern.
func (s *MessageService) Post(ctx context.Context, chatID, senderID, content string, typ domain.MessageType) (*domain.Message, error) {
	msg := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	publish(ctx, s.log, s.publisher, domain.ActionMessageCreated, msg)
	return msg, nil
}

func (s *MessageService) List(ctx context.Context) ([]*domain.Message, error) {
	return s.messages.List(ctx)
}

func (s *MessageService) Get(ctx context.Context, id string) (*domain.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Message not found")
	}
	return m, nil
}

// Page returns one page of a chat's history. Pages count back from the newest
// message; within a page messages are oldest first. Non-positive page or
// limit fall back to the defaults.
func (s *MessageService) Page(ctx context.Context, chatID string, page, limit int) (*domain.MessagePage, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}

	offset, window := (page-1)*limit, limit
	if page-1 > math.MaxInt/limit {
		// The offset would overflow; no chat is that long, so only count.
		offset, window = 0, 0
	}
	msgs, total, err := s.messages.ListForChat(ctx, chatID, offset, window)
	if err != nil {
		return nil, err
	}
	if window == 0 {
		msgs = []*domain.Message{}
	}

	return &domain.MessagePage{
		Messages:   lo.Reverse(msgs),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}
