package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chatbackend/internal/domain"
	"chatbackend/internal/metrics"
)

// Inbound event names.
const (
	EventJoinChat                = "joinChat"
	EventSubscribeToUser         = "subscribeToUser"
	EventSendMessage             = "sendMessage"
	EventSendNotiAdjustMember    = "sendNotiAdjustMember"
	EventSendNotiUpdateGroupName = "sendNotiUpdateGroupName"
	EventTyping                  = "typing"
	EventStopTyping              = "stopTyping"
	EventAdjustStrict            = "adjustStrict"
)

const (
	msgInvalidPayload = "Invalid payload"
	msgInternal       = "Internal server error"
)

// ChatStore is the chat access the relay needs.
type ChatStore interface {
	Get(ctx context.Context, id string) (*domain.Chat, error)
	FlipStrict(ctx context.Context, id string) (*domain.Chat, error)
}

type MessagePoster interface {
	Post(ctx context.Context, chatID, senderID, content string, typ domain.MessageType) (*domain.Message, error)
}

type UserLookup interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

type sendMessagePayload struct {
	ChatID   string `json:"chat_id" validate:"required"`
	SenderID string `json:"sender_id" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type adjustMemberPayload struct {
	ChatID   string `json:"chat_id" validate:"required"`
	SenderID string `json:"sender_id" validate:"required"`
	MemberID string `json:"member_id" validate:"required"`
	IsAdd    *bool  `json:"isAdd" validate:"required"`
}

type updateGroupNamePayload struct {
	ChatID    string `json:"chat_id" validate:"required"`
	SenderID  string `json:"sender_id" validate:"required"`
	GroupName string `json:"groupName" validate:"required"`
}

type typingPayload struct {
	ChatID   string `json:"chat_id" validate:"required"`
	SenderID string `json:"sender_id" validate:"required"`
}

type typingEvent struct {
	SenderID string `json:"sender_id"`
}

type strictEvent struct {
	IsStrict bool `json:"is_strict"`
}

type errorEvent struct {
	Message string `json:"message"`
}

// Relay handles inbound socket events and fans results out through Rooms.
type Relay struct {
	rooms    *Rooms
	chats    ChatStore
	messages MessagePoster
	users    UserLookup
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewRelay(rooms *Rooms, chats ChatStore, messages MessagePoster, users UserLookup, m *metrics.Metrics, log *slog.Logger) *Relay {
	return &Relay{
		rooms:    rooms,
		chats:    chats,
		messages: messages,
		users:    users,
		metrics:  m,
		log:      log,
	}
}

// Dispatch runs one inbound event for a session. Failures never reach the
// transport: domain errors go back to the caller as an error event, anything
// else is logged and reported as an internal error.
func (r *Relay) Dispatch(ctx context.Context, s *Session, env Envelope) {
	var err error
	switch env.Event {
	case EventJoinChat:
		err = r.joinChat(ctx, s, env.Data)
	case EventSubscribeToUser:
		err = r.subscribeToUser(s, env.Data)
	case EventSendMessage:
		err = r.sendMessage(ctx, env.Data)
	case EventSendNotiAdjustMember:
		err = r.notiAdjustMember(ctx, env.Data)
	case EventSendNotiUpdateGroupName:
		err = r.notiUpdateGroupName(ctx, env.Data)
	case EventTyping:
		err = r.typing(ctx, env.Data, domain.EventTyping)
	case EventStopTyping:
		err = r.typing(ctx, env.Data, domain.EventStopTyping)
	case EventAdjustStrict:
		err = r.adjustStrict(ctx, env.Data)
	default:
		s.log.Warn("unknown relay event", "event", env.Event)
		return
	}

	switch msg, ok := domain.PublicMessage(err); {
	case err == nil:
		r.count(env.Event, metrics.OutcomeOK)
	case ok:
		r.count(env.Event, metrics.OutcomeRejected)
		emitTo(s, domain.EventError, errorEvent{Message: msg})
	default:
		r.count(env.Event, metrics.OutcomeError)
		s.log.Error("relay event failed", "event", env.Event, "error", err)
		emitTo(s, domain.EventError, errorEvent{Message: msgInternal})
	}
}

func (r *Relay) count(event, outcome string) {
	if r.metrics != nil {
		r.metrics.Events.WithLabelValues(event, outcome).Inc()
	}
}

func (r *Relay) joinChat(ctx context.Context, s *Session, data json.RawMessage) error {
	var chatID string
	if err := decodeID(data, &chatID); err != nil {
		return err
	}
	if _, err := r.chats.Get(ctx, chatID); err != nil {
		return err
	}
	r.rooms.Join(chatID, s)
	emitTo(s, domain.EventJoinedChat, chatID)
	return nil
}

func (r *Relay) subscribeToUser(s *Session, data json.RawMessage) error {
	var userID string
	if err := decodeID(data, &userID); err != nil {
		return err
	}
	r.rooms.Join(userID, s)
	emitTo(s, domain.EventUserSubscribed, userID)
	return nil
}

func (r *Relay) sendMessage(ctx context.Context, data json.RawMessage) error {
	var p sendMessagePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	chat, err := r.chats.Get(ctx, p.ChatID)
	if err != nil {
		return err
	}
	if !chat.HasMember(p.SenderID) {
		return domain.Unauthorized("Unauthorized")
	}
	return r.post(ctx, chat.ID, p.SenderID, p.Content, domain.MessageNormal)
}

func (r *Relay) notiAdjustMember(ctx context.Context, data json.RawMessage) error {
	var p adjustMemberPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	chat, err := r.chats.Get(ctx, p.ChatID)
	if err != nil {
		return err
	}
	member, err := r.users.Get(ctx, p.MemberID)
	if err != nil {
		return err
	}
	verb := "removed from"
	if *p.IsAdd {
		verb = "added to"
	}
	return r.post(ctx, chat.ID, p.SenderID, fmt.Sprintf("%s was %s group", member.Name, verb), domain.MessageNoti)
}

func (r *Relay) notiUpdateGroupName(ctx context.Context, data json.RawMessage) error {
	var p updateGroupNamePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	chat, err := r.chats.Get(ctx, p.ChatID)
	if err != nil {
		return err
	}
	return r.post(ctx, chat.ID, p.SenderID, "Group name was changed to "+p.GroupName, domain.MessageNoti)
}

func (r *Relay) typing(ctx context.Context, data json.RawMessage, event string) error {
	var p typingPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	chat, err := r.chats.Get(ctx, p.ChatID)
	if err != nil {
		return err
	}
	r.rooms.Emit(chat.ID, event, typingEvent{SenderID: p.SenderID})
	return nil
}

func (r *Relay) adjustStrict(ctx context.Context, data json.RawMessage) error {
	var chatID string
	if err := decodeID(data, &chatID); err != nil {
		return err
	}
	chat, err := r.chats.FlipStrict(ctx, chatID)
	if err != nil {
		return err
	}
	r.rooms.Emit(chat.ID, domain.EventAdjustStrict, strictEvent{IsStrict: chat.IsStrict})

	state := "off"
	if chat.IsStrict {
		state = "on"
	}
	return r.post(ctx, chat.ID, chat.OwnerID, "Group strict mode was turned "+state, domain.MessageNoti)
}

func (r *Relay) post(ctx context.Context, chatID, senderID, content string, typ domain.MessageType) error {
	msg, err := r.messages.Post(ctx, chatID, senderID, content, typ)
	if err != nil {
		return err
	}
	r.rooms.Emit(chatID, domain.EventNewMessage, msg)
	return nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return domain.Validation(msgInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.Validation(msgInvalidPayload)
	}
	if err := domain.Validate(v); err != nil {
		return domain.Validation(msgInvalidPayload)
	}
	return nil
}

// decodeID reads a bare, non-empty string payload.
func decodeID(data json.RawMessage, id *string) error {
	if err := json.Unmarshal(data, id); err != nil || *id == "" {
		return domain.Validation(msgInvalidPayload)
	}
	return nil
}
