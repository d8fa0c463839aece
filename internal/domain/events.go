package domain

// Outbound relay event names.
const (
	EventNewMessage     = "newMessage"
	EventChatCreated    = "chatCreated"
	EventChatUpdated    = "chatUpdated"
	EventAdjustStrict   = "adjustStrict"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"
	EventJoinedChat     = "joinedChat"
	EventUserSubscribed = "user subscribed"
	EventError          = "error"
)

// Broadcaster delivers an event to every session joined to a room. Rooms are
// keyed by chat id or user id.
type Broadcaster interface {
	Emit(room, event string, data any)
}

// Integration actions published to the outbound event feed.
const (
	ActionChatCreated    = "chat.created"
	ActionChatDeleted    = "chat.deleted"
	ActionMessageCreated = "message.created"
)
