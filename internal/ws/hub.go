package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"chatbackend/internal/domain"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Rooms tracks which live sessions have joined which rooms. A room is keyed
// by a chat id or a user id.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
	log   *slog.Logger
}

var _ domain.Broadcaster = (*Rooms)(nil)

func NewRooms(log *slog.Logger) *Rooms {
	return &Rooms{
		rooms: make(map[string]map[*Session]struct{}),
		log:   log,
	}
}

// Join adds the session to a room. Joining twice is a no-op.
func (r *Rooms) Join(room string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[*Session]struct{})
	}
	r.rooms[room][s] = struct{}{}
	s.rooms[room] = struct{}{}
}

// Leave removes the session from a room.
func (r *Rooms) Leave(room string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leave(room, s)
}

// LeaveAll removes the session from every room it joined.
func (r *Rooms) LeaveAll(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range s.rooms {
		r.leave(room, s)
	}
}

func (r *Rooms) leave(room string, s *Session) {
	delete(s.rooms, room)
	if sessions, ok := r.rooms[room]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Size reports how many sessions are in a room.
func (r *Rooms) Size(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Emit sends an event to every session in the room, including the session
// that caused it. Sessions whose queue is full miss the event.
func (r *Rooms) Emit(room, event string, data any) {
	frame, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		r.log.Error("encode relay event", "event", event, "room", room, "error", err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.rooms[room] {
		s.enqueue(frame)
	}
}

// emitTo sends an event to a single session.
func emitTo(s *Session, event string, data any) {
	frame, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		s.log.Error("encode relay event", "event", event, "error", err)
		return
	}
	s.enqueue(frame)
}
