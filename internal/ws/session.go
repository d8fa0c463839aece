package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Session is one live socket connection. Reads happen on the connection's
// handler goroutine; writes go through the send queue to a single writer.
type Session struct {
	ID     string
	UserID string

	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once
	log   *slog.Logger
	rooms map[string]struct{} // guarded by Rooms.mu
}

func newSession(conn *websocket.Conn, buffer int, log *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:    id,
		conn:  conn,
		send:  make(chan []byte, buffer),
		done:  make(chan struct{}),
		log:   log.With("session", id),
		rooms: make(map[string]struct{}),
	}
}

func (s *Session) enqueue(frame []byte) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- frame:
	default:
		s.log.Warn("send queue full, dropping event")
	}
}

// writeLoop drains the send queue until the session closes.
func (s *Session) writeLoop() {
	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Debug("write failed", "error", err)
				s.close()
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
	})
}
