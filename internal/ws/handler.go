package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"chatbackend/internal/domain"
	"chatbackend/internal/metrics"
)

const maxFrameBytes = 1 << 20

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type HandlerConfig struct {
	AllowedOrigins []string
	RequireAuth    bool
	SendBuffer     int
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if _, wildcard := allowed["*"]; wildcard {
		return func(r *http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			// Non-browser clients send no Origin.
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// MakeHandler returns the HTTP handler for the /ws endpoint. Each connection
// gets a Session; inbound frames are dispatched in order through the relay
// and the session leaves every room on disconnect.
func MakeHandler(
	relay *Relay,
	auth Authenticator,
	m *metrics.Metrics,
	log *slog.Logger,
	cfg HandlerConfig,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(cfg.AllowedOrigins)
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		var user *domain.User
		if cfg.RequireAuth {
			token := extractToken(r)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			u, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			user = u
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("ws upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxFrameBytes)

		s := newSession(conn, cfg.SendBuffer, log)
		if user != nil {
			s.UserID = user.ID
		}
		if m != nil {
			m.Sessions.Inc()
			defer m.Sessions.Dec()
		}
		go s.writeLoop()
		defer func() {
			relay.rooms.LeaveAll(s)
			s.close()
		}()
		s.log.Info("ws session opened", "user_id", s.UserID)

		ctx := r.Context()
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Debug("ws read failed", "error", err)
				}
				break
			}
			var env Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				emitTo(s, domain.EventError, errorEvent{Message: msgInvalidPayload})
				continue
			}
			relay.Dispatch(ctx, s, env)
		}
		s.log.Info("ws session closed", "user_id", s.UserID)
	}
}
