package ws_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbackend/internal/domain"
	"chatbackend/internal/events"
	"chatbackend/internal/metrics"
	"chatbackend/internal/security"
	"chatbackend/internal/service"
	"chatbackend/internal/store/sqlite"
	"chatbackend/internal/ws"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type env struct {
	server   *httptest.Server
	users    *service.UserService
	chats    *service.ChatService
	messages *service.MessageService
	rooms    *ws.Rooms
	tokens   *security.TokenService
	metrics  *metrics.Metrics
}

func newEnv(t *testing.T, requireAuth bool) *env {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	userRepo := sqlite.NewUserRepo(db)
	hasher := security.NewPasswordHasher(4, true)
	e := &env{
		rooms:   ws.NewRooms(log),
		tokens:  security.NewTokenService("secret", time.Hour),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	e.users = service.NewUserService(userRepo, hasher)
	e.messages = service.NewMessageService(sqlite.NewMessageRepo(db), events.NopPublisher{}, log)
	e.chats = service.NewChatService(sqlite.NewChatRepo(db), e.messages, nil, e.rooms, events.NopPublisher{}, log, service.ChatOptions{})
	auth := service.NewAuthService(userRepo, e.tokens, hasher)

	relay := ws.NewRelay(e.rooms, e.chats, e.messages, e.users, e.metrics, log)
	e.server = httptest.NewServer(ws.MakeHandler(relay, auth, e.metrics, log, ws.HandlerConfig{
		AllowedOrigins: []string{"*"},
		RequireAuth:    requireAuth,
		SendBuffer:     16,
	}))
	t.Cleanup(e.server.Close)
	return e
}

func (e *env) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(e.server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (e *env) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), service.CreateUserInput{
		Name: name, Email: strings.ToLower(name) + "@example.com", Password: "pw",
	})
	require.NoError(t, err)
	return u
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func assertSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	var f frame
	err := conn.ReadJSON(&f)
	assert.Error(t, err, "unexpected event %q", f.Event)
}

func join(t *testing.T, conn *websocket.Conn, chatID string) {
	t.Helper()
	send(t, conn, ws.EventJoinChat, chatID)
	f := read(t, conn)
	require.Equal(t, domain.EventJoinedChat, f.Event)
	var id string
	require.NoError(t, json.Unmarshal(f.Data, &id))
	require.Equal(t, chatID, id)
}

func errorMessage(t *testing.T, f frame) string {
	t.Helper()
	require.Equal(t, domain.EventError, f.Event)
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &body))
	return body.Message
}

func TestRelay_MessageReachesEveryJoinedMemberOnce(t *testing.T) {
	req := require.New(t)
	e := newEnv(t, false)
	a, b := e.user(t, "A"), e.user(t, "B")
	chat, err := e.chats.Create(context.Background(), a.ID, service.CreateChatInput{Members: []string{a.ID, b.ID}})
	req.NoError(err)

	connA, connB := e.dial(t), e.dial(t)
	join(t, connA, chat.ID)
	join(t, connB, chat.ID)
	req.Equal(2, e.rooms.Size(chat.ID))
	req.Equal(2.0, testutil.ToFloat64(e.metrics.Sessions))

	// When
	send(t, connA, ws.EventSendMessage, map[string]string{"chat_id": chat.ID, "sender_id": a.ID, "content": "hi"})

	// Then
	for _, conn := range []*websocket.Conn{connA, connB} {
		f := read(t, conn)
		req.Equal(domain.EventNewMessage, f.Event)
		var msg domain.Message
		req.NoError(json.Unmarshal(f.Data, &msg))
		req.Equal("hi", msg.Content)
		req.Equal(domain.MessageNormal, msg.Type)
		req.Equal(a.ID, msg.SenderID)
		assertSilent(t, conn)
	}
	req.Equal(1.0, testutil.ToFloat64(e.metrics.Events.WithLabelValues(ws.EventSendMessage, metrics.OutcomeOK)))
}

func TestRelay_NonMemberIsRejected(t *testing.T) {
	req := require.New(t)
	e := newEnv(t, false)
	a, c := e.user(t, "A"), e.user(t, "C")
	chat, err := e.chats.Create(context.Background(), a.ID, service.CreateChatInput{Members: []string{a.ID}})
	req.NoError(err)

	connA, connC := e.dial(t), e.dial(t)
	join(t, connA, chat.ID)

	send(t, connC, ws.EventSendMessage, map[string]string{"chat_id": chat.ID, "sender_id": c.ID, "content": "intrude"})

	req.Equal("Unauthorized", errorMessage(t, read(t, connC)))
	assertSilent(t, connA)
	page, err := e.messages.Page(context.Background(), chat.ID, 1, 20)
	req.NoError(err)
	req.Zero(page.Total)
}

func TestRelay_ErrorsStayWithCallerAndConnectionSurvives(t *testing.T) {
	req := require.New(t)
	e := newEnv(t, false)
	a := e.user(t, "A")
	chat, err := e.chats.Create(context.Background(), a.ID, service.CreateChatInput{Members: []string{a.ID}})
	req.NoError(err)
	conn := e.dial(t)

	send(t, conn, ws.EventJoinChat, "missing")
	req.Equal("Chat not found", errorMessage(t, read(t, conn)))

	send(t, conn, ws.EventSendMessage, map[string]string{"chat_id": chat.ID})
	req.Equal("Invalid payload", errorMessage(t, read(t, conn)))

	send(t, conn, ws.EventSendNotiAdjustMember, map[string]string{"chat_id": chat.ID, "sender_id": a.ID, "member_id": a.ID})
	req.Equal("Invalid payload", errorMessage(t, read(t, conn)))

	send(t, conn, ws.EventSendNotiAdjustMember, map[string]any{"chat_id": chat.ID, "sender_id": a.ID, "member_id": "ghost", "isAdd": true})
	req.Equal("User not found", errorMessage(t, read(t, conn)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	req.Equal("Invalid payload", errorMessage(t, read(t, conn)))

	send(t, conn, "noSuchEvent", "x")
	join(t, conn, chat.ID)
}

func TestRelay_StrictToggleTwice(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newEnv(t, false)
	owner := e.user(t, "Owner")
	chat, err := e.chats.Create(ctx, owner.ID, service.CreateChatInput{Members: []string{owner.ID}, IsGroup: true})
	req.NoError(err)
	conn := e.dial(t)
	join(t, conn, chat.ID)

	for _, want := range []struct {
		strict  bool
		content string
	}{
		{true, "Group strict mode was turned on"},
		{false, "Group strict mode was turned off"},
	} {
		send(t, conn, ws.EventAdjustStrict, chat.ID)

		f := read(t, conn)
		req.Equal(domain.EventAdjustStrict, f.Event)
		var state struct {
			IsStrict bool `json:"is_strict"`
		}
		req.NoError(json.Unmarshal(f.Data, &state))
		req.Equal(want.strict, state.IsStrict)

		f = read(t, conn)
		req.Equal(domain.EventNewMessage, f.Event)
		var msg domain.Message
		req.NoError(json.Unmarshal(f.Data, &msg))
		req.Equal(want.content, msg.Content)
		req.Equal(domain.MessageNoti, msg.Type)
		req.Equal(owner.ID, msg.SenderID)
	}

	got, err := e.chats.Get(ctx, chat.ID)
	req.NoError(err)
	req.False(got.IsStrict)
	page, err := e.messages.Page(ctx, chat.ID, 1, 20)
	req.NoError(err)
	req.Equal(2, page.Total)
}

func TestRelay_NotificationsAndTyping(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newEnv(t, false)
	a, b := e.user(t, "A"), e.user(t, "Bob")
	chat, err := e.chats.Create(ctx, a.ID, service.CreateChatInput{Members: []string{a.ID}, IsGroup: true})
	req.NoError(err)
	conn := e.dial(t)
	join(t, conn, chat.ID)

	send(t, conn, ws.EventSendNotiAdjustMember, map[string]any{"chat_id": chat.ID, "sender_id": a.ID, "member_id": b.ID, "isAdd": false})
	f := read(t, conn)
	var msg domain.Message
	req.NoError(json.Unmarshal(f.Data, &msg))
	req.Equal("Bob was removed from group", msg.Content)

	send(t, conn, ws.EventSendNotiUpdateGroupName, map[string]string{"chat_id": chat.ID, "sender_id": a.ID, "groupName": "Crew"})
	f = read(t, conn)
	req.NoError(json.Unmarshal(f.Data, &msg))
	req.Equal("Group name was changed to Crew", msg.Content)

	send(t, conn, ws.EventTyping, map[string]string{"chat_id": chat.ID, "sender_id": a.ID})
	f = read(t, conn)
	req.Equal(domain.EventTyping, f.Event)
	req.JSONEq(`{"sender_id":"`+a.ID+`"}`, string(f.Data))

	send(t, conn, ws.EventStopTyping, map[string]string{"chat_id": chat.ID, "sender_id": a.ID})
	req.Equal(domain.EventStopTyping, read(t, conn).Event)

	page, err := e.messages.Page(ctx, chat.ID, 1, 20)
	req.NoError(err)
	req.Equal(2, page.Total)
}

func TestRelay_UserRoomReceivesChatCreated(t *testing.T) {
	req := require.New(t)
	e := newEnv(t, false)
	a, b := e.user(t, "A"), e.user(t, "B")
	conn := e.dial(t)

	send(t, conn, ws.EventSubscribeToUser, b.ID)
	f := read(t, conn)
	req.Equal(domain.EventUserSubscribed, f.Event)

	chat, err := e.chats.Create(context.Background(), a.ID, service.CreateChatInput{Members: []string{b.ID}})
	req.NoError(err)

	f = read(t, conn)
	req.Equal(domain.EventChatCreated, f.Event)
	var snap domain.ChatSnapshot
	req.NoError(json.Unmarshal(f.Data, &snap))
	req.Equal(chat.ID, snap.ID)
	req.Equal(a.ID, snap.OwnerID)
}

func TestRelay_DisconnectLeavesRooms(t *testing.T) {
	e := newEnv(t, false)
	a := e.user(t, "A")
	chat, err := e.chats.Create(context.Background(), a.ID, service.CreateChatInput{Members: []string{a.ID}})
	require.NoError(t, err)
	conn := e.dial(t)
	join(t, conn, chat.ID)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return e.rooms.Size(chat.ID) == 0 && testutil.ToFloat64(e.metrics.Sessions) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RequiresTokenWhenConfigured(t *testing.T) {
	req := require.New(t)
	e := newEnv(t, true)
	a := e.user(t, "A")
	url := "ws" + strings.TrimPrefix(e.server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	token, err := e.tokens.Issue(a.ID)
	req.NoError(err)
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	req.NoError(err)
	_ = conn.Close()

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err = websocket.DefaultDialer.Dial(url, header)
	req.NoError(err)
	_ = conn.Close()
}
