package service_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatbackend/internal/blob"
	"chatbackend/internal/events"
	"chatbackend/internal/security"
	"chatbackend/internal/service"
	"chatbackend/internal/store/sqlite"
)

type emitted struct {
	Room  string
	Event string
	Data  any
}

type recordingRooms struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recordingRooms) Emit(room, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{Room: room, Event: event, Data: data})
}

func (r *recordingRooms) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emitted(nil), r.events...)
}

func (r *recordingRooms) rooms(event string) []string {
	var out []string
	for _, e := range r.all() {
		if e.Event == event {
			out = append(out, e.Room)
		}
	}
	return out
}

type recordingPublisher struct {
	events.NopPublisher
	mu      sync.Mutex
	actions []string
}

func (p *recordingPublisher) Publish(_ context.Context, action string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
	return nil
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, p blob.Profile, obj blob.Object) (*blob.Result, error) {
	args := m.Called(ctx, p, obj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blob.Result), args.Error(1)
}

type fixture struct {
	users     *service.UserService
	chats     *service.ChatService
	messages  *service.MessageService
	rooms     *recordingRooms
	publisher *recordingPublisher
	uploader  *MockUploader
}

func newFixture(t *testing.T, opts service.ChatOptions) *fixture {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	f := &fixture{
		rooms:     &recordingRooms{},
		publisher: &recordingPublisher{},
		uploader:  new(MockUploader),
	}
	f.users = service.NewUserService(sqlite.NewUserRepo(db), security.NewPasswordHasher(4, true))
	f.messages = service.NewMessageService(sqlite.NewMessageRepo(db), f.publisher, log)
	f.chats = service.NewChatService(sqlite.NewChatRepo(db), f.messages, f.uploader, f.rooms, f.publisher, log, opts)
	return f
}
