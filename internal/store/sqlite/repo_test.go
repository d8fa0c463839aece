package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatbackend/internal/domain"
	"chatbackend/internal/store/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, repo *sqlite.UserRepo, id, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{ID: id, Name: "name-" + id, Email: email, Password: "pw", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func seedChat(t *testing.T, repo *sqlite.ChatRepo, id, owner string, members ...string) *domain.Chat {
	t.Helper()
	now := time.Now().UTC()
	c := &domain.Chat{ID: id, OwnerID: owner, Members: members, IsGroup: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestUserRepo_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	users := sqlite.NewUserRepo(newTestDB(t))

	// Given
	seedUser(t, users, "u1", "alice@example.com")

	// When
	byID, err := users.GetByID(ctx, "u1")
	req.NoError(err)
	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	req.NoError(err)

	// Then
	req.Equal("alice@example.com", byID.Email)
	req.Equal("u1", byEmail.ID)
	req.Empty(byID.FriendIDs)
	req.Nil(byID.DeletedAt)

	_, err = users.GetByID(ctx, "missing")
	req.ErrorIs(err, domain.ErrNotFound)
}

func TestUserRepo_SoftDeleteHidesUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	users := sqlite.NewUserRepo(newTestDB(t))
	seedUser(t, users, "u1", "alice@example.com")

	deleted, err := users.SoftDelete(ctx, "u1")
	req.NoError(err)
	req.NotNil(deleted.DeletedAt)

	_, err = users.GetByID(ctx, "u1")
	req.ErrorIs(err, domain.ErrNotFound)
	all, err := users.List(ctx)
	req.NoError(err)
	req.Empty(all)

	_, err = users.SoftDelete(ctx, "u1")
	req.ErrorIs(err, domain.ErrNotFound)

	// The email is free again once the previous owner is gone.
	seedUser(t, users, "u2", "alice@example.com")
}

func TestUserRepo_ToggleOnlineAndRename(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	users := sqlite.NewUserRepo(newTestDB(t))
	seedUser(t, users, "u1", "alice@example.com")

	u, err := users.ToggleOnline(ctx, "u1")
	req.NoError(err)
	req.True(u.IsOnline)
	u, err = users.ToggleOnline(ctx, "u1")
	req.NoError(err)
	req.False(u.IsOnline)

	u, err = users.UpdateName(ctx, "u1", "Alice")
	req.NoError(err)
	req.Equal("Alice", u.Name)
}

func TestUserRepo_FriendshipIsSymmetricAndIdempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	users := sqlite.NewUserRepo(newTestDB(t))
	seedUser(t, users, "a", "a@example.com")
	seedUser(t, users, "b", "b@example.com")

	added, err := users.AddFriend(ctx, "a", "b")
	req.NoError(err)
	req.True(added)
	added, err = users.AddFriend(ctx, "a", "b")
	req.NoError(err)
	req.False(added)

	a, err := users.GetByID(ctx, "a")
	req.NoError(err)
	req.Equal([]string{"b"}, a.FriendIDs)
	b, err := users.GetByID(ctx, "b")
	req.NoError(err)
	req.Equal([]string{"a"}, b.FriendIDs)

	removed, err := users.RemoveFriend(ctx, "b", "a")
	req.NoError(err)
	req.True(removed)
	removed, err = users.RemoveFriend(ctx, "b", "a")
	req.NoError(err)
	req.False(removed)

	a, err = users.GetByID(ctx, "a")
	req.NoError(err)
	req.Empty(a.FriendIDs)
}

func TestUserRepo_ListFriendsSkipsDeleted(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	users := sqlite.NewUserRepo(newTestDB(t))
	seedUser(t, users, "a", "a@example.com")
	seedUser(t, users, "b", "b@example.com")
	seedUser(t, users, "c", "c@example.com")
	_, err := users.AddFriend(ctx, "a", "b")
	req.NoError(err)
	_, err = users.AddFriend(ctx, "a", "c")
	req.NoError(err)

	_, err = users.SoftDelete(ctx, "c")
	req.NoError(err)

	friends, err := users.ListFriends(ctx, "a")
	req.NoError(err)
	req.Len(friends, 1)
	req.Equal("b", friends[0].ID)
}

func TestChatRepo_MembershipKeepsOrder(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	chats := sqlite.NewChatRepo(newTestDB(t))
	seedChat(t, chats, "c1", "owner", "b", "a")

	req.NoError(chats.AddMember(ctx, "c1", "c"))
	req.NoError(chats.AddMember(ctx, "c1", "a"))

	c, err := chats.GetByID(ctx, "c1")
	req.NoError(err)
	req.Equal([]string{"b", "a", "c"}, c.Members)

	req.NoError(chats.RemoveMember(ctx, "c1", "a"))
	c, err = chats.GetByID(ctx, "c1")
	req.NoError(err)
	req.Equal([]string{"b", "c"}, c.Members)

	req.ErrorIs(chats.AddMember(ctx, "missing", "a"), domain.ErrNotFound)
}

func TestChatRepo_ToggleStrictAndRename(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	chats := sqlite.NewChatRepo(newTestDB(t))
	seedChat(t, chats, "c1", "owner", "a")

	strict, err := chats.ToggleStrict(ctx, "c1")
	req.NoError(err)
	req.True(strict)
	strict, err = chats.ToggleStrict(ctx, "c1")
	req.NoError(err)
	req.False(strict)

	req.NoError(chats.Rename(ctx, "c1", "Team"))
	c, err := chats.GetByID(ctx, "c1")
	req.NoError(err)
	req.Equal("Team", *c.GroupName)

	_, err = chats.ToggleStrict(ctx, "missing")
	req.ErrorIs(err, domain.ErrNotFound)
}

func TestChatRepo_ListForUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	chats := sqlite.NewChatRepo(newTestDB(t))
	seedChat(t, chats, "c1", "owner", "a", "b")
	seedChat(t, chats, "c2", "owner", "b")
	seedChat(t, chats, "c3", "owner", "a")
	_, err := chats.SoftDelete(ctx, "c3")
	req.NoError(err)

	forA, err := chats.ListForUser(ctx, "a")
	req.NoError(err)
	req.Len(forA, 1)
	req.Equal("c1", forA[0].ID)
	req.Equal([]string{"a", "b"}, forA[0].Members)
}

func TestChatRepo_SoftDeleteCascadesToMessages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	chats := sqlite.NewChatRepo(db)
	msgs := sqlite.NewMessageRepo(db)
	seedChat(t, chats, "c1", "owner", "a")
	for i := 0; i < 3; i++ {
		req.NoError(msgs.Create(ctx, &domain.Message{
			ID: fmt.Sprintf("m%d", i), ChatID: "c1", SenderID: "a", Content: "x",
			Type: domain.MessageNormal, CreatedAt: time.Now().UTC(),
		}))
	}

	// When
	changed, err := chats.SoftDelete(ctx, "c1")
	req.NoError(err)
	req.True(changed)

	// Then
	_, err = chats.GetByID(ctx, "c1")
	req.ErrorIs(err, domain.ErrNotFound)
	page, total, err := msgs.ListForChat(ctx, "c1", 0, 20)
	req.NoError(err)
	req.Empty(page)
	req.Zero(total)
	_, err = msgs.GetByID(ctx, "m0")
	req.ErrorIs(err, domain.ErrNotFound)

	changed, err = chats.SoftDelete(ctx, "c1")
	req.NoError(err)
	req.False(changed)
}

func TestMessageRepo_ListForChatNewestFirst(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := newTestDB(t)
	chats := sqlite.NewChatRepo(db)
	msgs := sqlite.NewMessageRepo(db)
	seedChat(t, chats, "c1", "owner", "a")
	seedChat(t, chats, "c2", "owner", "a")

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		req.NoError(msgs.Create(ctx, &domain.Message{
			ID: fmt.Sprintf("m%d", i), ChatID: "c1", SenderID: "a", Content: fmt.Sprint(i),
			Type: domain.MessageNormal, CreatedAt: now,
		}))
	}
	req.NoError(msgs.Create(ctx, &domain.Message{
		ID: "other", ChatID: "c2", SenderID: "a", Content: "z", Type: domain.MessageNormal, CreatedAt: now,
	}))

	page, total, err := msgs.ListForChat(ctx, "c1", 1, 2)
	req.NoError(err)
	req.Equal(5, total)
	req.Len(page, 2)
	req.Equal("m3", page[0].ID)
	req.Equal("m2", page[1].ID)

	all, err := msgs.List(ctx)
	req.NoError(err)
	req.Len(all, 6)
	req.Equal("m0", all[0].ID)
}
