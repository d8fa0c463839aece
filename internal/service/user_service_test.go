package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbackend/internal/domain"
	"chatbackend/internal/service"
)

func createUser(t *testing.T, f *fixture, name, email string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), service.CreateUserInput{Name: name, Email: email, Password: "pw"})
	require.NoError(t, err)
	return u
}

func TestUserService_CreateReturnsExistingOnDuplicateEmail(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, service.ChatOptions{})

	first := createUser(t, f, "Alice", "alice@example.com")
	second, err := f.users.Create(context.Background(), service.CreateUserInput{
		Name: "Other", Email: "alice@example.com", Password: "different",
	})

	req.NoError(err)
	req.Equal(first.ID, second.ID)
	req.Equal("Alice", second.Name)
	req.NotEqual("pw", first.Password)
	req.Empty(first.FriendIDs)
}

func TestUserService_CreateValidation(t *testing.T) {
	f := newFixture(t, service.ChatOptions{})

	_, err := f.users.Create(context.Background(), service.CreateUserInput{Email: "bad", Password: "x"})

	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Friends(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, service.ChatOptions{})
	a := createUser(t, f, "A", "a@example.com")
	b := createUser(t, f, "B", "Bob@Example.com")
	c := createUser(t, f, "C", "carol@example.com")

	res, err := f.users.AddFriend(ctx, a.ID, service.FriendInput{FriendID: b.ID})
	req.NoError(err)
	req.Equal("Friend added successfully", res.Message)
	res, err = f.users.AddFriend(ctx, a.ID, service.FriendInput{FriendID: b.ID})
	req.NoError(err)
	req.Equal("This user is already your friend", res.Message)
	_, err = f.users.AddFriend(ctx, a.ID, service.FriendInput{FriendID: c.ID})
	req.NoError(err)

	_, err = f.users.AddFriend(ctx, a.ID, service.FriendInput{FriendID: a.ID})
	req.ErrorIs(err, domain.ErrValidation)
	_, err = f.users.AddFriend(ctx, a.ID, service.FriendInput{FriendID: "ghost"})
	req.EqualError(err, "Friend not found")

	friends, err := f.users.Friends(ctx, a.ID, "BOB")
	req.NoError(err)
	req.Equal([]domain.Friend{{ID: b.ID, Name: "B", Email: "Bob@Example.com"}}, friends)

	friends, err = f.users.Friends(ctx, b.ID, "")
	req.NoError(err)
	req.Len(friends, 1)

	res, err = f.users.RemoveFriend(ctx, b.ID, service.FriendInput{FriendID: a.ID})
	req.NoError(err)
	req.Equal("Friend removed successfully", res.Message)
	res, err = f.users.RemoveFriend(ctx, b.ID, service.FriendInput{FriendID: a.ID})
	req.NoError(err)
	req.Equal("This user is not your friend", res.Message)

	got, err := f.users.Get(ctx, a.ID)
	req.NoError(err)
	req.Equal([]string{c.ID}, got.FriendIDs)
}

func TestUserService_StatusRenameDelete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, service.ChatOptions{})
	u := createUser(t, f, "A", "a@example.com")

	got, err := f.users.ToggleStatus(ctx, u.ID)
	req.NoError(err)
	req.True(got.IsOnline)

	got, err = f.users.UpdateName(ctx, u.ID, service.UpdateUserInput{})
	req.NoError(err)
	req.Equal("A", got.Name)
	got, err = f.users.UpdateName(ctx, u.ID, service.UpdateUserInput{Name: "Alice"})
	req.NoError(err)
	req.Equal("Alice", got.Name)

	got, err = f.users.Delete(ctx, u.ID)
	req.NoError(err)
	req.NotNil(got.DeletedAt)

	_, err = f.users.Get(ctx, u.ID)
	assert.EqualError(t, err, "User not found")
	_, err = f.users.Delete(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
