package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatbackend/internal/domain"
	"chatbackend/internal/security"
	"chatbackend/internal/service"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	return nil, nil // Not used in auth tests
}

func (m *MockUserRepo) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	return nil, nil
}

func (m *MockUserRepo) ToggleOnline(ctx context.Context, id string) (*domain.User, error) {
	return nil, nil
}

func (m *MockUserRepo) SoftDelete(ctx context.Context, id string) (*domain.User, error) {
	return nil, nil
}

func (m *MockUserRepo) ListFriends(ctx context.Context, id string) ([]*domain.User, error) {
	return nil, nil
}

func (m *MockUserRepo) AddFriend(ctx context.Context, id, friendID string) (bool, error) {
	return false, nil
}

func (m *MockUserRepo) RemoveFriend(ctx context.Context, id, friendID string) (bool, error) {
	return false, nil
}

func TestLogin(t *testing.T) {
	mockRepo := new(MockUserRepo)
	tokenSvc := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4, true) // low cost for tests

	svc := service.NewAuthService(mockRepo, tokenSvc, hasher)

	hashed, err := hasher.Hash("secret1")
	require.NoError(t, err)
	mockRepo.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{ID: "u1", Email: "alice@example.com", Password: hashed}, nil)
	mockRepo.On("GetByEmail", mock.Anything, "legacy@example.com").
		Return(&domain.User{ID: "u2", Email: "legacy@example.com", Password: "plain"}, nil)
	mockRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	t.Run("Success", func(t *testing.T) {
		res, err := svc.Login(context.Background(), service.LoginInput{Email: "alice@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "u1", res.UserID)
		assert.Equal(t, "bearer", res.TokenType)

		sub, err := tokenSvc.Subject(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", sub)
	})

	t.Run("LegacyPlaintext", func(t *testing.T) {
		res, err := svc.Login(context.Background(), service.LoginInput{Email: "legacy@example.com", Password: "plain"})
		require.NoError(t, err)
		assert.Equal(t, "u2", res.UserID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		res, err := svc.Login(context.Background(), service.LoginInput{Email: "alice@example.com", Password: "nope"})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.EqualError(t, err, "Password is incorrect")
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := svc.Login(context.Background(), service.LoginInput{Email: "ghost@example.com", Password: "x"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.EqualError(t, err, "User not found")
	})

	t.Run("InvalidInput", func(t *testing.T) {
		_, err := svc.Login(context.Background(), service.LoginInput{Email: "not-an-email", Password: "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestAuthenticate(t *testing.T) {
	mockRepo := new(MockUserRepo)
	tokenSvc := security.NewTokenService("secret", time.Hour)
	svc := service.NewAuthService(mockRepo, tokenSvc, security.NewPasswordHasher(4, false))

	mockRepo.On("GetByID", mock.Anything, "u1").Return(&domain.User{ID: "u1"}, nil)
	mockRepo.On("GetByID", mock.Anything, "gone").Return(nil, domain.ErrNotFound)

	token, err := tokenSvc.Issue("u1")
	require.NoError(t, err)
	user, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	token, err = tokenSvc.Issue("gone")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	other := security.NewTokenService("other-secret", time.Hour)
	token, err = other.Issue("u1")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
