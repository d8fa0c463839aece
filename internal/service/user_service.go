package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatbackend/internal/domain"
	"chatbackend/internal/security"
)

const (
	msgAlreadyFriend = "This user is already your friend"
	msgFriendAdded   = "Friend added successfully"
	msgNotFriend     = "This user is not your friend"
	msgFriendRemoved = "Friend removed successfully"
)

// UserService provides user and friend operations.
type UserService struct {
	users domain.UserRepository
	hash  *security.PasswordHasher
}

func NewUserService(users domain.UserRepository, hash *security.PasswordHasher) *UserService {
	return &UserService{users: users, hash: hash}
}

type CreateUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserInput struct {
	Name string `json:"name"`
}

type FriendInput struct {
	FriendID string `json:"friend_id" validate:"required"`
}

type FriendResult struct {
	Message string `json:"message"`
}

// Create registers a user. An active user with the same email is returned
// unchanged instead.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hashed,
		IsOnline:  false,
		FriendIDs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return u, nil
}

// Friends lists active friends, optionally filtered by a case-insensitive
// substring of their email.
func (s *UserService) Friends(ctx context.Context, id, search string) ([]domain.Friend, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	friends, err := s.users.ListFriends(ctx, id)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(search)
	matched := lo.Filter(friends, func(f *domain.User, _ int) bool {
		return needle == "" || strings.Contains(strings.ToLower(f.Email), needle)
	})
	return lo.Map(matched, func(f *domain.User, _ int) domain.Friend {
		return domain.Friend{ID: f.ID, Name: f.Name, Email: f.Email}
	}), nil
}

// UpdateName renames the user. An empty name leaves the user unchanged.
func (s *UserService) UpdateName(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return s.Get(ctx, id)
	}
	u, err := s.users.UpdateName(ctx, id, in.Name)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return u, nil
}

func (s *UserService) ToggleStatus(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.ToggleOnline(ctx, id)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return u, nil
}

func (s *UserService) AddFriend(ctx context.Context, id string, in FriendInput) (*FriendResult, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	if in.FriendID == id {
		return nil, domain.Validation("You cannot add yourself as a friend")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.FriendID); err != nil {
		return nil, notFound(err, "Friend not found")
	}

	added, err := s.users.AddFriend(ctx, id, in.FriendID)
	if err != nil {
		return nil, err
	}
	if !added {
		return &FriendResult{Message: msgAlreadyFriend}, nil
	}
	return &FriendResult{Message: msgFriendAdded}, nil
}

func (s *UserService) RemoveFriend(ctx context.Context, id string, in FriendInput) (*FriendResult, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	removed, err := s.users.RemoveFriend(ctx, id, in.FriendID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return &FriendResult{Message: msgNotFriend}, nil
	}
	return &FriendResult{Message: msgFriendRemoved}, nil
}

// notFound gives a bare repository ErrNotFound a client-facing message.
// Other errors pass through untouched.
func notFound(err error, msg string) error {
	if _, ok := domain.PublicMessage(err); ok {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("%s", msg)
	}
	return err
}
