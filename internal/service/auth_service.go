package service

import (
	"context"
	"errors"
	"fmt"

	"chatbackend/internal/domain"
	"chatbackend/internal/security"
)

// AuthService handles login and token issuance.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hash:   hash,
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hash.Verify(in.Password, user.Password); err != nil {
		return nil, domain.Unauthorized("Password is incorrect")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &LoginResult{
		UserID:      user.ID,
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// Authenticate resolves the active user named by a bearer token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	sub, err := s.tokens.Subject(token)
	if err != nil {
		return nil, domain.Unauthorized("invalid token")
	}
	user, err := s.users.GetByID(ctx, sub)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
