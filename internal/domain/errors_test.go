package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbackend/internal/domain"
)

func TestError_UnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", domain.NotFound("Chat not found"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, errors.Is(err, domain.ErrValidation))

	msg, ok := domain.PublicMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Chat not found", msg)
}

func TestPublicMessage_HidesUnclassified(t *testing.T) {
	_, ok := domain.PublicMessage(errors.New("pq: connection refused"))
	assert.False(t, ok)
}

type signup struct {
	Name    string   `json:"name" validate:"required"`
	Email   string   `json:"email" validate:"required,email"`
	Members []string `json:"members" validate:"min=1"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   signup
		want string
	}{
		{"missing name", signup{Email: "a@b.c", Members: []string{"x"}}, "name is required"},
		{"bad email", signup{Name: "a", Email: "nope", Members: []string{"x"}}, "email must be a valid email"},
		{"no members", signup{Name: "a", Email: "a@b.c", Members: []string{}}, "members must contain at least 1 item(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.Validate(tt.in)
			require.ErrorIs(t, err, domain.ErrValidation)
			require.EqualError(t, err, tt.want)
		})
	}

	require.NoError(t, domain.Validate(signup{Name: "a", Email: "a@b.c", Members: []string{"x"}}))
}

func TestChat_SnapshotCopiesMembers(t *testing.T) {
	c := &domain.Chat{ID: "c1", OwnerID: "o", Members: []string{"a", "b"}}

	snap := c.Snapshot()
	snap.Members[0] = "z"

	assert.Equal(t, []string{"a", "b"}, c.Members)
	assert.True(t, c.HasMember("b"))
	assert.False(t, c.HasMember("z"))
}
