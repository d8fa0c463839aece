package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbackend/internal/security"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	sub, err := svc.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokenService_RejectsForeignSecret(t *testing.T) {
	token, err := security.NewTokenService("other", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = security.NewTokenService("secret", time.Hour).Subject(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := security.NewTokenService("secret", -time.Minute)
	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsEmptySubject(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)
	token, err := svc.Issue("")
	require.NoError(t, err)

	_, err = svc.Subject(token)
	assert.ErrorIs(t, err, security.ErrInvalidSubject)
}

func TestPasswordHasher(t *testing.T) {
	hasher := security.NewPasswordHasher(4, false)

	hash, err := hasher.Hash("pa55word")
	require.NoError(t, err)
	assert.NotEqual(t, "pa55word", hash)

	assert.NoError(t, hasher.Verify("pa55word", hash))
	assert.ErrorIs(t, hasher.Verify("wrong", hash), security.ErrPasswordMismatch)
}

func TestPasswordHasher_LegacyPlaintext(t *testing.T) {
	strict := security.NewPasswordHasher(4, false)
	legacy := security.NewPasswordHasher(4, true)

	assert.ErrorIs(t, strict.Verify("plain", "plain"), security.ErrPasswordMismatch)
	assert.NoError(t, legacy.Verify("plain", "plain"))
	assert.ErrorIs(t, legacy.Verify("other", "plain"), security.ErrPasswordMismatch)
}
