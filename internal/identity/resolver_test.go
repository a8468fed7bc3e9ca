package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	resolver := NewTokenResolver("test-secret", time.Hour)
	id := uuid.New()

	token, err := resolver.IssueToken(id, "staff@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	ident, err := resolver.Resolve(token)
	assert.NoError(t, err)
	assert.Equal(t, id, ident.ID)
	assert.Equal(t, "staff@example.com", ident.Email)
}

func TestResolveEmptyToken(t *testing.T) {
	resolver := NewTokenResolver("test-secret", time.Hour)

	ident, err := resolver.Resolve("")
	assert.Nil(t, ident)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveMalformedToken(t *testing.T) {
	resolver := NewTokenResolver("test-secret", time.Hour)

	_, err := resolver.Resolve("not.a.jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveWrongSecret(t *testing.T) {
	issuer := NewTokenResolver("secret-a", time.Hour)
	verifier := NewTokenResolver("secret-b", time.Hour)

	token, err := issuer.IssueToken(uuid.New(), "staff@example.com")
	assert.NoError(t, err)

	_, err = verifier.Resolve(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveExpiredToken(t *testing.T) {
	resolver := NewTokenResolver("test-secret", time.Nanosecond)

	token, err := resolver.IssueToken(uuid.New(), "staff@example.com")
	assert.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = resolver.Resolve(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGenerateTemporaryPassword(t *testing.T) {
	a, err := GenerateTemporaryPassword(TemporaryPasswordLength)
	assert.NoError(t, err)
	assert.Len(t, a, TemporaryPasswordLength)

	b, err := GenerateTemporaryPassword(TemporaryPasswordLength)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)

	for _, r := range a {
		valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		assert.True(t, valid, "unexpected character %q", r)
	}
}
