package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue("u1", RoleAdmin)
	require.NoError(t, err)

	identity, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.True(t, identity.IsAdmin())
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret", time.Hour).Issue("u1", "")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.Issue("u1", "")
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsMissingUserID(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresUserID(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).Issue("", "")
	assert.Error(t, err)
}
