package auth

import (
	"testing"
	"time"

	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{ID: core.NewID(), Email: "field@bhss.ph", Role: models.RoleUser}
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := testUser()

	token, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret", time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Hour).Verify(token)
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.Equal(t, "token expired", errors.Message(err))
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "abc", "Basic abc", "Bearer "} {
		_, err := BearerToken(header)
		assert.Error(t, err, header)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, ComparePassword(hash, "correct horse"))
	assert.False(t, ComparePassword(hash, "wrong"))
}
