package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/irisvault/internal/common"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("secretKey")

	token, err := GenerateToken("sess-123", secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sid, err := GetSessionIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "sess-123", sid)
}

func TestGetSessionIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("sess-123", []byte("secretKey"), time.Hour)
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(token, []byte("otherKey"))
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestGetSessionIDFromToken_Expired(t *testing.T) {
	token, err := GenerateToken("sess-123", []byte("secretKey"), -time.Minute)
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(token, []byte("secretKey"))
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestGetSessionIDFromToken_Garbage(t *testing.T) {
	_, err := GetSessionIDFromToken("not-a-token", []byte("secretKey"))
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}
