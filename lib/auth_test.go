package lib

import (
	"commerce_server/structs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArgon = &structs.ArgonParams{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", testArgon)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=1024,t=1,p=1$")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("correct horse", testArgon)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")

	_, err = VerifyPassword("x", "$bcrypt$nope")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	claims := &structs.AuthClaims{Sub: uuid.New(), Iat: now, Exp: now.Add(time.Hour), Jti: uuid.New()}

	token, err := SignToken(claims, "commerce", "secret")
	require.NoError(t, err)

	parsed, err := ParseToken(token, "commerce", "secret")
	require.NoError(t, err)
	assert.Equal(t, claims.Sub, parsed.Sub)
	assert.Equal(t, claims.Jti, parsed.Jti)
	assert.Equal(t, claims.Exp.Unix(), parsed.Exp.Unix())

	_, err = ParseToken(token, "commerce", "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(token, "someone-else", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	claims := &structs.AuthClaims{Sub: uuid.New(), Iat: past, Exp: past.Add(time.Hour), Jti: uuid.New()}

	token, err := SignToken(claims, "commerce", "secret")
	require.NoError(t, err)

	_, err = ParseToken(token, "commerce", "secret")
	assert.ErrorIs(t, err, ErrExpiredToken)
}
