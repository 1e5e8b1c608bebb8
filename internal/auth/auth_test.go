package auth

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/workhub/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret"))
}

func TestVerifyToken(t *testing.T) {
	issuer := NewTokenIssuer(testKey)

	signed := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.StandardClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	t.Run("valid token", func(t *testing.T) {
		db := &database.MockRepository{}
		db.On("GetUserByEmail", "alice@example.com").Return(database.User{Id: 7}, nil)

		token, err := issuer.Issue("alice@example.com", time.Minute)
		require.NoError(t, err)

		userId, err := NewAuthenticator(testKey, db).VerifyToken(token)
		assert.NoError(t, err)
		assert.Equal(t, 7, userId)
		db.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		db := &database.MockRepository{}
		token := signed(t, jwt.SigningMethodHS256, testKey, jwt.StandardClaims{
			Subject:   "alice@example.com",
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		})

		_, err := NewAuthenticator(testKey, db).VerifyToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
		db.AssertNotCalled(t, "GetUserByEmail")
	})

	t.Run("wrong signature", func(t *testing.T) {
		db := &database.MockRepository{}
		token := signed(t, jwt.SigningMethodHS256, []byte("other-key"), jwt.StandardClaims{
			Subject:   "alice@example.com",
			ExpiresAt: time.Now().Add(time.Minute).Unix(),
		})

		_, err := NewAuthenticator(testKey, db).VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong signature and expired", func(t *testing.T) {
		db := &database.MockRepository{}
		token, err := NewTokenIssuer([]byte("other-key")).Issue("alice@example.com", -time.Hour)
		require.NoError(t, err)

		_, err = NewAuthenticator(testKey, db).VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.NotErrorIs(t, err, ErrTokenExpired)
		db.AssertNotCalled(t, "GetUserByEmail")
	})

	t.Run("unsigned token", func(t *testing.T) {
		db := &database.MockRepository{}
		token := signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.StandardClaims{
			Subject: "alice@example.com",
		})

		_, err := NewAuthenticator(testKey, db).VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := NewAuthenticator(testKey, &database.MockRepository{}).VerifyToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no subject", func(t *testing.T) {
		token := signed(t, jwt.SigningMethodHS256, testKey, jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Minute).Unix(),
		})

		_, err := NewAuthenticator(testKey, &database.MockRepository{}).VerifyToken(token)
		assert.ErrorIs(t, err, ErrNoSubject)
	})

	t.Run("unknown user", func(t *testing.T) {
		db := &database.MockRepository{}
		db.On("GetUserByEmail", "ghost@example.com").Return(database.User{}, sql.ErrNoRows)

		token, err := issuer.Issue("ghost@example.com", time.Minute)
		require.NoError(t, err)

		_, err = NewAuthenticator(testKey, db).VerifyToken(token)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("lookup failure", func(t *testing.T) {
		db := &database.MockRepository{}
		db.On("GetUserByEmail", "alice@example.com").Return(database.User{}, errors.New("connection refused"))

		token, err := issuer.Issue("alice@example.com", time.Minute)
		require.NoError(t, err)

		_, err = NewAuthenticator(testKey, db).VerifyToken(token)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserNotFound)
		assert.NotErrorIs(t, err, ErrInvalidToken)
	})
}
