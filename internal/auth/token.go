package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/workhub/internal/database"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSubject    = errors.New("invalid token: no email")
	ErrUserNotFound = errors.New("user not found")
)

// UserLookup resolves a token subject to a stored user.
type UserLookup interface {
	GetUserByEmail(email string) (database.User, error)
}

type TokenIssuer struct {
	signingKey []byte
}

func NewTokenIssuer(signingKey []byte) *TokenIssuer {
	return &TokenIssuer{signingKey: signingKey}
}

// Issue returns an HS256 token whose subject is the user's email.
func (ti *TokenIssuer) Issue(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   email,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})

	return token.SignedString(ti.signingKey)
}

type Authenticator struct {
	signingKey []byte
	users      UserLookup
}

func NewAuthenticator(signingKey []byte, users UserLookup) *Authenticator {
	return &Authenticator{
		signingKey: signingKey,
		users:      users,
	}
}

// VerifyToken validates tokenString and returns the id of the user it was
// issued for. The returned error is one of the package sentinels unless the
// user lookup itself failed.
func (a *Authenticator) VerifyToken(tokenString string) (int, error) {
	email, err := a.subject(tokenString)
	if err != nil {
		return 0, err
	}

	user, err := a.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("get user by email: %w", err)
	}

	return user.Id, nil
}

func (a *Authenticator) subject(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil {
		// claims are validated before the signature, so an expired forgery
		// carries both bits
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors == jwt.ValidationErrorExpired {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrNoSubject
	}

	return claims.Subject, nil
}
