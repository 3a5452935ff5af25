package session

import (
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	tokenIssuer = "minishop-session"
	keyInfo     = "minishop session cookie v1"
	keyLen      = 32
)

var ErrInvalidToken = errors.New("invalid session token")

// TokenMaker turns a session id into the signed value kept in the cookie.
type TokenMaker struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewTokenMaker derives the HS256 key from secret so the raw secret can be
// shared with other purposes without reusing key material.
func NewTokenMaker(secret string) (*TokenMaker, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, err
	}

	return &TokenMaker{key: key, issuer: tokenIssuer, now: time.Now}, nil
}

func (t *TokenMaker) New(sessionID string, ttl time.Duration) (string, error) {
	now := t.now()

	claims := jwt.RegisteredClaims{
		Subject:  sessionID,
		Issuer:   t.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Parse returns the session id carried by tok.
func (t *TokenMaker) Parse(tok string) (string, error) {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tok, &c, func(token *jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || token == nil || !token.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
