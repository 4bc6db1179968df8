package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// envelopeClaims is the visible part of a session token. It carries only the
// session id; everything else lives in the server-side record.
type envelopeClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// envelope signs and verifies session tokens with HMAC-SHA256.
type envelope struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time
	clockSkew  time.Duration
}

func (e *envelope) sign(sessionID string) (string, error) {
	now := e.timeFunc()
	claims := envelopeClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(e.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

// open verifies a token and returns the session id it carries.
func (e *envelope) open(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	now := e.timeFunc()
	token, err := jwt.ParseWithClaims(
		tokenString,
		&envelopeClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return e.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(e.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*envelopeClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
