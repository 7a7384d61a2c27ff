// Package auth mints and verifies the signed tokens that carry session ids
// in the session cookie. The session table stays the authority; the
// signature only keeps ids from being forged or tampered with in transit.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkravets/irisvault/internal/common"
)

// Claims embeds the registered claims plus the session identifier.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string
}

// GenerateToken signs the session id with HS256.
func GenerateToken(sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		SessionID: sessionID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSessionIDFromToken verifies the signature and expiry and returns the
// embedded session id. Any failure is reported as ErrUnauthenticated; the
// caller cannot distinguish a forged token from an expired one, and should
// not.
func GetSessionIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", common.ErrUnauthenticated
	}

	return claims.SessionID, nil
}
