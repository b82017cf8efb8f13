// Package identity binds a client-generated user id to a signed token so
// host-only actions cannot be spoofed by guessing another player's id.
// There are no accounts or passwords; the token is minted the first time a
// user id shows up (room create or join).
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid-token")

const tokenLifetime = 30 * 24 * time.Hour

// Fields must be exported for JSON serialization.
type userClaims struct {
	UserId string `json:"uid"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey []byte
}

func NewTokenManager(secretKey []byte) *TokenManager {
	return &TokenManager{secretKey: secretKey}
}

func (m *TokenManager) Generate(userId string) (string, error) {
	claims := userClaims{
		UserId: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify returns the user id the token was minted for.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &userClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(*userClaims); ok && token.Valid {
		return claims.UserId, nil
	}

	return "", ErrInvalidToken
}
