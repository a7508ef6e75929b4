package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token fails verification for any
// reason (bad signature, expired, malformed).
var ErrInvalidToken = errors.New("invalid token")

// UserClaims is the principal snapshot embedded inside a token. It is a
// copy of the user record as of issuance time; the password hash is never
// part of it.
type UserClaims struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Admin    bool   `json:"admin"`
}

// Claims is the full JWT payload: the user snapshot plus the registered
// claims (sub is the username, exp/iat are set at signing time).
type Claims struct {
	User UserClaims `json:"user"`
	jwt.RegisteredClaims
}

// GenerateToken signs a new HS256 token embedding the given user snapshot.
func GenerateToken(secret string, user UserClaims, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}

// ParseToken verifies a raw token string and returns its claims. The
// claims are trusted as of issuance time; there is no revocation list, so
// the store is not consulted here.
func ParseToken(secret, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
