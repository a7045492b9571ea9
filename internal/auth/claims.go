package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the backend put in a session token.
type TokenInfo struct {
	Claims    jwt.MapClaims
	UserID    int
	Professor bool
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Inspect decodes a JWT bearer token for display. The signature is not verified and
// expiry is not enforced; only the backend decides whether a token is valid.
func Inspect(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("decode token: %w", err)
	}

	info := TokenInfo{Claims: claims}
	if id, ok := claims["user_id"].(float64); ok {
		info.UserID = int(id)
	}
	switch p := claims["is_professor"].(type) {
	case bool:
		info.Professor = p
	case float64:
		info.Professor = p != 0
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
