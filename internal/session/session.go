// internal/session/session.go
// Session boundary: resolves the authenticated identity that gates the
// engine lifecycle. The backend issues the token; we only verify and read it.

package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrMissingUser  = errors.New("token carries no user id")
)

// Session is the authenticated identity for one engine lifetime.
type Session struct {
	UserID   string
	Username string
}

// Claims mirrors the token payload the backend signs.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// FromToken validates a signed session token and extracts the session identity.
func FromToken(tokenString, secret string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
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

	userID := claims.UserID
	if userID == "" {
		// Some token versions carry the id in the subject claim instead.
		userID = claims.Subject
	}
	if userID == "" {
		return nil, ErrMissingUser
	}

	return &Session{
		UserID:   userID,
		Username: claims.Username,
	}, nil
}
