package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig selects how bearer tokens are verified.
// A token equal to APIKey authenticates as APIKeyUser; any other token must be
// an HS256 JWT signed with Secret whose subject is the user identity.
type AuthConfig struct {
	Secret     string
	Issuer     string
	APIKey     string
	APIKeyUser string
}

// Claims is the identity extracted from a verified token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Static    bool
}

var (
	// ErrMissingToken is returned when the Authorization header is absent or malformed.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken wraps parsing and validation failures.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// ParseToken validates an HS256 JWT and returns its claims.
func ParseToken(token string, secret, issuer string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if secret == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{Subject: subject, ExpiresAt: exp.Time}, nil
}

// authenticate resolves a bearer token to claims.
func (c AuthConfig) authenticate(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if c.APIKey != "" && constantTimeEqual(token, c.APIKey) {
		user := c.APIKeyUser
		if user == "" {
			user = "local"
		}
		return &Claims{Subject: user, Static: true}, nil
	}
	return ParseToken(token, c.Secret, c.Issuer)
}
