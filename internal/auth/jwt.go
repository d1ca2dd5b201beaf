package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
	ErrMissingExpiry  = errors.New("token has no expiry")
)

var allowedMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// Gate verifies HMAC-signed bearer tokens against one shared secret.
type Gate struct {
	secret []byte
	parser *jwt.Parser
}

// NewGate copies the secret so later mutation of the caller's slice has no
// effect.
func NewGate(secret []byte) *Gate {
	return &Gate{
		secret: append([]byte(nil), secret...),
		parser: jwt.NewParser(jwt.WithValidMethods(allowedMethods)),
	}
}

// Authenticate returns the principal named by a valid token. Every failure
// wraps ErrInvalidToken (or is ErrMissingToken) so callers cannot leak the
// reason.
func (g *Gate) Authenticate(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := g.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	// v4 treats a missing exp as valid; the relay does not.
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrMissingExpiry)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrMissingSubject)
	}

	return &Principal{ID: claims.Subject}, nil
}
