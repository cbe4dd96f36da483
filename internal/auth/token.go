package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer       = "worksheet"
	defaultSessionTTL = 30 * 24 * time.Hour
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid session token")

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HMAC-signed session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer. A zero ttl uses 30 days.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the session lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a session token for u.
func (t *Tokens) Issue(u User) (string, error) {
	if u.UID == "" {
		return "", fmt.Errorf("uid is required")
	}
	now := t.now()
	claims := sessionClaims{
		Email: u.Email,
		Name:  u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token and returns its user.
func (t *Tokens) Parse(token string) (User, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return User{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return User{UID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, nil
}
