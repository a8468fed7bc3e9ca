package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthenticated is returned for missing, malformed or rejected
// credentials. Handlers map it to 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the resolved caller: who holds the bearer credential.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// Claims is the JWT payload for issued bearer tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Resolver turns an opaque bearer credential into an Identity.
type Resolver interface {
	Resolve(token string) (*Identity, error)
}

// TokenResolver resolves HS256-signed bearer tokens. It also issues them at
// login time. Resolution is purely local: an empty token fails immediately
// without any backend round-trip.
type TokenResolver struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewTokenResolver creates a token resolver with the given signing secret.
func NewTokenResolver(secret string, tokenTTL time.Duration) *TokenResolver {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &TokenResolver{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Resolve validates a bearer token and returns the identity it names.
func (r *TokenResolver) Resolve(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	return &Identity{ID: id, Email: claims.Email}, nil
}

// IssueToken signs a new bearer token for the given identity.
func (r *TokenResolver) IssueToken(id uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.secret)
}
