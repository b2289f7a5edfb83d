package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artemav/huddle/internal/domain"
)

// Claims carried by a huddle bearer token.
type Claims struct {
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// JWTProvider validates HMAC-signed bearer tokens. When the request has no
// bearer token and guests are allowed, the transport's guest token becomes
// the user id with a generated display name.
type JWTProvider struct {
	secret      []byte
	allowGuests bool
}

func NewJWTProvider(secret string, allowGuests bool) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), allowGuests: allowGuests}
}

func (p *JWTProvider) Authenticate(_ context.Context, creds Credentials) (Identity, error) {
	if creds.BearerToken != "" {
		return p.fromToken(creds.BearerToken)
	}
	if p.allowGuests && creds.GuestToken != "" {
		return guestIdentity(creds.GuestToken), nil
	}
	return Identity{}, ErrNoCredentials
}

func (p *JWTProvider) fromToken(raw string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	name := claims.DisplayName
	if name == "" {
		name = claims.Subject
	}
	return Identity{UserID: domain.UserID(claims.Subject), DisplayName: name}, nil
}

func guestIdentity(token string) Identity {
	short := token
	if len(short) > 8 {
		short = short[:8]
	}
	return Identity{
		UserID:      domain.UserID(token),
		DisplayName: "guest-" + short,
	}
}
