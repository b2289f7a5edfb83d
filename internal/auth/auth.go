// Package auth is the identity-provider boundary. A provider turns the
// credentials carried by a new transport link into a verified identity;
// the signaling layer never sees tokens or cookies past this point.
package auth

import (
	"context"
	"errors"

	"github.com/artemav/huddle/internal/domain"
)

var (
	ErrNoCredentials = errors.New("no credentials supplied")
	ErrInvalidToken  = errors.New("invalid token")
)

// Credentials is what the transport extracted from the incoming request.
type Credentials struct {
	BearerToken string
	GuestToken  string
}

type Identity struct {
	UserID      domain.UserID
	DisplayName string
}

type IdentityProvider interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}
