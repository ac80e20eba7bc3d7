package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/models"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/store"
)

// ErrUnauthenticated marks a credential that did not resolve to a profile:
// missing token, bad signature, or no matching profile row. Store failures
// during the profile read are NOT wrapped in it; they propagate so access
// decisions can fail closed on lookup errors instead of treating them as
// anonymous traffic.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is a resolved identity.
type Principal struct {
	UserID string
	Role   string
	Banned bool
}

// ProfileStore is the slice of the store the resolver needs.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

type Resolver struct {
	tokens   *TokenManager
	profiles ProfileStore
}

func NewResolver(tokens *TokenManager, profiles ProfileStore) *Resolver {
	return &Resolver{tokens: tokens, profiles: profiles}
}

// Resolve turns a bearer token into a Principal.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (Principal, error) {
	if bearer == "" {
		return Principal{}, ErrUnauthenticated
	}
	userID, err := r.tokens.Validate(bearer)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return Principal{}, fmt.Errorf("%w: no profile for %s", ErrUnauthenticated, userID)
		}
		return Principal{}, err
	}
	return Principal{UserID: profile.UserID, Role: profile.Role, Banned: profile.Banned}, nil
}

// PrincipalOf converts a profile row into a Principal.
func PrincipalOf(profile models.Profile) Principal {
	return Principal{UserID: profile.UserID, Role: profile.Role, Banned: profile.Banned}
}
