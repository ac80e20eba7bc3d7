package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/models"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, "swahiba", time.Hour)

	token, err := m.Issue("user-123", "swahiba")
	require.NoError(t, err)

	subject, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestValidateRejects(t *testing.T) {
	m := NewTokenManager(testSecret, "swahiba", time.Hour)
	token, err := m.Issue("user-123", "user")
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := m.Validate("")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", "swahiba", time.Hour)
		_, err := other.Validate(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager(testSecret, "someone-else", time.Hour)
		_, err := other.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		short := NewTokenManager(testSecret, "swahiba", -time.Minute)
		expired, err := short.Issue("user-123", "user")
		require.NoError(t, err)
		_, err = m.Validate(expired)
		assert.Error(t, err)
	})
}

type fakeProfiles struct {
	profiles map[string]models.Profile
	err      error
}

func (f fakeProfiles) GetProfile(_ context.Context, userID string) (models.Profile, error) {
	if f.err != nil {
		return models.Profile{}, f.err
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return models.Profile{}, store.ErrProfileNotFound
	}
	return profile, nil
}

func TestResolve(t *testing.T) {
	m := NewTokenManager(testSecret, "swahiba", time.Hour)
	token, err := m.Issue("user-123", "swahiba")
	require.NoError(t, err)

	t.Run("resolves profile truth over token claims", func(t *testing.T) {
		resolver := NewResolver(m, fakeProfiles{profiles: map[string]models.Profile{
			"user-123": {UserID: "user-123", Role: "user", Banned: true},
		}})
		principal, err := resolver.Resolve(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", principal.UserID)
		assert.Equal(t, "user", principal.Role, "role comes from the profile row, not the token")
		assert.True(t, principal.Banned)
	})

	t.Run("missing credential", func(t *testing.T) {
		resolver := NewResolver(m, fakeProfiles{})
		_, err := resolver.Resolve(context.Background(), "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing profile is unauthenticated", func(t *testing.T) {
		resolver := NewResolver(m, fakeProfiles{profiles: map[string]models.Profile{}})
		_, err := resolver.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("store failure propagates unwrapped", func(t *testing.T) {
		lookupErr := errors.New("connection refused")
		resolver := NewResolver(m, fakeProfiles{err: lookupErr})
		_, err := resolver.Resolve(context.Background(), token)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
		assert.ErrorIs(t, err, lookupErr)
	})
}
