package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeFailClosed(t *testing.T) {
	swahiba := Principal{UserID: "u1", Role: "swahiba"}

	tests := []struct {
		name       string
		principal  Principal
		resolveErr error
		required   []string
		wantAllow  bool
		wantReason DenyReason
	}{
		{
			name:       "unauthenticated",
			resolveErr: ErrUnauthenticated,
			required:   []string{"swahiba"},
			wantReason: DenyNotAuthenticated,
		},
		{
			name:       "wrapped unauthenticated",
			resolveErr: fmt.Errorf("%w: token expired", ErrUnauthenticated),
			required:   []string{"swahiba"},
			wantReason: DenyNotAuthenticated,
		},
		{
			name:       "profile lookup failure denies",
			resolveErr: errors.New("connection refused"),
			required:   []string{"swahiba"},
			wantReason: DenyProfileLookupFailed,
		},
		{
			name:       "zero principal without error still denied",
			required:   []string{"swahiba"},
			wantReason: DenyNotAuthenticated,
		},
		{
			name:       "banned",
			principal:  Principal{UserID: "u1", Role: "swahiba", Banned: true},
			required:   []string{"swahiba"},
			wantReason: DenyBanned,
		},
		{
			name:       "wrong role",
			principal:  Principal{UserID: "u1", Role: "user"},
			required:   []string{"swahiba"},
			wantReason: DenyRoleNotPermitted,
		},
		{
			name:       "role match is exact",
			principal:  Principal{UserID: "u1", Role: "Swahiba"},
			required:   []string{"swahiba"},
			wantReason: DenyRoleNotPermitted,
		},
		{
			name:      "allowed",
			principal: swahiba,
			required:  []string{"swahiba"},
			wantAllow: true,
		},
		{
			name:      "allowed among several roles",
			principal: swahiba,
			required:  []string{"admin", "swahiba"},
			wantAllow: true,
		},
		{
			name:      "empty allow-list only requires authentication",
			principal: Principal{UserID: "u2", Role: "user"},
			wantAllow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Authorize(tt.principal, tt.resolveErr, tt.required, true)
			assert.Equal(t, tt.wantAllow, decision.Allowed)
			assert.Equal(t, tt.wantReason, decision.Reason)
		})
	}
}

func TestAuthorizeBanOverride(t *testing.T) {
	banned := Principal{UserID: "u1", Role: "admin", Banned: true}

	decision := Authorize(banned, nil, []string{"admin"}, false)
	assert.True(t, decision.Allowed, "denyIfBanned=false must ignore the ban flag")

	decision = Authorize(banned, nil, []string{"admin"}, true)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyBanned, decision.Reason)
}
