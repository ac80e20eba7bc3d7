package auth

import "errors"

// DenyReason enumerates why a gate check refused a request.
type DenyReason string

const (
	DenyNotAuthenticated    DenyReason = "not_authenticated"
	DenyBanned              DenyReason = "banned"
	DenyRoleNotPermitted    DenyReason = "role_not_permitted"
	DenyProfileLookupFailed DenyReason = "profile_lookup_failed"
)

// Decision is the gate's verdict. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Authorize is the single allow/deny function for every gated surface.
// resolveErr is whatever Resolve returned; a lookup failure denies rather
// than falling through to an anonymous allow. requiredRoles is an exact
// allow-list.
func Authorize(p Principal, resolveErr error, requiredRoles []string, denyIfBanned bool) Decision {
	if resolveErr != nil {
		if errors.Is(resolveErr, ErrUnauthenticated) {
			return Decision{Reason: DenyNotAuthenticated}
		}
		return Decision{Reason: DenyProfileLookupFailed}
	}
	if p.UserID == "" {
		return Decision{Reason: DenyNotAuthenticated}
	}
	if denyIfBanned && p.Banned {
		return Decision{Reason: DenyBanned}
	}
	if len(requiredRoles) > 0 && !containsRole(requiredRoles, p.Role) {
		return Decision{Reason: DenyRoleNotPermitted}
	}
	return Decision{Allowed: true}
}

func containsRole(roles []string, role string) bool {
	for _, item := range roles {
		if item == role {
			return true
		}
	}
	return false
}
