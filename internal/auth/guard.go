package auth

import "slices"

const LoginRoute = "/login"

// Reason explains a guard decision.
type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonNotFound        Reason = "not_found"
)

// Decision is the outcome of guarding a route.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Reason   Reason `json:"reason"`
}

// Guard decides whether session may enter a protected route. An empty
// allow-list admits any signed-in user.
func Guard(session *SessionUser, allowed ...Role) Decision {
	if session == nil {
		return Decision{Redirect: LoginRoute, Reason: ReasonUnauthenticated}
	}
	if len(allowed) > 0 && !slices.Contains(allowed, session.Role) {
		return Decision{Redirect: DefaultRouteFor(session), Reason: ReasonForbidden}
	}
	return Decision{Allowed: true, Reason: ReasonAllowed}
}
