// Package guard decides whether a protected view may be shown for a session
// snapshot. Decisions are pure; adapters turn them into HTTP responses.
package guard

import (
	"github.com/example/gymdesk/internal/models"
	"github.com/example/gymdesk/internal/session"
)

const (
	LoginPath   = "/login"
	LandingPath = "/"
)

// Outcome is what the caller should do with the guarded view.
type Outcome int

const (
	// Render shows the guarded content.
	Render Outcome = iota
	// Wait shows a placeholder until the session finishes loading.
	Wait
	// Redirect replaces the current location with Decision.Location.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Wait:
		return "wait"
	default:
		return "redirect"
	}
}

// Reason explains a redirect.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonForbidden
)

type Decision struct {
	Outcome  Outcome
	Location string
	Reason   Reason
}

// Policy evaluates a session snapshot.
type Policy interface {
	Evaluate(s session.Snapshot) Decision
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(s session.Snapshot) Decision

func (f PolicyFunc) Evaluate(s session.Snapshot) Decision { return f(s) }

// Authenticated admits any signed-in session. It never redirects while the
// session is loading.
func Authenticated() Policy {
	return PolicyFunc(func(s session.Snapshot) Decision {
		if s.IsLoading() {
			return Decision{Outcome: Wait}
		}
		if !s.Authenticated() {
			return Decision{Outcome: Redirect, Location: LoginPath, Reason: ReasonUnauthenticated}
		}
		return Decision{Outcome: Render}
	})
}

// RequireRole admits signed-in sessions whose role is exactly role.
func RequireRole(role models.Role) Policy {
	base := Authenticated()
	return PolicyFunc(func(s session.Snapshot) Decision {
		if d := base.Evaluate(s); d.Outcome != Render {
			return d
		}
		if s.Role != role {
			return Decision{Outcome: Redirect, Location: LandingPath, Reason: ReasonForbidden}
		}
		return Decision{Outcome: Render}
	})
}

func MemberOnly() Policy { return RequireRole(models.RoleMember) }

func AdminOnly() Policy { return RequireRole(models.RoleAdmin) }

// Public admits every session, loading or not.
func Public() Policy {
	return PolicyFunc(func(session.Snapshot) Decision { return Decision{Outcome: Render} })
}
