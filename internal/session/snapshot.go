package session

import (
	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/models"
)

// Phase is the resolution state of a session.
type Phase int

const (
	// PhaseUninitialized is the state before Initialize subscribes to the
	// auth service.
	PhaseUninitialized Phase = iota
	// PhaseLoading means a notification arrived and its role has not been
	// resolved yet.
	PhaseLoading
	// PhaseReady means identity and role are settled.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Snapshot is an immutable copy of a session's state.
type Snapshot struct {
	Identity   *identity.Identity `json:"identity,omitempty"`
	Role       models.Role        `json:"role,omitempty"`
	Phase      Phase              `json:"-"`
	Generation uint64             `json:"-"`
}

// Anonymous is the settled state of a client that never started a session.
func Anonymous() Snapshot {
	return Snapshot{Phase: PhaseReady}
}

// IsLoading reports whether the role may still change. Role is only
// trustworthy when this is false.
func (s Snapshot) IsLoading() bool {
	return s.Phase != PhaseReady
}

// Authenticated reports whether a principal is signed in.
func (s Snapshot) Authenticated() bool {
	return s.Identity != nil
}

// SignedIn returns an Await condition satisfied once the session has
// settled on the principal uid.
func SignedIn(uid string) func(Snapshot) bool {
	return func(s Snapshot) bool {
		return !s.IsLoading() && s.Identity != nil && s.Identity.UID == uid
	}
}

// SignedOut is an Await condition satisfied once the session has settled
// with no principal.
func SignedOut(s Snapshot) bool {
	return !s.IsLoading() && s.Identity == nil
}
