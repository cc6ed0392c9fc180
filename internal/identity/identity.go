// Package identity adapts the remote authentication service (Firebase Auth)
// to the small contract the session state machine depends on: a change
// subscription plus account creation, credential verification and sign-out.
package identity

import "context"

// Identity is the authenticated principal reported by the auth service.
// Values are immutable snapshots; a new one is delivered on every change.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Listener receives auth-state changes. A nil identity means signed out.
type Listener func(id *Identity)

// Provider is one client's view of the auth service. Notifications are
// delivered one at a time, in order, on a goroutine owned by the provider.
type Provider interface {
	// Subscribe registers fn and schedules a notification carrying the
	// current (possibly restored) auth state. The returned func removes fn.
	Subscribe(fn Listener) (unsubscribe func())
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	VerifyCredentials(ctx context.Context, email, password string) (*Identity, error)
	// SignInWithToken adopts an ID token minted by a browser-side SDK.
	SignInWithToken(ctx context.Context, idToken string) (*Identity, error)
	EndSession(ctx context.Context) error
	// Rekey moves the persisted sign-in, if any, to sessionID. The old id
	// restores nothing afterwards.
	Rekey(ctx context.Context, sessionID string) error
	// Close stops notification delivery. It does not end the session.
	Close()
}

// Factory creates a Provider bound to one client session.
type Factory interface {
	NewProvider(sessionID string) Provider
}
