// Package session holds the per-client authentication and authorization
// state: who is signed in, which role they hold, and whether that role has
// been resolved yet.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/models"
)

var (
	ErrAlreadyInitialized = errors.New("session already initialized")
	ErrClosed             = errors.New("session closed")
	ErrUnknownSession     = errors.New("unknown session")
	ErrRotating           = errors.New("session is moving to a new id")
	// ErrRoleRecord means the auth account was created but its role record
	// could not be written. The account is left in place.
	ErrRoleRecord = errors.New("account created but role record could not be saved")
	// ErrProfileCreation means the auth account and role record exist but
	// the member profile could not be created.
	ErrProfileCreation = errors.New("account created but member profile could not be saved")
)

// RoleStore reads and writes role-resolution records keyed by uid.
type RoleStore interface {
	// GetRole returns models.RoleNone and a nil error when no record exists.
	GetRole(ctx context.Context, uid string) (models.Role, error)
	PutRole(ctx context.Context, uid string, record models.UserProfile) error
}

// ProfileCreator creates the member profile that accompanies a new account.
type ProfileCreator interface {
	CreateMemberProfile(ctx context.Context, m models.NewMember) error
}

// Options tunes a Manager. Zero values select the defaults.
type Options struct {
	RoleWriteAttempts int
	RoleWriteBackoff  time.Duration
	RoleReadTimeout   time.Duration
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RoleWriteAttempts <= 0 {
		o.RoleWriteAttempts = 3
	}
	if o.RoleWriteBackoff < 0 {
		o.RoleWriteBackoff = 0
	}
	if o.RoleReadTimeout <= 0 {
		o.RoleReadTimeout = 10 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// SignupRequest describes a new account. Role defaults to member. When
// Profile is set a member profile is created for the new uid.
type SignupRequest struct {
	Email    string
	Password string
	Role     models.Role
	Profile  *models.NewMember
}

// Manager is the session state machine for one client. Its state changes
// only in response to auth-service notifications; Login, Signup and Logout
// ask the service for a change and return before it is applied.
type Manager struct {
	provider identity.Provider
	roles    RoleStore
	profiles ProfileCreator
	logger   *zap.Logger
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	identity    *identity.Identity
	role        models.Role
	phase       Phase
	gen         uint64
	closed      bool
	unsubscribe func()
	changed     chan struct{}
}

// NewManager creates an uninitialized Manager. profiles may be nil when
// signups never carry a member profile.
func NewManager(provider identity.Provider, roles RoleStore, profiles ProfileCreator, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		provider: provider,
		roles:    roles,
		profiles: profiles,
		logger:   logger,
		opts:     opts.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
		changed:  make(chan struct{}),
	}
}

// Initialize subscribes to auth-state notifications. The session stays
// loading until the first notification has been resolved.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.phase != PhaseUninitialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.phase = PhaseLoading
	m.broadcastLocked()
	m.mu.Unlock()

	unsubscribe := m.provider.Subscribe(m.handle)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		unsubscribe()
		return ErrClosed
	}
	m.unsubscribe = unsubscribe
	return nil
}

// Close releases the subscription and the provider. Notifications that are
// still in flight are discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.gen++
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.broadcastLocked()
	m.mu.Unlock()

	m.cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
	m.provider.Close()
}

// handle applies one auth-state notification.
func (m *Manager) handle(id *identity.Identity) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.identity = id
	m.role = models.RoleNone
	if id == nil {
		m.phase = PhaseReady
		m.broadcastLocked()
		m.mu.Unlock()
		return
	}
	m.phase = PhaseLoading
	m.broadcastLocked()
	m.mu.Unlock()

	m.applyRole(id.UID, gen)
}

// refreshRole resolves the role again when uid is the identity already
// applied. A notification that raced the role record write may have read
// no record.
func (m *Manager) refreshRole(uid string) {
	m.mu.Lock()
	if m.closed || m.identity == nil || m.identity.UID != uid {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.role = models.RoleNone
	m.phase = PhaseLoading
	m.broadcastLocked()
	m.mu.Unlock()

	m.applyRole(uid, gen)
}

func (m *Manager) applyRole(uid string, gen uint64) {
	role := m.resolveRole(uid)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.gen != gen {
		m.logger.Debug("discarding stale role resolution", zap.String("uid", uid), zap.Uint64("generation", gen))
		return
	}
	m.role = role
	m.phase = PhaseReady
	m.broadcastLocked()
}

func (m *Manager) resolveRole(uid string) models.Role {
	ctx, cancel := context.WithTimeout(m.ctx, m.opts.RoleReadTimeout)
	defer cancel()

	role, err := m.roles.GetRole(ctx, uid)
	if err != nil {
		m.logger.Warn("role lookup failed, continuing without a role", zap.String("uid", uid), zap.Error(err))
		return models.RoleNone
	}
	return role
}

// broadcastLocked wakes every Await caller. m.mu must be held.
func (m *Manager) broadcastLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// Login asks the auth service to verify the credentials. The session
// reflects the new principal once the resulting notification is resolved.
func (m *Manager) Login(ctx context.Context, email, password string) (*identity.Identity, error) {
	id, err := m.provider.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, normalize(err)
	}
	return id, nil
}

// LoginWithIDToken adopts an ID token minted by a browser-side Firebase SDK.
func (m *Manager) LoginWithIDToken(ctx context.Context, idToken string) (*identity.Identity, error) {
	id, err := m.provider.SignInWithToken(ctx, idToken)
	if err != nil {
		return nil, normalize(err)
	}
	return id, nil
}

// Signup creates the auth account, writes its role record and, when
// requested, its member profile. Failures after the account exists are
// reported as ErrRoleRecord or ErrProfileCreation and the account is kept.
func (m *Manager) Signup(ctx context.Context, req SignupRequest) (*identity.Identity, error) {
	role := req.Role
	if role == models.RoleNone {
		role = models.RoleMember
	}
	if _, ok := models.ParseRole(string(role)); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", identity.ErrInvalidInput, role)
	}

	id, err := m.provider.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, normalize(err)
	}

	record := models.UserProfile{
		Email:     req.Email,
		Role:      string(role),
		CreatedAt: m.opts.Now().UTC().Format(time.RFC3339),
	}
	if err := m.putRoleWithRetry(ctx, id.UID, record); err != nil {
		m.logger.Error("role record not written, account left without a role",
			zap.String("uid", id.UID), zap.Error(err))
		return id, fmt.Errorf("%w: %v", ErrRoleRecord, err)
	}
	m.refreshRole(id.UID)

	if req.Profile != nil && m.profiles != nil {
		profile := *req.Profile
		profile.UID = id.UID
		profile.Email = req.Email
		if err := m.profiles.CreateMemberProfile(ctx, profile); err != nil {
			m.logger.Error("member profile not created", zap.String("uid", id.UID), zap.Error(err))
			return id, fmt.Errorf("%w: %v", ErrProfileCreation, err)
		}
	}
	return id, nil
}

func (m *Manager) putRoleWithRetry(ctx context.Context, uid string, record models.UserProfile) error {
	var err error
	backoff := m.opts.RoleWriteBackoff
	for attempt := 1; attempt <= m.opts.RoleWriteAttempts; attempt++ {
		if err = m.roles.PutRole(ctx, uid, record); err == nil {
			return nil
		}
		m.logger.Warn("role record write failed",
			zap.String("uid", uid), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == m.opts.RoleWriteAttempts {
			break
		}
		if backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return err
}

// Logout asks the auth service to end the session.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.provider.EndSession(ctx); err != nil {
		if errors.Is(err, identity.ErrUnknown) {
			return err
		}
		return fmt.Errorf("%w: %v", identity.ErrUnknown, err)
	}
	return nil
}

// rekey moves the persisted sign-in to sessionID.
func (m *Manager) rekey(ctx context.Context, sessionID string) error {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if err := m.provider.Rekey(ctx, sessionID); err != nil {
		return normalize(err)
	}
	return nil
}

func (m *Manager) CurrentIdentity() *identity.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

func (m *Manager) CurrentRole() models.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase != PhaseReady
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{Identity: m.identity, Role: m.role, Phase: m.phase, Generation: m.gen}
}

// Await blocks until cond holds for the current snapshot, ctx is done or
// the manager is closed. It returns the last snapshot seen.
func (m *Manager) Await(ctx context.Context, cond func(Snapshot) bool) (Snapshot, error) {
	for {
		m.mu.RLock()
		snap := m.snapshotLocked()
		changed := m.changed
		closed := m.closed
		m.mu.RUnlock()

		if cond(snap) {
			return snap, nil
		}
		if closed {
			return snap, ErrClosed
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// normalize keeps auth errors inside the closed identity error set.
func normalize(err error) error {
	switch identity.KindOf(err) {
	case identity.KindUnknown:
		if errors.Is(err, identity.ErrUnknown) {
			return err
		}
		return fmt.Errorf("%w: %v", identity.ErrUnknown, err)
	default:
		return err
	}
}
