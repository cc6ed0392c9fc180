package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/cache"
)

// AdminClient is the subset of the Firebase Admin Auth client used here.
// *fbauth.Client satisfies it.
type AdminClient interface {
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
	GetUser(ctx context.Context, uid string) (*fbauth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// PasswordVerifier checks an email/password pair against the auth service.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, email, password string) (*Identity, error)
}

// FirebaseFactory creates per-session providers backed by Firebase Auth.
// The signed-in UID of each session is persisted in sessions so that a
// returning browser is restored on its first notification.
type FirebaseFactory struct {
	admin     AdminClient
	passwords PasswordVerifier
	sessions  cache.Cache
	ttl       time.Duration
	logger    *zap.Logger

	// emailExists reports whether an Admin SDK error means the address is
	// already registered.
	emailExists func(error) bool
}

// NewFirebaseFactory creates a FirebaseFactory. ttl bounds how long a
// persisted session survives without the browser coming back; every restore
// extends it.
func NewFirebaseFactory(admin AdminClient, passwords PasswordVerifier, sessions cache.Cache, ttl time.Duration, logger *zap.Logger) *FirebaseFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseFactory{
		admin:       admin,
		passwords:   passwords,
		sessions:    sessions,
		ttl:         ttl,
		logger:      logger,
		emailExists: fbauth.IsEmailAlreadyExists,
	}
}

// NewProvider returns a Provider for the browser session sessionID.
func (f *FirebaseFactory) NewProvider(sessionID string) Provider {
	return &firebaseProvider{
		f:      f,
		key:    sessionKey(sessionID),
		n:      newNotifier(),
		logger: f.logger.With(zap.String("session", shortID(sessionID))),
	}
}

type firebaseProvider struct {
	f      *FirebaseFactory
	key    string
	n      *notifier
	logger *zap.Logger

	mu       sync.Mutex
	current  *Identity
	restored bool
}

func sessionKey(sessionID string) string { return "session:" + sessionID }

func (p *firebaseProvider) cacheKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

func (p *firebaseProvider) Subscribe(fn Listener) func() {
	unsubscribe := p.n.subscribe(fn)
	p.n.enqueue(p.currentState)
	return unsubscribe
}

// currentState runs on the dispatch goroutine. The first call restores the
// session from the cache; later calls report the in-memory state.
func (p *firebaseProvider) currentState(ctx context.Context) *Identity {
	p.mu.Lock()
	if p.restored {
		id := p.current
		p.mu.Unlock()
		return id
	}
	p.mu.Unlock()

	id := p.restore(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.restored {
		// A sign-in or sign-out won the race; it is already queued.
		return p.current
	}
	p.current, p.restored = id, true
	return id
}

func (p *firebaseProvider) restore(ctx context.Context) *Identity {
	key := p.cacheKey()
	uid, err := p.f.sessions.Get(ctx, key)
	if err != nil {
		p.logger.Warn("could not read persisted session", zap.Error(err))
		return nil
	}
	if uid == "" {
		return nil
	}
	rec, err := p.f.admin.GetUser(ctx, uid)
	if err != nil {
		p.logger.Info("persisted session no longer valid", zap.String("uid", uid), zap.Error(err))
		_ = p.f.sessions.Delete(ctx, key)
		return nil
	}
	if rec.Disabled {
		p.logger.Info("persisted session belongs to a disabled user", zap.String("uid", uid))
		_ = p.f.sessions.Delete(ctx, key)
		return nil
	}
	if err := p.f.sessions.Set(ctx, key, uid, p.f.ttl); err != nil {
		p.logger.Warn("could not extend persisted session", zap.Error(err))
	}
	return identityFromRecord(rec)
}

func (p *firebaseProvider) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	rec, err := p.f.admin.CreateUser(ctx, (&fbauth.UserToCreate{}).Email(email).Password(password))
	if err != nil {
		if p.f.emailExists(err) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrUnknown, err)
	}

	id := identityFromRecord(rec)
	if err := p.establish(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

func (p *firebaseProvider) VerifyCredentials(ctx context.Context, email, password string) (*Identity, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}
	id, err := p.f.passwords.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.establish(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

func (p *firebaseProvider) SignInWithToken(ctx context.Context, idToken string) (*Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidInput
	}
	token, err := p.f.admin.VerifyIDToken(ctx, idToken)
	if err != nil {
		p.logger.Info("ID token rejected", zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	if err := p.establish(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

func (p *firebaseProvider) EndSession(ctx context.Context) error {
	if err := p.f.sessions.Delete(ctx, p.cacheKey()); err != nil {
		return fmt.Errorf("%w: end session: %v", ErrUnknown, err)
	}
	p.mu.Lock()
	p.current, p.restored = nil, true
	p.mu.Unlock()
	p.n.publish(nil)
	return nil
}

func (p *firebaseProvider) Rekey(ctx context.Context, sessionID string) error {
	newKey := sessionKey(sessionID)
	p.mu.Lock()
	oldKey, current := p.key, p.current
	p.mu.Unlock()

	if current != nil {
		if err := p.f.sessions.Set(ctx, newKey, current.UID, p.f.ttl); err != nil {
			return fmt.Errorf("%w: persist session: %v", ErrUnknown, err)
		}
	}
	if err := p.f.sessions.Delete(ctx, oldKey); err != nil {
		_ = p.f.sessions.Delete(ctx, newKey)
		return fmt.Errorf("%w: drop old session: %v", ErrUnknown, err)
	}

	p.mu.Lock()
	p.key = newKey
	p.mu.Unlock()
	return nil
}

func (p *firebaseProvider) Close() {
	p.n.close()
}

// establish persists id for this session and notifies listeners.
func (p *firebaseProvider) establish(ctx context.Context, id *Identity) error {
	if err := p.f.sessions.Set(ctx, p.cacheKey(), id.UID, p.f.ttl); err != nil {
		return fmt.Errorf("%w: persist session: %v", ErrUnknown, err)
	}
	p.mu.Lock()
	p.current, p.restored = id, true
	p.mu.Unlock()
	p.n.publish(id)
	return nil
}

func identityFromRecord(rec *fbauth.UserRecord) *Identity {
	if rec == nil || rec.UserInfo == nil {
		return nil
	}
	return &Identity{UID: rec.UID, Email: rec.Email, DisplayName: rec.DisplayName}
}

var validate = validator.New()

// ValidateEmail rejects a blank address with ErrInvalidInput and a malformed
// one with ErrInvalidEmail.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}
	if err := validate.Var(email, "email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
