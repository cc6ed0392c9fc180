package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap/zaptest"

	"github.com/example/gymdesk/internal/cache"
)

type fakeAdmin struct {
	users     map[string]*fbauth.UserRecord
	createErr error
	created   int
	tokens    map[string]*fbauth.Token
	nextUID   string
}

func (a *fakeAdmin) CreateUser(_ context.Context, _ *fbauth.UserToCreate) (*fbauth.UserRecord, error) {
	a.created++
	if a.createErr != nil {
		return nil, a.createErr
	}
	rec := &fbauth.UserRecord{UserInfo: &fbauth.UserInfo{UID: a.nextUID, Email: "new@example.com"}}
	a.users[a.nextUID] = rec
	return rec, nil
}

func (a *fakeAdmin) GetUser(_ context.Context, uid string) (*fbauth.UserRecord, error) {
	rec, ok := a.users[uid]
	if !ok {
		return nil, errors.New("user not found")
	}
	return rec, nil
}

func (a *fakeAdmin) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	tok, ok := a.tokens[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return tok, nil
}

type fakePasswords struct {
	id  *Identity
	err error
}

func (p fakePasswords) VerifyPassword(context.Context, string, string) (*Identity, error) {
	return p.id, p.err
}

type testEnv struct {
	admin    *fakeAdmin
	sessions *cache.MemoryCache
	factory  *FirebaseFactory
}

func newTestEnv(t *testing.T, passwords PasswordVerifier) *testEnv {
	t.Helper()
	admin := &fakeAdmin{users: map[string]*fbauth.UserRecord{}, tokens: map[string]*fbauth.Token{}, nextUID: "uid-new"}
	sessions := cache.NewMemoryCache()
	f := NewFirebaseFactory(admin, passwords, sessions, time.Hour, zaptest.NewLogger(t))
	return &testEnv{admin: admin, sessions: sessions, factory: f}
}

func subscribe(t *testing.T, p Provider) <-chan *Identity {
	t.Helper()
	ch := make(chan *Identity, 8)
	unsubscribe := p.Subscribe(func(id *Identity) { ch <- id })
	t.Cleanup(func() {
		unsubscribe()
		p.Close()
	})
	return ch
}

func next(t *testing.T, ch <-chan *Identity) *Identity {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for notification")
		return nil
	}
}

func TestSubscribeWithoutPersistedSessionNotifiesSignedOut(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	p := env.factory.NewProvider("sess-1")
	ch := subscribe(t, p)

	if id := next(t, ch); id != nil {
		t.Fatalf("expected signed-out notification, got %+v", id)
	}
}

func TestSubscribeRestoresPersistedSession(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	env.admin.users["uid-1"] = &fbauth.UserRecord{UserInfo: &fbauth.UserInfo{UID: "uid-1", Email: "a@example.com", DisplayName: "Ann"}}
	_ = env.sessions.Set(context.Background(), "session:sess-1", "uid-1", 0)

	ch := subscribe(t, env.factory.NewProvider("sess-1"))

	id := next(t, ch)
	if id == nil || id.UID != "uid-1" || id.DisplayName != "Ann" {
		t.Fatalf("expected restored identity, got %+v", id)
	}
}

func TestRestoreDropsDisabledUser(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	env.admin.users["uid-1"] = &fbauth.UserRecord{UserInfo: &fbauth.UserInfo{UID: "uid-1"}, Disabled: true}
	_ = env.sessions.Set(context.Background(), "session:sess-1", "uid-1", 0)

	ch := subscribe(t, env.factory.NewProvider("sess-1"))

	if id := next(t, ch); id != nil {
		t.Fatalf("expected disabled user to be signed out, got %+v", id)
	}
	if uid, _ := env.sessions.Get(context.Background(), "session:sess-1"); uid != "" {
		t.Fatalf("expected persisted session to be removed, got %q", uid)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	p := env.factory.NewProvider("sess-1")
	defer p.Close()
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "not-an-email", "secret1"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := p.CreateAccount(ctx, "a@example.com", "12345"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if env.admin.created != 0 {
		t.Fatalf("expected no CreateUser calls for invalid input, got %d", env.admin.created)
	}
}

func TestCreateAccountEmailInUse(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	env.admin.createErr = errors.New("EMAIL_EXISTS")
	env.factory.emailExists = func(err error) bool { return err == env.admin.createErr }
	p := env.factory.NewProvider("sess-1")
	defer p.Close()

	if _, err := p.CreateAccount(context.Background(), "a@example.com", "secret1"); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	if uid, _ := env.sessions.Get(context.Background(), "session:sess-1"); uid != "" {
		t.Fatalf("expected no persisted session, got %q", uid)
	}
}

func TestCreateAccountSignsIn(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	p := env.factory.NewProvider("sess-1")
	ch := subscribe(t, p)
	if id := next(t, ch); id != nil {
		t.Fatalf("expected initial signed-out notification")
	}

	id, err := p.CreateAccount(context.Background(), "new@example.com", "secret1")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if got := next(t, ch); got == nil || got.UID != id.UID {
		t.Fatalf("expected notification for new account, got %+v", got)
	}
	if uid, _ := env.sessions.Get(context.Background(), "session:sess-1"); uid != "uid-new" {
		t.Fatalf("expected session persisted, got %q", uid)
	}
}

func TestVerifyCredentialsAndEndSession(t *testing.T) {
	env := newTestEnv(t, fakePasswords{id: &Identity{UID: "uid-2", Email: "b@example.com"}})
	p := env.factory.NewProvider("sess-1")
	ch := subscribe(t, p)
	next(t, ch)

	ctx := context.Background()
	if _, err := p.VerifyCredentials(ctx, "b@example.com", "pw-123"); err != nil {
		t.Fatalf("verify credentials: %v", err)
	}
	if got := next(t, ch); got == nil || got.UID != "uid-2" {
		t.Fatalf("expected sign-in notification, got %+v", got)
	}

	if err := p.EndSession(ctx); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if got := next(t, ch); got != nil {
		t.Fatalf("expected sign-out notification, got %+v", got)
	}
	if uid, _ := env.sessions.Get(ctx, "session:sess-1"); uid != "" {
		t.Fatalf("expected persisted session removed, got %q", uid)
	}
}

func TestVerifyCredentialsPropagatesProviderError(t *testing.T) {
	env := newTestEnv(t, fakePasswords{err: ErrInvalidCredentials})
	p := env.factory.NewProvider("sess-1")
	defer p.Close()

	if _, err := p.VerifyCredentials(context.Background(), "b@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := p.VerifyCredentials(context.Background(), "b@", "pw"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected malformed email to be invalid input, got %v", err)
	}
}

func TestSignInWithToken(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	env.admin.tokens["good"] = &fbauth.Token{UID: "uid-3", Claims: map[string]interface{}{"email": "c@example.com", "name": "Cy"}}
	p := env.factory.NewProvider("sess-1")
	defer p.Close()
	ctx := context.Background()

	id, err := p.SignInWithToken(ctx, "good")
	if err != nil {
		t.Fatalf("sign in with token: %v", err)
	}
	if id.Email != "c@example.com" || id.DisplayName != "Cy" {
		t.Fatalf("expected claims copied into identity, got %+v", id)
	}
	if _, err := p.SignInWithToken(ctx, "forged"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for a bad token, got %v", err)
	}
}

func TestRestoreExtendsPersistedSession(t *testing.T) {
	env := newTestEnv(t, fakePasswords{})
	env.admin.users["uid-1"] = &fbauth.UserRecord{UserInfo: &fbauth.UserInfo{UID: "uid-1"}}
	ctx := context.Background()
	_ = env.sessions.Set(ctx, "session:sess-1", "uid-1", 50*time.Millisecond)

	ch := subscribe(t, env.factory.NewProvider("sess-1"))
	if id := next(t, ch); id == nil {
		t.Fatalf("expected restored identity")
	}
	time.Sleep(100 * time.Millisecond)
	if uid, _ := env.sessions.Get(ctx, "session:sess-1"); uid != "uid-1" {
		t.Fatalf("expected restore to extend the persisted session, got %q", uid)
	}
}

func TestRekeyMovesPersistedSession(t *testing.T) {
	env := newTestEnv(t, fakePasswords{id: &Identity{UID: "uid-2", Email: "b@example.com"}})
	env.admin.users["uid-2"] = &fbauth.UserRecord{UserInfo: &fbauth.UserInfo{UID: "uid-2"}}
	ctx := context.Background()
	p := env.factory.NewProvider("planted")
	defer p.Close()

	if _, err := p.VerifyCredentials(ctx, "b@example.com", "secret1"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := p.Rekey(ctx, "fresh"); err != nil {
		t.Fatalf("rekey: %v", err)
	}
	if uid, _ := env.sessions.Get(ctx, "session:planted"); uid != "" {
		t.Fatalf("expected the old id to restore nothing, got %q", uid)
	}
	if uid, _ := env.sessions.Get(ctx, "session:fresh"); uid != "uid-2" {
		t.Fatalf("expected the sign-in under the new id, got %q", uid)
	}

	if err := p.EndSession(ctx); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if uid, _ := env.sessions.Get(ctx, "session:fresh"); uid != "" {
		t.Fatalf("expected sign-out to clear the new id, got %q", uid)
	}

	old := subscribe(t, env.factory.NewProvider("planted"))
	if id := next(t, old); id != nil {
		t.Fatalf("expected the old id to start signed out, got %+v", id)
	}
}
