package session

import (
	"context"
	"errors"
	"sync"

	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/models"
)

type fakeProvider struct {
	mu           sync.Mutex
	listener     identity.Listener
	unsubscribed bool
	closed       bool

	createID    *identity.Identity
	createErr   error
	createCalls int
	verifyID    *identity.Identity
	verifyErr   error
	endErr      error
	rekeyErr    error
	rekeyedTo   string
	// rekeyGate, when set, holds Rekey until it is closed.
	rekeyGate chan struct{}
	rekeying  chan struct{}
}

func (p *fakeProvider) Subscribe(fn identity.Listener) func() {
	p.mu.Lock()
	p.listener = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.unsubscribed = true
		p.mu.Unlock()
	}
}

// emit delivers a notification synchronously on the caller's goroutine.
func (p *fakeProvider) emit(id *identity.Identity) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	fn(id)
}

func (p *fakeProvider) CreateAccount(context.Context, string, string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	return p.createID, p.createErr
}

func (p *fakeProvider) VerifyCredentials(context.Context, string, string) (*identity.Identity, error) {
	return p.verifyID, p.verifyErr
}

func (p *fakeProvider) SignInWithToken(context.Context, string) (*identity.Identity, error) {
	return p.verifyID, p.verifyErr
}

func (p *fakeProvider) EndSession(context.Context) error {
	return p.endErr
}

func (p *fakeProvider) Rekey(_ context.Context, sessionID string) error {
	p.mu.Lock()
	gate, entered := p.rekeyGate, p.rekeying
	p.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rekeyErr != nil {
		return p.rekeyErr
	}
	p.rekeyedTo = sessionID
	return nil
}

func (p *fakeProvider) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakeProvider) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed && p.unsubscribed
}

type fakeFactory struct {
	mu        sync.Mutex
	providers map[string]*fakeProvider
}

func (f *fakeFactory) NewProvider(sessionID string) identity.Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providers == nil {
		f.providers = make(map[string]*fakeProvider)
	}
	p := &fakeProvider{}
	f.providers[sessionID] = p
	return p
}

func (f *fakeFactory) provider(sessionID string) *fakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.providers[sessionID]
}

type fakeRoles struct {
	mu       sync.Mutex
	roles    map[string]models.Role
	getErr   error
	block    chan struct{}
	entered  chan string
	putFails int
	putCalls int
	records  map[string]models.UserProfile
}

func (r *fakeRoles) GetRole(ctx context.Context, uid string) (models.Role, error) {
	if r.entered != nil {
		r.entered <- uid
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return models.RoleNone, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return models.RoleNone, r.getErr
	}
	return r.roles[uid], nil
}

func (r *fakeRoles) PutRole(_ context.Context, uid string, record models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putCalls++
	if r.putCalls <= r.putFails {
		return errors.New("deadline exceeded")
	}
	if r.records == nil {
		r.records = make(map[string]models.UserProfile)
	}
	r.records[uid] = record
	if r.roles == nil {
		r.roles = make(map[string]models.Role)
	}
	r.roles[uid] = models.Role(record.Role)
	return nil
}

type fakeProfiles struct {
	err     error
	created []models.NewMember
}

func (p *fakeProfiles) CreateMemberProfile(_ context.Context, m models.NewMember) error {
	if p.err != nil {
		return p.err
	}
	p.created = append(p.created, m)
	return nil
}
