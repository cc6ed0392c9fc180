// Package identitytest provides an in-memory auth service for tests.
// Notifications are delivered synchronously on the caller's goroutine.
package identitytest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/example/gymdesk/internal/identity"
)

type account struct {
	identity.Identity
	password string
}

// Service is a fake auth service shared by every Provider it creates.
// EndErr, RekeyErr and UnknownErr, when set, fail EndSession, Rekey and
// every account call.
type Service struct {
	mu        sync.Mutex
	accounts  map[string]*account // by email
	sessions  map[string]string   // session id -> uid
	providers map[string]*Provider
	nextUID   int

	EndErr     error
	UnknownErr error
	RekeyErr   error
	Created    int
}

func NewService() *Service {
	return &Service{
		accounts:  map[string]*account{},
		sessions:  map[string]string{},
		providers: map[string]*Provider{},
	}
}

// AddAccount registers an account and returns its uid.
func (s *Service) AddAccount(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(email, password).UID
}

func (s *Service) addLocked(email, password string) *account {
	s.nextUID++
	a := &account{Identity: identity.Identity{UID: fmt.Sprintf("uid-%d", s.nextUID), Email: email}, password: password}
	s.accounts[strings.ToLower(email)] = a
	return a
}

// Persist marks uid as signed in for sessionID, as if restored from an
// earlier visit.
func (s *Service) Persist(sessionID, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = uid
}

// Token returns an ID token accepted by SignInWithToken for uid.
func (s *Service) Token(uid string) string { return "token-" + uid }

func (s *Service) NewProvider(sessionID string) identity.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Provider{svc: s, sessionID: sessionID}
	s.providers[sessionID] = p
	return p
}

func (s *Service) lookupUID(uid string) *identity.Identity {
	for _, a := range s.accounts {
		if a.UID == uid {
			id := a.Identity
			return &id
		}
	}
	return nil
}

func (s *Service) current(sessionID string) *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return s.lookupUID(uid)
}

// Provider is one client's view of a Service.
type Provider struct {
	svc *Service

	mu        sync.Mutex
	sessionID string
	listener  identity.Listener
}

func (p *Provider) id() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

func (p *Provider) Subscribe(fn identity.Listener) func() {
	p.mu.Lock()
	p.listener = fn
	p.mu.Unlock()
	p.emit(p.svc.current(p.id()))
	return func() {
		p.mu.Lock()
		p.listener = nil
		p.mu.Unlock()
	}
}

func (p *Provider) emit(id *identity.Identity) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

func (p *Provider) signIn(id *identity.Identity) {
	sid := p.id()
	p.svc.mu.Lock()
	p.svc.sessions[sid] = id.UID
	p.svc.mu.Unlock()
	p.emit(id)
}

func (p *Provider) CreateAccount(_ context.Context, email, password string) (*identity.Identity, error) {
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < identity.MinPasswordLength {
		return nil, identity.ErrWeakPassword
	}
	s := p.svc
	s.mu.Lock()
	if s.UnknownErr != nil {
		err := s.UnknownErr
		s.mu.Unlock()
		return nil, err
	}
	if _, ok := s.accounts[strings.ToLower(email)]; ok {
		s.mu.Unlock()
		return nil, identity.ErrEmailInUse
	}
	a := s.addLocked(email, password)
	s.Created++
	id := a.Identity
	s.mu.Unlock()

	p.signIn(&id)
	return &id, nil
}

func (p *Provider) VerifyCredentials(_ context.Context, email, password string) (*identity.Identity, error) {
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}
	s := p.svc
	s.mu.Lock()
	if s.UnknownErr != nil {
		err := s.UnknownErr
		s.mu.Unlock()
		return nil, err
	}
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok || a.password != password {
		s.mu.Unlock()
		return nil, identity.ErrInvalidCredentials
	}
	id := a.Identity
	s.mu.Unlock()

	p.signIn(&id)
	return &id, nil
}

func (p *Provider) SignInWithToken(_ context.Context, idToken string) (*identity.Identity, error) {
	uid, ok := strings.CutPrefix(idToken, "token-")
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	p.svc.mu.Lock()
	id := p.svc.lookupUID(uid)
	p.svc.mu.Unlock()
	if id == nil {
		return nil, identity.ErrInvalidCredentials
	}
	p.signIn(id)
	return id, nil
}

func (p *Provider) EndSession(context.Context) error {
	sid := p.id()
	s := p.svc
	s.mu.Lock()
	if s.EndErr != nil {
		err := s.EndErr
		s.mu.Unlock()
		return err
	}
	delete(s.sessions, sid)
	s.mu.Unlock()
	p.emit(nil)
	return nil
}

// Rekey fails with RekeyErr when it is set.
func (p *Provider) Rekey(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.svc
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RekeyErr != nil {
		return s.RekeyErr
	}
	if uid, ok := s.sessions[p.sessionID]; ok {
		s.sessions[sessionID] = uid
		delete(s.sessions, p.sessionID)
	}
	delete(s.providers, p.sessionID)
	s.providers[sessionID] = p
	p.sessionID = sessionID
	return nil
}

func (p *Provider) Close() {
	p.mu.Lock()
	p.listener = nil
	p.mu.Unlock()
}
