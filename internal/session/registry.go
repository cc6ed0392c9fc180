package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/identity"
)

// Registry owns one Manager per client session id. Managers idle for longer
// than the idle timeout are closed and dropped; their persisted sign-in
// survives and is restored when the client returns.
type Registry struct {
	factory  identity.Factory
	roles    RoleStore
	profiles ProfileCreator
	logger   *zap.Logger
	opts     Options
	idle     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
	stop     chan struct{}
	done     chan struct{}
}

type entry struct {
	manager  *Manager
	lastSeen time.Time
	// rotating is set while Rekey moves the entry to a new id. The old id
	// no longer resolves to it.
	rotating bool
}

// NewRegistry creates a Registry. When idle is positive a reaper goroutine
// sweeps idle sessions every idle/2 until Close.
func NewRegistry(factory identity.Factory, roles RoleStore, profiles ProfileCreator, logger *zap.Logger, opts Options, idle time.Duration) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		factory:  factory,
		roles:    roles,
		profiles: profiles,
		logger:   logger,
		opts:     opts,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*entry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if idle > 0 {
		go r.reap(idle / 2)
	} else {
		close(r.done)
	}
	return r
}

// Get returns the initialized Manager for sessionID, creating it on first use.
// It fails with ErrRotating while the session is being moved to a new id.
func (r *Registry) Get(sessionID string) (*Manager, error) {
	if sessionID == "" {
		return nil, errors.New("empty session id")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if e, ok := r.sessions[sessionID]; ok {
		if e.rotating {
			r.mu.Unlock()
			return nil, ErrRotating
		}
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.manager, nil
	}
	m := NewManager(r.factory.NewProvider(sessionID), r.roles, r.profiles,
		r.logger.With(zap.String("session", shortID(sessionID))), r.opts)
	r.sessions[sessionID] = &entry{manager: m, lastSeen: r.now()}
	r.mu.Unlock()

	if err := m.Initialize(); err != nil {
		r.Remove(sessionID)
		return nil, err
	}
	return m, nil
}

// Rekey moves the session oldID, with its persisted sign-in, to newID.
// Afterwards oldID starts a fresh anonymous session.
func (r *Registry) Rekey(ctx context.Context, oldID, newID string) error {
	if newID == "" {
		return errors.New("empty session id")
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	e, ok := r.sessions[oldID]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownSession
	}
	if e.rotating {
		r.mu.Unlock()
		return ErrRotating
	}
	if _, taken := r.sessions[newID]; taken {
		r.mu.Unlock()
		return fmt.Errorf("session id %s already in use", shortID(newID))
	}
	e.rotating = true
	r.mu.Unlock()

	err := e.manager.rekey(ctx, newID)

	r.mu.Lock()
	defer r.mu.Unlock()
	e.rotating = false
	if err != nil {
		return fmt.Errorf("rekey session %s: %w", shortID(oldID), err)
	}
	if r.closed {
		return ErrClosed
	}
	if r.sessions[oldID] != e {
		return ErrUnknownSession
	}
	delete(r.sessions, oldID)
	e.lastSeen = r.now()
	r.sessions[newID] = e
	return nil
}

// Remove closes and forgets the Manager for sessionID, if any.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if ok {
		e.manager.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) reap(every time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if n := r.sweep(); n > 0 {
				r.logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// sweep closes sessions idle for longer than r.idle and returns how many
// were evicted.
func (r *Registry) sweep() int {
	cutoff := r.now().Add(-r.idle)
	var stale []*Manager

	r.mu.Lock()
	for id, e := range r.sessions {
		if !e.rotating && e.lastSeen.Before(cutoff) {
			stale = append(stale, e.manager)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, m := range stale {
		m.Close()
	}
	return len(stale)
}

// Close stops the reaper and closes every Manager.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	close(r.stop)
	<-r.done
	for _, e := range sessions {
		e.manager.Close()
	}
	r.logger.Info("session registry closed", zap.Int("sessions", len(sessions)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
