// Package session keeps the signed-in user and their live profile together
// in one observable state for the lifetime of a client connection.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoStore          = errors.New("profile store unavailable")
)

// User is an authenticated identity as reported by the auth layer.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

// State is the combined session view. A nil Profile with Loading unset and
// Err nil means the user has no profile yet, which happens right after
// registration and is not an error.
type State struct {
	User    *User
	Profile *models.UserProfile
	Loading bool
	Err     error
}

// ProfileStore reads and patches profile documents.
type ProfileStore interface {
	LoadProfile(ctx context.Context, userID string) (*models.UserProfile, bool, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) (*models.UserProfile, error)
}

// Synchronizer follows auth events and the current user's profile document.
//
// Every auth event starts a new generation; profile snapshots belonging to an
// older generation are dropped, so after switching from user A to user B no
// listener ever sees A's profile again. Listeners are called sequentially
// and must not call HandleAuthEvent or Close themselves.
type Synchronizer struct {
	ctx   context.Context
	store ProfileStore
	feed  realtime.Feed

	// emitMu orders state changes with their delivery.
	emitMu sync.Mutex

	mu          sync.Mutex
	state       State
	gen         uint64
	stopProfile realtime.Unsubscribe
	listeners   map[uint64]func(State)
	nextID      uint64
	closed      bool
}

// New creates a synchronizer in the initializing state (Loading until the
// first auth event). Watches stop when ctx is done.
func New(ctx context.Context, store ProfileStore, feed realtime.Feed) *Synchronizer {
	return &Synchronizer{
		ctx:       ctx,
		store:     store,
		feed:      feed,
		state:     State{Loading: true},
		listeners: make(map[uint64]func(State)),
	}
}

// State returns the current state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe calls fn with the current state and then on every change.
func (s *Synchronizer) Subscribe(fn func(State)) realtime.Unsubscribe {
	s.emitMu.Lock()
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	current := s.state
	s.mu.Unlock()
	fn(current)
	s.emitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// HandleAuthEvent applies a session change from the auth layer. A nil user
// means signed out.
func (s *Synchronizer) HandleAuthEvent(user *User) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	if s.stopProfile != nil {
		s.stopProfile()
		s.stopProfile = nil
	}

	if user == nil {
		s.state = State{}
		s.emitLocked()
		return
	}

	u := *user
	s.state = State{User: &u, Loading: true}
	if s.store == nil {
		s.state = State{User: &u, Err: ErrNoStore}
		s.emitLocked()
		return
	}

	load := func(ctx context.Context) (*models.UserProfile, bool, error) {
		return s.store.LoadProfile(ctx, u.ID)
	}
	s.stopProfile = realtime.Watch(s.ctx, s.feed, realtime.UserTopic(u.ID), load, func(snap realtime.Snapshot[*models.UserProfile], err error) {
		s.applyProfile(gen, snap, err)
	})
	s.emitLocked()
}

func (s *Synchronizer) applyProfile(gen uint64, snap realtime.Snapshot[*models.UserProfile], err error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	next := State{User: s.state.User}
	switch {
	case err != nil:
		next.Err = err
	case snap.Exists:
		next.Profile = snap.Value
	}
	s.state = next
	s.emitLocked()
}

// emitLocked releases mu and delivers the current state. Callers hold emitMu
// and mu.
func (s *Synchronizer) emitLocked() {
	current := s.state
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

// UpdateProfile patches the signed-in user's profile. The new state arrives
// through the live subscription; local state is not touched here.
func (s *Synchronizer) UpdateProfile(ctx context.Context, fields map[string]interface{}) error {
	s.mu.Lock()
	user := s.state.User
	s.mu.Unlock()

	if user == nil {
		return ErrNotAuthenticated
	}
	if s.store == nil {
		return ErrNoStore
	}
	_, err := s.store.UpdateProfile(ctx, user.ID, fields)
	return err
}

// Close tears down the profile subscription and drops all listeners.
func (s *Synchronizer) Close() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	if s.stopProfile != nil {
		s.stopProfile()
		s.stopProfile = nil
	}
	s.listeners = make(map[uint64]func(State))
}
