// Package collab establishes per-document collaborative sessions against an
// external sync provider and tracks their synchronization state. The CRDT
// merge itself lives inside the provider; this package only owns the session
// lifecycle.
package collab

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"aidocs/pkg/logger"
)

// DefaultSyncBudget bounds how long a session waits for the provider's sync
// confirmation before degrading to an editable state.
const DefaultSyncBudget = 8 * time.Second

// SessionID namespaces the collaborative room for a document.
func SessionID(documentID string) string {
	return "document-" + documentID
}

type State int

const (
	StateConnecting State = iota
	StateSynchronized
	// StateTimedOut means the sync budget expired: the session is editable
	// but degraded, and upgrades to Synchronized if the signal arrives late.
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSynchronized:
		return "synchronized"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// ProviderSession is one live connection to the sync provider.
type ProviderSession interface {
	// Synchronized delivers the provider's one-shot sync confirmation.
	Synchronized() <-chan struct{}
	Close() error
}

// Provider opens provider sessions by room id.
type Provider interface {
	Open(sessionID string) (ProviderSession, error)
}

// Session is one collaborative connection scoped to a single document.
type Session struct {
	id string

	mu      sync.Mutex
	state   State
	warning string

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
	ps        ProviderSession
}

func newSession(id string, ps ProviderSession, budget time.Duration) *Session {
	s := &Session{
		id:    id,
		state: StateConnecting,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
		ps:    ps,
	}
	go s.watch(budget)
	return s
}

func (s *Session) watch(budget time.Duration) {
	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case <-s.ps.Synchronized():
		s.transition(StateSynchronized, "")
		return
	case <-timer.C:
		s.transition(StateTimedOut, fmt.Sprintf(
			"no sync confirmation within %s, continuing in degraded mode", budget))
		logger.Sugar.Warnf("Session %s: sync timed out after %s", s.id, budget)
	case <-s.done:
		return
	}

	// Degraded: keep listening so a slow provider still upgrades the state.
	select {
	case <-s.ps.Synchronized():
		s.transition(StateSynchronized, "")
		logger.Sugar.Infof("Session %s: late sync confirmation received", s.id)
	case <-s.done:
	}
}

func (s *Session) transition(state State, warning string) {
	s.mu.Lock()
	s.state = state
	s.warning = warning
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Warning returns the non-fatal sync warning, empty when fully synchronized.
func (s *Session) Warning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// Ready closes once the session becomes editable, whether by confirmation or
// by timeout degrade.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Close releases the provider connection and cancels the sync watch exactly
// once; additional calls are no-ops.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

var ErrProviderUnavailable = errors.New("sync provider unavailable")

// Establisher opens sessions and enforces that at most one is live per
// mounted document view.
type Establisher struct {
	mu       sync.Mutex
	provider Provider
	budget   time.Duration
	current  *Session
}

func NewEstablisher(provider Provider, budget time.Duration) *Establisher {
	if budget <= 0 {
		budget = DefaultSyncBudget
	}
	return &Establisher{provider: provider, budget: budget}
}

// Open starts a session for the document. Any previously open session is
// fully closed first so two rooms are never half-open concurrently.
func (e *Establisher) Open(documentID string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		if err := e.current.Close(); err != nil {
			logger.Sugar.Warnf("Closing previous session: %v", err)
		}
		e.current = nil
	}

	ps, err := e.provider.Open(SessionID(documentID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	e.current = newSession(SessionID(documentID), ps, e.budget)
	return e.current, nil
}

// Close tears down the current session, if any. Idempotent.
func (e *Establisher) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	err := e.current.Close()
	e.current = nil
	return err
}
