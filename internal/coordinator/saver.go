package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"aidocs/internal/bridge"
	"aidocs/pkg/logger"
)

// DefaultQuiet is the edit quiet window before a save fires.
const DefaultQuiet = 2 * time.Second

// Saver coalesces bursts of local edits into single delayed persistence
// calls. Trailing-edge debounce: every Schedule resets the pending timer, and
// the save that eventually fires carries the state captured at fire time, not
// at schedule time. Saves are serialized; an edit arriving mid-save re-arms a
// follow-up save instead of overlapping.
type Saver struct {
	quiet    time.Duration
	getState func() string
	save     func(ctx context.Context, state string) error
	signals  *bridge.SaveSignals

	mu       sync.Mutex
	timer    *time.Timer
	inFlight bool
	pending  bool
	closed   bool
	cancel   context.CancelFunc
}

func NewSaver(quiet time.Duration, getState func() string, save func(ctx context.Context, state string) error, signals *bridge.SaveSignals) *Saver {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if signals == nil {
		signals = bridge.NewSaveSignals()
	}
	return &Saver{quiet: quiet, getState: getState, save: save, signals: signals}
}

// Schedule notes a local edit. No save fires for states superseded within the
// quiet window.
func (s *Saver) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.fire)
}

func (s *Saver) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		// A save is running; remember to persist the newer state once it
		// settles so persisted order matches edit order.
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *Saver) run(ctx context.Context) {
	s.signals.Start()
	state := s.getState()
	err := s.save(ctx, state)
	if err != nil && !errors.Is(err, context.Canceled) {
		// No automatic retry: the next edit's debounce cycle tries again.
		logger.Sugar.Errorf("Failed to save document: %v", err)
	}
	s.signals.End(err)

	s.mu.Lock()
	s.inFlight = false
	s.cancel = nil
	rearm := s.pending && !s.closed
	s.pending = false
	s.mu.Unlock()

	if rearm {
		s.fire()
	}
}

// Close cancels the pending timer and aborts any in-flight save. Safe to call
// repeatedly; no save starts after Close returns.
func (s *Saver) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
