// Package bridge carries the in-process broadcast channels that connect
// otherwise unrelated pieces of a document view: the assistant panel pushing
// generated text into whatever editor is currently mounted, and the save
// lifecycle signals the UI renders as "Saving…" / "Saved".
package bridge

import "sync"

// InsertionBridge delivers generated content to the currently subscribed
// editor. The latest subscriber wins and nothing is queued: publishing with
// no subscriber is a dropped no-op.
type InsertionBridge struct {
	mu      sync.Mutex
	seq     int
	handler func(text string)
}

func NewInsertionBridge() *InsertionBridge {
	return &InsertionBridge{}
}

// Subscribe registers the handler, replacing any previous one. The returned
// function unsubscribes, and is a no-op once a newer subscriber took over.
func (b *InsertionBridge) Subscribe(h func(text string)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	token := b.seq
	b.handler = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.seq == token {
			b.handler = nil
		}
	}
}

// Publish hands text to the current subscriber. It reports whether anyone
// consumed the message.
func (b *InsertionBridge) Publish(text string) bool {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h == nil {
		return false
	}
	h(text)
	return true
}

// SaveSignals broadcasts save-start and save-end to every registered
// listener. Listeners observe outcomes; they cannot veto or retry a save.
type SaveSignals struct {
	mu        sync.Mutex
	seq       int
	listeners map[int]saveListener
}

type saveListener struct {
	onStart func()
	onEnd   func(err error)
}

func NewSaveSignals() *SaveSignals {
	return &SaveSignals{listeners: make(map[int]saveListener)}
}

func (s *SaveSignals) Subscribe(onStart func(), onEnd func(err error)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	token := s.seq
	s.listeners[token] = saveListener{onStart: onStart, onEnd: onEnd}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, token)
	}
}

func (s *SaveSignals) Start() {
	for _, l := range s.snapshot() {
		if l.onStart != nil {
			l.onStart()
		}
	}
}

func (s *SaveSignals) End(err error) {
	for _, l := range s.snapshot() {
		if l.onEnd != nil {
			l.onEnd(err)
		}
	}
}

func (s *SaveSignals) snapshot() []saveListener {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]saveListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}
