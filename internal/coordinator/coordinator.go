// Package coordinator ties a document view together: it opens the
// collaborative session, seeds the editor from the persisted snapshot exactly
// once, persists local edits with debounced cancellable writes, and merges
// generated content arriving over the insertion bridge.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"aidocs/internal/blocks"
	"aidocs/internal/bridge"
	"aidocs/internal/collab"
	"aidocs/internal/editor"
	"aidocs/pkg/logger"
)

type Config struct {
	Gateway    Gateway
	Sessions   *collab.Establisher
	Editor     editor.Editor
	Insertions *bridge.InsertionBridge
	Signals    *bridge.SaveSignals
	Quiet      time.Duration
}

// Coordinator owns one mounted document view.
type Coordinator struct {
	documentID string
	editor     editor.Editor
	saver      *Saver
	session    *collab.Session

	mu          sync.Mutex
	closed      bool
	unsubEdit   func()
	unsubInsert func()
}

// Open establishes the view for a document: snapshot fetch, session open,
// one-time content seeding, then edit and insertion wiring. Seeding always
// happens before the first save can fire, so an unseeded editor never
// persists empty content over real data.
func Open(ctx context.Context, cfg Config, documentID string) (*Coordinator, error) {
	if cfg.Signals == nil {
		cfg.Signals = bridge.NewSaveSignals()
	}

	persisted := ""
	doc, err := cfg.Gateway.Fetch(ctx, documentID)
	switch {
	case err == nil:
		if doc.Content != nil {
			persisted = *doc.Content
		}
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized):
		return nil, err
	default:
		// Degrade to default content rather than block the view.
		logger.Sugar.Warnf("Snapshot fetch failed for %s, seeding default content: %v", documentID, err)
	}

	session, err := cfg.Sessions.Open(documentID)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		documentID: documentID,
		editor:     cfg.Editor,
		session:    session,
	}

	// The persisted snapshot is only a session-bootstrap seed; live state is
	// the source of truth from here on.
	cfg.Editor.SetDocument(blocks.Seed(persisted))

	c.saver = NewSaver(cfg.Quiet,
		func() string { return blocks.Marshal(cfg.Editor.Document()) },
		func(ctx context.Context, state string) error {
			return cfg.Gateway.SaveContent(ctx, documentID, state)
		},
		cfg.Signals)

	c.unsubEdit = cfg.Editor.OnChange(func() {
		if c.alive() {
			c.saver.Schedule()
		}
	})
	c.unsubInsert = cfg.Insertions.Subscribe(func(text string) {
		if !c.alive() {
			return
		}
		if err := editor.InsertGenerated(cfg.Editor, text); err != nil {
			logger.Sugar.Errorf("Insertion bridge delivery failed for %s: %v", documentID, err)
		}
	})

	return c, nil
}

func (c *Coordinator) DocumentID() string { return c.documentID }

// Session exposes the live collaborative session, for sync-state display.
func (c *Coordinator) Session() *collab.Session { return c.session }

func (c *Coordinator) alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close tears the view down: pending debounce timer, in-flight save, sync
// session, then the bridge and edit subscriptions, in that order. Idempotent;
// edits after Close never reach the gateway.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.saver.Close()
	if err := c.session.Close(); err != nil {
		logger.Sugar.Warnf("Closing session for %s: %v", c.documentID, err)
	}
	c.unsubInsert()
	c.unsubEdit()
}
