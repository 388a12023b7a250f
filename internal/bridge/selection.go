package bridge

import (
	"strings"
	"sync"
	"time"
)

// DefaultSelectionQuiet is how long the selection must hold still before it
// is reported.
const DefaultSelectionQuiet = 300 * time.Millisecond

// SelectionObserver debounces raw selection-change events into a stable
// "currently selected text" value for the assistant panel. Trailing-edge:
// only the final selection inside a burst is reported.
type SelectionObserver struct {
	mu     sync.Mutex
	quiet  time.Duration
	timer  *time.Timer
	report func(text string)
	closed bool
}

func NewSelectionObserver(quiet time.Duration, report func(text string)) *SelectionObserver {
	if quiet <= 0 {
		quiet = DefaultSelectionQuiet
	}
	return &SelectionObserver{quiet: quiet, report: report}
}

// Notify records a raw selection. The trimmed text is reported once the
// quiet window elapses without a newer notification; an empty string means
// nothing is selected.
func (o *SelectionObserver) Notify(raw string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	text := strings.TrimSpace(raw)
	o.timer = time.AfterFunc(o.quiet, func() {
		// The lock is held across the report: once Close returns, a fired
		// timer has either already reported or will see closed and bail.
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.closed {
			return
		}
		o.report(text)
	})
}

// Close cancels any pending report. No callback fires after Close returns,
// and Close is safe to call more than once.
func (o *SelectionObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
