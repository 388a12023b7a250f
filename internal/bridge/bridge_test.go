package bridge

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutSubscriberIsDropped(t *testing.T) {
	b := NewInsertionBridge()
	assert.False(t, b.Publish("nobody is listening"))
}

func TestPublishReachesCurrentSubscriber(t *testing.T) {
	b := NewInsertionBridge()
	var got string
	b.Subscribe(func(text string) { got = text })

	require.True(t, b.Publish("hello"))
	assert.Equal(t, "hello", got)
}

func TestLatestSubscriberWins(t *testing.T) {
	b := NewInsertionBridge()
	var first, second string
	b.Subscribe(func(text string) { first = text })
	b.Subscribe(func(text string) { second = text })

	b.Publish("payload")
	assert.Empty(t, first)
	assert.Equal(t, "payload", second)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewInsertionBridge()
	var got string
	unsubscribe := b.Subscribe(func(text string) { got = text })
	unsubscribe()

	assert.False(t, b.Publish("late"))
	assert.Empty(t, got)
}

func TestStaleUnsubscribeDoesNotEvictNewSubscriber(t *testing.T) {
	b := NewInsertionBridge()
	staleUnsub := b.Subscribe(func(string) {})

	var got string
	b.Subscribe(func(text string) { got = text })
	staleUnsub() // belongs to the replaced subscriber, must be a no-op

	require.True(t, b.Publish("still delivered"))
	assert.Equal(t, "still delivered", got)
}

func TestSaveSignalsBroadcast(t *testing.T) {
	s := NewSaveSignals()
	var starts, ends int
	s.Subscribe(func() { starts++ }, func(error) { ends++ })
	s.Subscribe(func() { starts++ }, func(error) { ends++ })

	s.Start()
	s.End(nil)
	assert.Equal(t, 2, starts)
	assert.Equal(t, 2, ends)
}

func TestSaveSignalsUnsubscribe(t *testing.T) {
	s := NewSaveSignals()
	var starts int
	unsubscribe := s.Subscribe(func() { starts++ }, nil)
	unsubscribe()
	s.Start()
	assert.Zero(t, starts)
}

func TestSelectionDebounceReportsFinalValue(t *testing.T) {
	var mu sync.Mutex
	var reports []string
	o := NewSelectionObserver(30*time.Millisecond, func(text string) {
		mu.Lock()
		reports = append(reports, text)
		mu.Unlock()
	})
	defer o.Close()

	o.Notify("h")
	o.Notify("he")
	o.Notify("hello world  ")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) == 1 && reports[0] == "hello world"
	}, time.Second, 5*time.Millisecond)

	// Deselecting reports the empty string.
	o.Notify("")
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) == 2 && reports[1] == ""
	}, time.Second, 5*time.Millisecond)
}

func TestSelectionObserverCloseCancelsPendingReport(t *testing.T) {
	var mu sync.Mutex
	var reports []string
	o := NewSelectionObserver(20*time.Millisecond, func(text string) {
		mu.Lock()
		reports = append(reports, text)
		mu.Unlock()
	})

	o.Notify("about to go stale")
	o.Close()
	o.Close() // idempotent

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, reports)
}

func TestSelectionObserverNoReportAfterCloseReturns(t *testing.T) {
	// Race Close against the firing timer repeatedly: once Close has
	// returned, the report count must never move again.
	for i := 0; i < 50; i++ {
		var mu sync.Mutex
		reports := 0
		o := NewSelectionObserver(time.Millisecond, func(string) {
			mu.Lock()
			reports++
			mu.Unlock()
		})

		o.Notify("racing")
		time.Sleep(time.Millisecond)
		o.Close()

		mu.Lock()
		atClose := reports
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		after := reports
		mu.Unlock()
		assert.Equal(t, atClose, after)
	}
}
