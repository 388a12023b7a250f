package editor

import (
	"fmt"
	"sync"

	"aidocs/internal/blocks"
)

// Memory is an in-process Editor holding an ordered block list. It backs the
// coordinator when no framework editor is attached, and the tests.
type Memory struct {
	mu        sync.Mutex
	order     []BlockID
	content   map[BlockID]blocks.Block
	cursor    BlockID // empty = no active cursor
	nextID    int
	nextToken int
	listeners map[int]func()
}

func NewMemory() *Memory {
	return &Memory{
		content:   make(map[BlockID]blocks.Block),
		listeners: make(map[int]func()),
	}
}

func (m *Memory) SetDocument(seq []blocks.Block) {
	m.mu.Lock()
	m.order = m.order[:0]
	m.content = make(map[BlockID]blocks.Block, len(seq))
	for _, b := range seq {
		id := m.newID()
		m.order = append(m.order, id)
		m.content[id] = b
	}
	if len(m.order) > 0 {
		m.cursor = m.order[len(m.order)-1]
	} else {
		m.cursor = ""
	}
	m.mu.Unlock()
}

func (m *Memory) Document() []blocks.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]blocks.Block, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.content[id])
	}
	return out
}

func (m *Memory) CursorBlock() (BlockID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor == "" {
		return "", ErrNoCursor
	}
	return m.cursor, nil
}

func (m *Memory) LastBlock() (BlockID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.order) == 0 {
		return "", ErrUnknownAnchor
	}
	return m.order[len(m.order)-1], nil
}

// SetCursor moves the cursor to a known block; ClearCursor simulates a view
// with no active selection.
func (m *Memory) SetCursor(id BlockID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.content[id]; !ok {
		return ErrUnknownAnchor
	}
	m.cursor = id
	return nil
}

func (m *Memory) ClearCursor() {
	m.mu.Lock()
	m.cursor = ""
	m.mu.Unlock()
}

func (m *Memory) InsertBlocks(seq []blocks.Block, anchor BlockID, pos Position) ([]BlockID, error) {
	m.mu.Lock()
	at := -1
	for i, id := range m.order {
		if id == anchor {
			at = i
			break
		}
	}
	if at == -1 {
		m.mu.Unlock()
		return nil, ErrUnknownAnchor
	}
	if pos == After {
		at++
	}

	ids := make([]BlockID, 0, len(seq))
	inserted := make([]BlockID, 0, len(seq))
	for _, b := range seq {
		id := m.newID()
		m.content[id] = b
		inserted = append(inserted, id)
		ids = append(ids, id)
	}
	m.order = append(m.order[:at], append(inserted, m.order[at:]...)...)
	m.mu.Unlock()

	m.notify()
	return ids, nil
}

// UpdateBlock rewrites a block's text, standing in for the user typing.
func (m *Memory) UpdateBlock(id BlockID, content string) error {
	m.mu.Lock()
	b, ok := m.content[id]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownAnchor
	}
	b.Content = content
	m.content[id] = b
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) OnChange(fn func()) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextToken++
	token := m.nextToken
	m.listeners[token] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, token)
	}
}

func (m *Memory) notify() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (m *Memory) newID() BlockID {
	m.nextID++
	return BlockID(fmt.Sprintf("block-%d", m.nextID))
}
