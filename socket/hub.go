package socket

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"aidocs/internal/presence"
	"aidocs/pkg/logger"
)

const (
	SyncType     = "SYNC"            // Room state fully delivered, session is synchronized
	UpdateType   = "UPDATE"          // Document block-sequence changes
	CursorType   = "CURSOR"          // A collaborator moved their cursor
	PresenceType = "PRESENCE_UPDATE" // A user joined or left
	MetadataType = "METADATA"        // Document title/info
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type UserStatus struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

var ErrRoomNotFound = errors.New("document room not found")

// ContentStore persists room state between collaborative sessions.
type ContentStore interface {
	LoadContent(docID string) (string, error)
	SaveContent(docID, content string) error
}

// PostgresStore backs room state with the documents table.
type PostgresStore struct {
	DB *sql.DB
}

func (s *PostgresStore) LoadContent(docID string) (string, error) {
	var content sql.NullString
	err := s.DB.QueryRow("SELECT content FROM documents WHERE id = $1", docID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRoomNotFound
	}
	if err != nil {
		return "", err
	}
	return content.String, nil
}

func (s *PostgresStore) SaveContent(docID, content string) error {
	_, err := s.DB.Exec(`UPDATE documents SET content = $1, updated_at = NOW() WHERE id = $2`, content, docID)
	return err
}

// Hub manages document rooms: it fans edits out to collaborators, confirms
// synchronization to joiners, and flushes dirty room state back to storage.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	store    ContentStore
	presence *presence.Cache

	// Live room state, authoritative while at least one client is connected.
	roomState map[string]string
	dirty     map[string]bool
	mu        sync.Mutex
}

func NewHub(store ContentStore, pres *presence.Cache) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		store:      store,
		presence:   pres,
		roomState:  make(map[string]string),
		dirty:      make(map[string]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)
		case client := <-h.Unregister:
			h.handleUnregister(client)
		case msg := <-h.Broadcast:
			h.handleBroadcast(msg)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	if h.Rooms[client.DocID] == nil {
		h.Rooms[client.DocID] = make(map[*Client]bool)

		content, err := h.store.LoadContent(client.DocID)
		if err != nil {
			logger.Sugar.Errorf("Failed to load document %s: %v", client.DocID, err)
			content = ""
		}
		if content == "" {
			content = "[]"
		}
		h.roomState[client.DocID] = content
	}
	h.Rooms[client.DocID][client] = true
	state := h.roomState[client.DocID]
	h.mu.Unlock()

	h.joinPresence(client.DocID, client.UserID)

	// The joiner gets the full current state, then the sync confirmation the
	// session establisher waits on.
	stateMsg, _ := json.Marshal(WSMessage{Type: UpdateType, DocID: client.DocID, Payload: json.RawMessage(state)})
	client.Send <- stateMsg

	syncMsg, _ := json.Marshal(WSMessage{Type: SyncType, DocID: client.DocID})
	client.Send <- syncMsg

	h.broadcastPresence(client.DocID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	docID := client.DocID
	if _, ok := h.Rooms[docID][client]; ok {
		delete(h.Rooms[docID], client)
		close(client.Send)

		if len(h.Rooms[docID]) == 0 {
			if h.dirty[docID] {
				if err := h.store.SaveContent(docID, h.roomState[docID]); err != nil {
					logger.Sugar.Errorf("Failed to save doc %s on close: %v", docID, err)
				}
			}
			delete(h.Rooms, docID)
			delete(h.roomState, docID)
			delete(h.dirty, docID)
			logger.Sugar.Infof("Closed and cleaned up empty room: %s", docID)
		}
	}
	h.mu.Unlock()

	h.leavePresence(docID, client.UserID)
	if h.hasRoom(docID) {
		h.broadcastPresence(docID)
	}
}

func (h *Hub) handleBroadcast(msg WSMessage) {
	h.mu.Lock()
	if msg.Type == UpdateType {
		h.roomState[msg.DocID] = string(msg.Payload)
		h.dirty[msg.DocID] = true
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
		h.mu.Unlock()
		return
	}

	// Everyone in the room except the sender; I/O happens outside the lock.
	clientsToSend := make([]*Client, 0, len(h.Rooms[msg.DocID]))
	for client := range h.Rooms[msg.DocID] {
		if client.UserID != msg.UserID {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.mu.Unlock()

	for _, client := range clientsToSend {
		select {
		case client.Send <- payload:
		default:
			// Run is the only receiver of h.Unregister, and this executes on
			// Run's goroutine; re-queueing would deadlock the hub. Clean the
			// slow client up inline instead.
			logger.Sugar.Warnf("Client %s's send buffer is full. Disconnecting.", client.UserID)
			h.handleUnregister(client)
		}
	}
}

// FlushWorker periodically persists dirty rooms. A failed save leaves the
// room dirty so the next tick retries.
func (h *Hub) FlushWorker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		h.FlushDirty()
	}
}

func (h *Hub) FlushDirty() {
	toSave := make(map[string]string)
	h.mu.Lock()
	for docID, isDirty := range h.dirty {
		if isDirty {
			toSave[docID] = h.roomState[docID]
		}
	}
	h.mu.Unlock()

	for docID, content := range toSave {
		if err := h.store.SaveContent(docID, content); err != nil {
			logger.Sugar.Errorf("Failed to save doc %s: %v", docID, err)
			continue
		}

		h.mu.Lock()
		// Only mark clean if nothing changed since the save started.
		if h.roomState[docID] == content {
			h.dirty[docID] = false
		}
		h.mu.Unlock()

		logger.Sugar.Infof("Auto-saved document: %s", docID)
	}
}

// RemoveRoom forcefully drops a room and disconnects its clients; called
// when the document is deleted so stale state never flushes back.
func (h *Hub) RemoveRoom(docID string) {
	h.mu.Lock()
	delete(h.roomState, docID)
	delete(h.dirty, docID)
	if clients, ok := h.Rooms[docID]; ok {
		for client := range clients {
			client.Conn.Close() // readPump exits and unregisters safely
		}
		delete(h.Rooms, docID)
	}
	h.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.Clear(context.Background(), docID); err != nil {
			logger.Sugar.Warnf("Failed to clear presence for %s: %v", docID, err)
		}
	}
}

// Notify queues a server-originated message for broadcast to a room.
func (h *Hub) Notify(msg WSMessage) {
	h.Broadcast <- msg
}

func (h *Hub) hasRoom(docID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Rooms[docID] != nil
}

func (h *Hub) joinPresence(docID, userID string) {
	if h.presence == nil {
		return
	}
	if err := h.presence.Join(context.Background(), docID, userID); err != nil {
		logger.Sugar.Warnf("Presence join failed for %s/%s: %v", docID, userID, err)
	}
}

func (h *Hub) leavePresence(docID, userID string) {
	if h.presence == nil {
		return
	}
	if err := h.presence.Leave(context.Background(), docID, userID); err != nil {
		logger.Sugar.Warnf("Presence leave failed for %s/%s: %v", docID, userID, err)
	}
}

func (h *Hub) broadcastPresence(docID string) {
	var statuses []UserStatus
	if h.presence != nil {
		members, err := h.presence.Members(context.Background(), docID)
		if err != nil {
			logger.Sugar.Errorf("Failed to read presence for %s: %v", docID, err)
			return
		}
		now := time.Now()
		for _, id := range members {
			statuses = append(statuses, UserStatus{UserID: id, LastSeen: now})
		}
	} else {
		h.mu.Lock()
		now := time.Now()
		for client := range h.Rooms[docID] {
			statuses = append(statuses, UserStatus{UserID: client.UserID, LastSeen: now})
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	clientsToSend := make([]*Client, 0, len(h.Rooms[docID]))
	for client := range h.Rooms[docID] {
		clientsToSend = append(clientsToSend, client)
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(statuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: PresenceType, DocID: docID, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- msg:
		default:
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}
