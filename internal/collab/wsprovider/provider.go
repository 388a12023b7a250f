// Package wsprovider connects collaborative sessions to a document hub over
// WebSocket. It dials the hub's /ws endpoint, waits for the SYNC frame that
// confirms the full room state was delivered, and exposes that confirmation
// through the collab.ProviderSession contract.
package wsprovider

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"aidocs/internal/collab"
	"aidocs/pkg/logger"
	"aidocs/socket"

	"github.com/gorilla/websocket"
)

const dialTimeout = 10 * time.Second

// Provider dials document rooms on a running hub.
type Provider struct {
	// BaseURL is the hub's WebSocket origin, e.g. "ws://localhost:8080".
	BaseURL string
	// Token is passed through for authentication, empty to skip.
	Token  string
	Dialer *websocket.Dialer
}

func New(baseURL, token string) *Provider {
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = dialTimeout
	return &Provider{BaseURL: baseURL, Token: token, Dialer: &d}
}

// Open dials the room for the given session id. Session ids are namespaced
// as "document-<id>"; the hub addresses rooms by the bare document id.
func (p *Provider) Open(sessionID string) (collab.ProviderSession, error) {
	docID := strings.TrimPrefix(sessionID, "document-")

	u, err := url.Parse(p.BaseURL + "/ws")
	if err != nil {
		return nil, fmt.Errorf("invalid provider url: %w", err)
	}
	q := u.Query()
	q.Set("docId", docID)
	if p.Token != "" {
		q.Set("token", p.Token)
	}
	u.RawQuery = q.Encode()

	dialer := p.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing room %s: %w", docID, err)
	}

	s := &wsSession{
		conn:   conn,
		synced: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

type wsSession struct {
	conn *websocket.Conn

	synced    chan struct{}
	syncOnce  sync.Once
	closeOnce sync.Once
}

func (s *wsSession) Synchronized() <-chan struct{} {
	return s.synced
}

// readLoop drains incoming frames until the connection dies. Only the SYNC
// confirmation matters here; state and presence frames are consumed by the
// editor layer before this provider sees the session.
func (s *wsSession) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg socket.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Sugar.Warnf("Discarding malformed provider frame: %v", err)
			continue
		}
		if msg.Type == socket.SyncType {
			s.syncOnce.Do(func() { close(s.synced) })
		}
	}
}

func (s *wsSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = s.conn.Close()
	})
	return err
}
