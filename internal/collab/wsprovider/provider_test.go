package wsprovider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aidocs/socket"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// roomServer mimics the hub's join handshake: full state first, then the
// sync confirmation.
func roomServer(t *testing.T, gotDocID *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotDocID = r.URL.Query().Get("docId")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		state, _ := json.Marshal(socket.WSMessage{Type: socket.UpdateType, Payload: json.RawMessage(`[]`)})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, state))

		sync, _ := json.Marshal(socket.WSMessage{Type: socket.SyncType})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, sync))

		// Keep the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestOpenStripsSessionNamespace(t *testing.T) {
	var gotDocID string
	server := roomServer(t, &gotDocID)
	defer server.Close()

	p := New("ws"+strings.TrimPrefix(server.URL, "http"), "")
	ps, err := p.Open("document-doc-7")
	require.NoError(t, err)
	defer ps.Close()

	select {
	case <-ps.Synchronized():
	case <-time.After(2 * time.Second):
		t.Fatal("sync confirmation never arrived")
	}
	assert.Equal(t, "doc-7", gotDocID)
}

func TestOpenDialFailure(t *testing.T) {
	p := New("ws://127.0.0.1:1", "")
	_, err := p.Open("document-doc-7")
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	var gotDocID string
	server := roomServer(t, &gotDocID)
	defer server.Close()

	p := New("ws"+strings.TrimPrefix(server.URL, "http"), "tok")
	ps, err := p.Open("document-doc-9")
	require.NoError(t, err)

	require.NoError(t, ps.Close())
	assert.NoError(t, ps.Close())
}
