package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/fieldzone/go/internal/possession"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Start(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("connection count never reached %d, have %d", want, hub.ConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastsPossessionChangeToAllClients(t *testing.T) {
	hub, url := startHub(t)

	first := dial(t, url)
	second := dial(t, url)
	waitForConnections(t, hub, 2)

	hub.PossessionChanged(context.Background(), possession.Change{EventID: "401"})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var event struct {
			Type string `json:"type"`
			Data struct {
				EventID string `json:"event_id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, EventPossessionChanged, event.Type)
		assert.Equal(t, "401", event.Data.EventID)
	}
}

func TestHub_UnregistersClosedConnections(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	waitForConnections(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForConnections(t, hub, 0)
}

func TestHub_UnregisterLeavesSendOpenForBroadcaster(t *testing.T) {
	hub := NewHub(DefaultConfig())
	conn := &Connection{ID: "c1", Send: make(chan []byte, 1), Hub: hub}
	hub.register(conn)

	// A pump exiting while the broadcast loop still holds a snapshot with
	// this connection must not close Send under the loop's send.
	hub.unregister(conn)
	assert.NotPanics(t, func() { conn.Send <- []byte("x") })
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_BroadcastWithoutClientsIsHarmless(t *testing.T) {
	hub, _ := startHub(t)
	hub.Broadcast(Event{Type: EventPossessionChanged, Timestamp: time.Now()})
	assert.Equal(t, 0, hub.ConnectionCount())
}
