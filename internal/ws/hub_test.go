package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/large-farva/groundctl/internal/telemetry"
)

func TestHubBroadcastsToConnectedClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub's register channel a moment to process before broadcasting.
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastJSON(telemetry.Heartbeat{
		Event: telemetry.Event{Type: telemetry.EventHeartbeat, TS: telemetry.NowTS()},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), `"heartbeat"`)
}

func TestBroadcastJSONDoesNotBlockWithNoClients(t *testing.T) {
	hub := NewHub()
	require.NotPanics(t, func() {
		hub.BroadcastJSON(telemetry.Progress{
			Event:   telemetry.Event{Type: telemetry.EventProgress, TS: telemetry.NowTS()},
			Percent: 1,
		})
	})
}
