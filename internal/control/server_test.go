package control

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServeHandlesSequentialCommandsOverOneConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	s := newTestServer(t, t.TempDir())
	s.addr = addr

	stop := make(chan struct{})
	go s.Serve(stop)
	defer close(stop)

	// Give the listener a moment to come up.
	time.Sleep(50 * time.Millisecond)

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	r := bufio.NewReader(conn)

	send := func(command string) string {
		t.Helper()
		_, err := conn.Write([]byte(fmt.Sprintf("%d%s", len(command), command)))
		require.NoError(t, err)
		frame, err := readFrame(r)
		require.NoError(t, err)
		return string(frame)
	}

	// Two commands sent back to back over the same connection exercise
	// handleConn's per-connection command loop, not just one round trip.
	require.Equal(t, "Schedule cleared", send("clear_schedule"))
	require.Equal(t, "[]", send("device_get"))
}
