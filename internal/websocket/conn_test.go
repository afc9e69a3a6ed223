package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialPair spins up a loopback upgrade and returns the wrapped server side
// plus the raw client side.
func dialPair(t *testing.T) (*Conn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverSide := make(chan *Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- Wrap(raw)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-serverSide:
		t.Cleanup(func() { conn.Close() })
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatal("server side never upgraded")
		return nil, nil
	}
}

func TestInterruptUnblocksRead(t *testing.T) {
	conn, _ := dialPair(t)

	readDone := make(chan error, 1)
	go func() {
		var v map[string]any
		readDone <- conn.ReadJSON(&v)
	}()

	// Give the reader time to park inside ReadJSON before expiring it.
	time.Sleep(50 * time.Millisecond)
	conn.Interrupt()

	select {
	case err := <-readDone:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read did not unblock after interrupt")
	}
}

func TestWriteStillWorksAfterInterrupt(t *testing.T) {
	conn, client := dialPair(t)

	readDone := make(chan error, 1)
	go func() {
		var v map[string]any
		readDone <- conn.ReadJSON(&v)
	}()
	time.Sleep(50 * time.Millisecond)
	conn.Interrupt()
	require.Error(t, <-readDone)

	// The forced-submission path sends the final frame after the read
	// side is torn down.
	require.NoError(t, conn.WriteTyped(SubmittedResponse{
		Event:       EventSubmitted,
		SubmittedAt: "2026-08-31 10:00:00",
	}))

	var frame map[string]string
	require.NoError(t, client.ReadJSON(&frame))
	assert.Equal(t, string(EventSubmitted), frame["event"])
	assert.Equal(t, "2026-08-31 10:00:00", frame["submitted_at"])
}
