package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialLivereload connects a websocket client to a test server wrapping the
// livereload handler.
func dialLivereload(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleLivereload(ctx, w, r)
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/livereload"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_BroadcastReachesClients(t *testing.T) {
	s := New(t.TempDir(), 0)
	conn := dialLivereload(t, s)

	// The registration happens in the upgrade handler, so the client is
	// already counted once Dial returns.
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.Broadcast(context.Background(), "reload")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	kind, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, "reload", string(payload))
}

func TestServer_DisconnectedClientIsDropped(t *testing.T) {
	s := New(t.TempDir(), 0)
	conn := dialLivereload(t, s)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	// Either the reader goroutine or the next broadcast prunes the client.
	require.Eventually(t, func() bool {
		s.Broadcast(context.Background(), "reload")
		return s.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestDedupePaths(t *testing.T) {
	assert.Equal(t, []string{"/a", "/b"}, dedupePaths([]string{"/a", "/b", "/a", "/a"}))
	assert.Nil(t, dedupePaths(nil))
}
