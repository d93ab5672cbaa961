package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/specialistvlad/bundlego/internal/ctxlog"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// The server binds locally and serves the user's own build output.
		return true
	},
}

// Server serves the output directory over HTTP and pushes reload messages
// to connected websocket clients after each successful rebuild.
type Server struct {
	dir        string
	port       int
	httpServer *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// New creates a dev server for the given output directory.
func New(dir string, port int) *Server {
	return &Server{
		dir:     dir,
		port:    port,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Start runs the HTTP server in a goroutine and returns immediately.
func (s *Server) Start(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.dir)))
	mux.HandleFunc("/livereload", func(w http.ResponseWriter, r *http.Request) {
		s.handleLivereload(ctx, w, r)
	})

	addr := fmt.Sprintf(":%d", s.port)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("Dev server started.", "address", fmt.Sprintf("http://localhost%s/", addr), "dir", s.dir)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Dev server failed unexpectedly.", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server and drops every live-reload client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Broadcast pushes a text message to every connected client. Clients that
// fail to accept the write are dropped.
func (s *Server) Broadcast(ctx context.Context, message string) {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			logger.Debug("Dropping live-reload client.", "error", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
	logger.Debug("Live-reload broadcast sent.", "message", message, "client_count", len(s.clients))
}

// ClientCount reports the number of connected clients. Exposed for tests.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleLivereload(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("Live-reload upgrade failed.", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	logger.Debug("Live-reload client connected.", "remote_addr", r.RemoteAddr)

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Drain the read side so close frames are processed; the channel is
	// otherwise write-only.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}
