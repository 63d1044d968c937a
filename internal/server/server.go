package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/parlourlabs/holdem/internal/room"
)

// Server accepts websocket sessions and hands each one to the room
// registry. One Connection per socket; rooms own all game state.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	registry *room.Registry
	logger   *log.Logger

	mu      sync.Mutex
	conns   map[*Connection]struct{}
	httpSrv *http.Server
}

// NewServer creates a server bound to addr, backed by the registry.
func NewServer(addr string, registry *room.Registry, logger *log.Logger) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		registry: registry,
		logger:   logger.WithPrefix("server"),
		conns:    make(map[*Connection]struct{}),
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpSrv = &http.Server{Addr: s.addr, Handler: mux}
	s.logger.Info("listening", "addr", s.addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener and closes every live session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.conns {
		_ = c.ws.Close()
	}
	s.mu.Unlock()

	if s.httpSrv != nil {
		return s.httpSrv.Shutdown(ctx)
	}
	return nil
}

// handleWebSocket upgrades the request and runs the session. The player
// identity comes from the name query parameter; the room mutex makes the
// resulting disconnect/reconnect ordering safe.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name query parameter required", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	conn := NewConnection(name, ws, s.registry, s.logger)
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	total := len(s.conns)
	s.mu.Unlock()
	s.logger.Info("session opened", "player", name, "total", total)

	go func() {
		conn.Run()
		s.mu.Lock()
		delete(s.conns, conn)
		total := len(s.conns)
		s.mu.Unlock()
		s.logger.Info("session closed", "player", name, "total", total)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
