// Package inspect streams resolved transforms to websocket clients.
package inspect

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/scenegraph/internal/core/hierarchy"
	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/systems/physics"
	"github.com/zeusync/scenegraph/internal/core/world"
	"github.com/zeusync/scenegraph/pkg/concurrent"
)

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// EntityState is one entity with a Transform. Parent is 0 for roots.
type EntityState struct {
	ID       models.EntityID `json:"id"`
	Parent   models.EntityID `json:"parent"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Rotation float64         `json:"rotation"`
	Scale    float64         `json:"scale"`
}

// Snapshot is what every client receives per broadcast.
type Snapshot struct {
	Tick     uint64        `json:"tick"`
	Entities []EntityState `json:"entities"`
}

// Capture lists every entity with a Transform in ascending id order.
func Capture(tick uint64, w *world.World) Snapshot {
	parents := world.ReadView[hierarchy.Parent](w)
	snap := Snapshot{Tick: tick}
	world.Each(w, func(e models.EntityID, t physics.Transform) bool {
		state := EntityState{
			ID:       e,
			X:        t.Position.X,
			Y:        t.Position.Y,
			Rotation: t.Rotation,
			Scale:    t.Scale,
		}
		if p, ok := parents.Get(e); ok {
			state.Parent = p.Entity
		}
		snap.Entities = append(snap.Entities, state)
		return true
	})
	return snap
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Server keeps the set of connected inspector clients.
type Server struct {
	logger log.Log

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewServer(logger log.Log) *Server {
	return &Server{
		logger:  logger.Named("inspect"),
		clients: make(map[*client]struct{}),
	}
}

// Handler upgrades requests to websocket connections. Clients only receive.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("inspector connected", log.String("remote", conn.RemoteAddr().String()))

	// drain until the peer goes away
	go func() {
		defer s.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		_ = c.conn.Close()
		s.logger.Debug("inspector disconnected")
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast writes snap to every client; clients that fail are dropped.
func (s *Server) Broadcast(snap Snapshot) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	concurrent.ForEach(clients, func(c *client) {
		c.mu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := c.conn.WriteJSON(snap)
		c.mu.Unlock()
		if err != nil {
			s.logger.Debug("inspector write failed", log.Error(err))
			s.drop(c)
		}
	})
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()
	for c := range clients {
		_ = c.conn.Close()
	}
}
