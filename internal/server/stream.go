package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/metrics"
	"github.com/yourusername/clever-exotics/internal/models"
	"github.com/yourusername/clever-exotics/internal/publisher"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamMessage is one frame queued for delivery
type streamMessage struct {
	raceID string
	data   []byte
}

// subscribeMsg lets a client narrow the stream to specific races
type subscribeMsg struct {
	Action  string   `json:"action"` // "subscribe" or "unsubscribe"
	RaceIDs []string `json:"race_ids"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu    sync.RWMutex
	races map[string]bool // empty means every race
}

// Hub fans signals out to connected WebSocket clients.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan streamMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	log        *logrus.Entry
	now        func() time.Time
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan streamMessage, sendBufferSize),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        log.WithField("component", "stream"),
		now:        time.Now,
	}
}

// Run is the hub event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			metrics.SetStreamClients(0)
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.SetStreamClients(n)
			h.log.WithField("total_clients", n).Info("Stream client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.SetStreamClients(n)
			h.log.WithField("total_clients", n).Info("Stream client disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !c.wants(msg.raceID) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					h.log.Warn("Dropping signal for slow stream client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues every signal for delivery. It never blocks; messages are
// dropped when the hub is saturated or stopped.
func (h *Hub) Broadcast(raceID string, signals []models.Signal) {
	now := h.now()
	for _, s := range signals {
		data, err := NewStreamFrame(raceID, s, now)
		if err != nil {
			h.log.WithError(err).Warn("Failed to encode stream frame")
			continue
		}
		select {
		case h.broadcast <- streamMessage{raceID: raceID, data: data}:
		case <-h.done:
			return
		default:
			h.log.WithField("race_id", raceID).Warn("Stream broadcast buffer full, dropping signal")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		races: make(map[string]bool),
	}
	if raceID := r.URL.Query().Get("race_id"); raceID != "" {
		c.races[raceID] = true
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// NewStreamFrame encodes a signal the same way the publishers do
func NewStreamFrame(raceID string, s models.Signal, now time.Time) ([]byte, error) {
	return publisher.NewSignalMessage(raceID, s, now).Encode()
}

func (c *client) wants(raceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.races) == 0 || c.races[raceID]
}

func (c *client) handleSubscription(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case "subscribe":
		for _, id := range msg.RaceIDs {
			c.races[id] = true
		}
	case "unsubscribe":
		for _, id := range msg.RaceIDs {
			delete(c.races, id)
		}
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.WithError(err).Warn("Unexpected stream close")
			}
			return
		}

		var sub subscribeMsg
		if err := json.Unmarshal(message, &sub); err == nil && sub.Action != "" {
			c.handleSubscription(sub)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
