package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"portfolio-server/internal/types"
)

// MessageTypeHighScore is sent on connect and whenever the record changes
const MessageTypeHighScore = "highScore"

// sendBufferSize is the number of messages queued per client before the
// oldest pending one is replaced
const sendBufferSize = 16

// Hub tracks connected WebSocket clients and pushes high score updates to them
type Hub struct {
	upgrader  websocket.Upgrader
	current   func() int
	clients   map[*types.WSClient]bool
	clientsMu sync.RWMutex
}

// NewHub creates a hub. current is called to fetch the value sent to new
// clients.
func NewHub(upgrader websocket.Upgrader, current func() int) *Hub {
	return &Hub{
		upgrader: upgrader,
		current:  current,
		clients:  make(map[*types.WSClient]bool),
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *types.WSClient) {
	h.clientsMu.Lock()
	h.clients[client] = true
	h.clientsMu.Unlock()
}

func (h *Hub) removeClient(client *types.WSClient) {
	h.clientsMu.Lock()
	delete(h.clients, client)
	h.clientsMu.Unlock()
}

// ServeHTTP handles WebSocket connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	client := &types.WSClient{
		Conn: conn,
		Send: make(chan types.WSMessage, sendBufferSize),
		Last: -1,
	}

	done := make(chan struct{})
	go writePump(client, done)

	// Register before taking the snapshot so no record is missed. A snapshot
	// older than a record already queued is dropped by enqueue.
	h.addClient(client)
	enqueue(client, h.snapshot())

	logrus.WithField("remote", r.RemoteAddr).Info("New WebSocket client connected")

	for {
		var msg types.WSClientMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Error("WebSocket error")
			}
			break
		}

		logrus.WithField("action", msg.Action).Debug("WebSocket message received")

		switch msg.Action {
		case "subscribe":
			enqueue(client, h.snapshot())
		default:
			logrus.WithField("action", msg.Action).Warn("Unknown WebSocket action")
		}
	}

	h.removeClient(client)
	client.Mu.Lock()
	client.Closed = true
	close(client.Send)
	client.Mu.Unlock()
	<-done

	logrus.WithField("remote", r.RemoteAddr).Info("WebSocket client disconnected")
}

func (h *Hub) snapshot() types.WSMessage {
	return types.WSMessage{
		Type:      MessageTypeHighScore,
		HighScore: h.current(),
	}
}

// BroadcastHighScore sends a new high score to all clients
func (h *Hub) BroadcastHighScore(score int) {
	h.BroadcastToAll(types.WSMessage{
		Type:      MessageTypeHighScore,
		HighScore: score,
	})
}

// BroadcastToAll queues a message for every WebSocket client
func (h *Hub) BroadcastToAll(msg types.WSMessage) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	logrus.WithFields(logrus.Fields{
		"message_type": msg.Type,
		"client_count": len(h.clients),
	}).Debug("Broadcasting message to WebSocket clients")

	for client := range h.clients {
		enqueue(client, msg)
	}
}

// enqueue queues msg for c without blocking. Scores only go up, so a message
// lower than one already queued is stale and dropped. When the buffer is
// full the oldest pending message is discarded.
func enqueue(c *types.WSClient, msg types.WSMessage) {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if c.Closed || msg.HighScore < c.Last {
		return
	}
	c.Last = msg.HighScore

	select {
	case c.Send <- msg:
		return
	default:
	}

	logrus.Warn("WebSocket client is behind, dropping oldest queued message")
	select {
	case <-c.Send:
	default:
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// writePump is the only writer on c.Conn
func writePump(c *types.WSClient, done chan<- struct{}) {
	defer close(done)
	for msg := range c.Send {
		if err := c.Conn.WriteJSON(msg); err != nil {
			logrus.WithError(err).Error("Failed to send WebSocket message to client")
			// Unblock the reader so ServeHTTP can clean up
			c.Conn.Close()
			return
		}
	}
}
