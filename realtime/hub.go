package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans agency-scoped events out to connected console sessions. Clients
// only receive events published for their own agency.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	mu         sync.RWMutex
}

type envelope struct {
	agencyID string
	payload  []byte
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	AgencyID  string
	UserID    string
	SessionID string
}

// Event is the wire format pushed to clients.
type Event struct {
	Type string      `json:"type"` // e.g. "call.analyzed", "challenge.log"
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("Console client connected", "user_id", client.UserID, "agency_id", client.AgencyID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			slog.Info("Console client disconnected", "user_id", client.UserID, "session_id", client.SessionID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.AgencyID != msg.agencyID {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends an event to every connected client of the agency.
func (h *Hub) Publish(agencyID, eventType string, data interface{}) {
	event := Event{
		Type: eventType,
		Data: data,
		At:   time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "type", eventType)
		return
	}
	h.broadcast <- envelope{agencyID: agencyID, payload: payload}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, agencyID, userID string) *Client {
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		AgencyID:  agencyID,
		UserID:    userID,
		SessionID: uuid.New().String(),
	}

	h.register <- client
	return client
}

// ReadPump drains the connection. The console never sends application
// messages; the pump only services pings and detects disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err, "session_id", c.SessionID)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
