package services

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/agencydesk/console/realtime"
	"github.com/gorilla/websocket"
)

// EventPublisher pushes agency-scoped events to connected console sessions.
type EventPublisher interface {
	Publish(agencyID, eventType string, data interface{})
}

// WebSocketEndpoints upgrades authenticated console connections onto the
// event hub.
type WebSocketEndpoints struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewWebSocketEndpoints(hub *realtime.Hub, allowedOrigins string) *WebSocketEndpoints {
	return &WebSocketEndpoints{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     OriginChecker(allowedOrigins),
		},
	}
}

// OriginChecker builds the upgrade origin check from a comma-separated
// allowlist. An empty list denies everything; "*" allows everything.
func OriginChecker(allowedOrigins string) func(*http.Request) bool {
	var allowed []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return false
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (e *WebSocketEndpoints) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err, "admin_user_id", admin.ID)
		return
	}

	client := e.hub.RegisterClient(conn, admin.AgencyID, admin.ID)
	go client.WritePump()
	go client.ReadPump()
}
