package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"ride-track/internal/domain/user"
	"ride-track/internal/general/contracts"
	"ride-track/internal/general/jwt"
	"ride-track/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsReadDeadline = 60 * time.Second
	wsPingInterval = 30 * time.Second
	ctrlTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades tracking clients onto the push channel with JWT auth and
// routes their room-management frames into the Hub.
type Handler struct {
	logger *logger.Logger
	jwtMgr *jwt.Manager
	hub    *Hub
}

// NewHandler wires a WebSocket handler around the hub.
func NewHandler(logger *logger.Logger, jwtMgr *jwt.Manager, hub *Hub) *Handler {
	return &Handler{logger: logger, jwtMgr: jwtMgr, hub: hub}
}

// ServeWS handles GET /ws/tracking. The token travels in the Authorization
// header or the "token" query parameter (browsers cannot set WS headers).
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	raw, err := jwt.FromAuthorization(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	_, claims, err := h.jwtMgr.ParseAndValidate(raw)
	if err != nil {
		http.Error(w, "authentication failed: invalid token", http.StatusUnauthorized)
		return
	}
	if err := jwt.RoleAllowed(claims, user.RolePassenger, user.RoleAdmin); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}

	h.hub.Register(conn)
	defer func() {
		h.hub.DropConn(conn)
		_ = conn.Close()
	}()

	h.logger.Info(r.Context(), "ws_connected", "Tracking WebSocket connected",
		map[string]any{"subject": claims.Subject})

	conn.SetReadLimit(1 << 20) // 1 MiB
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	})

	// ping loop keeps intermediaries from dropping quiet connections
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopPing:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout)); err != nil {
					_ = conn.Close() // unblock the reader
					return
				}
			}
		}
	}()

	// read loop: the only inbound traffic is room management
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error(r.Context(), "ws_unexpected_close", "Tracking connection closed unexpectedly", err,
					map[string]any{"subject": claims.Subject})
			}
			return
		}

		var frame contracts.ClientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"bad frame"}`))
			continue
		}

		switch frame.Action {
		case contracts.ActionJoinRoom:
			h.hub.Join(frame.Room, conn)
			h.logger.Info(r.Context(), "ws_room_joined", "Client joined tracking room",
				map[string]any{"room": frame.Room, "subject": claims.Subject})
		case contracts.ActionLeaveRoom:
			h.hub.Leave(frame.Room, conn)
			h.logger.Info(r.Context(), "ws_room_left", "Client left tracking room",
				map[string]any{"room": frame.Room, "subject": claims.Subject})
		default:
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"unknown action"}`))
		}
	}
}
