package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/brainiak-app/brainiak-core/middleware"
	"github.com/brainiak-app/brainiak-core/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// Subscribe upgrades the connection and attaches it to a broadcast room.
// The queue scope is always bound to the caller's own user id.
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	scope := chi.URLParam(r, "scope")
	id := chi.URLParam(r, "id")

	var room string
	switch scope {
	case "queue":
		room = realtime.QueueRoom(userID)
	case "battle":
		room = realtime.BattleRoom(id)
	case "game":
		room = realtime.GameRoom(id)
	case "tournament":
		room = realtime.TournamentRoom(id)
	default:
		badRequestResponse(w, r, fmt.Errorf("unknown subscription scope %q", scope))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err, "room", room)
		return
	}

	client := realtime.NewClient(h.hub, conn, room)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
