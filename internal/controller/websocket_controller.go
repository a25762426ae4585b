package controller

import (
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/middleware"
	"LykkeLoopAPI/internal/websocket"
	"log/slog"
	"net/http"

	ws "github.com/gorilla/websocket"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{
		hub: hub,
	}
}

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS godoc
// @Summary      WebSocket Connection
// @Description  Upgrade to a push connection. Authenticate with the 'token' query param, then send {"action":"subscribe","channel":"..."} frames.
// @Tags         websocket
// @Param        token query string true "JWT"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Router       /ws [get]
func (c *WebSocketController) ServeWS(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}

	websocket.NewClient(c.hub, conn, authUser.UserID, authUser.IsAdmin).Start()
}
