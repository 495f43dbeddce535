package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/middleware"
	"github.com/DulakshanaMalith/Photography-Learning/internal/ws"
)

// WSHandler is the connection gateway: it authenticates the handshake and
// binds the principal to the connection before the hub ever sees it.
type WSHandler struct {
	hub            *ws.Hub
	validator      middleware.TokenValidator
	allowedOrigins string
}

// NewWSHandler creates the gateway. allowedOrigins matches the CORS setting
// (comma separated or "*").
func NewWSHandler(hub *ws.Hub, validator middleware.TokenValidator, allowedOrigins string) *WSHandler {
	return &WSHandler{hub: hub, validator: validator, allowedOrigins: strings.TrimSpace(allowedOrigins)}
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if h.allowedOrigins == "*" || h.allowedOrigins == "" {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, o := range strings.Split(h.allowedOrigins, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

// ServeWS authenticates and upgrades. A missing or malformed bearer header,
// or a validator rejection, refuses the upgrade outright; no connection is
// established in a half-authenticated state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := h.validator.Validate(r.Context(), token)
	if err != nil {
		logger.Errorf("ws handshake validate: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return h.checkOrigin(r) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("ws upgrade: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := ws.NewClient(h.hub, conn, userID)
	client.Start(ctx, cancel)
	h.hub.Register(client)
}
