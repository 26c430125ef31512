package handlers

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dom/courier-backend/internal/auth"
	"github.com/dom/courier-backend/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *websocket.Hub
	tokens *auth.TokenService
}

func NewWebSocketHandler(hub *websocket.Hub, tokens *auth.TokenService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tokens: tokens}
}

// Connect authenticates via a token query parameter (browsers cannot set
// headers on websocket dials) and attaches the connection to the hub.
func (h *WebSocketHandler) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("ws: upgrade failed")
		return
	}

	h.hub.Register(websocket.NewClient(h.hub, conn, userID))
}
