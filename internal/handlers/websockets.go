package handlers

import (
	"bytes"
	"net/http"

	"devcollab/internal/logger"
	"devcollab/internal/services/websocket"
)

const (
	chatReadLimit = 64 << 10
	viewReadLimit = 512
)

// ChatWebsocketHandler relays every non-blank text message to all chat clients.
func ChatWebsocketHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := websocket.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(chatReadLimit)

		done := make(chan struct{})
		defer close(done)
		websocket.KeepAlive(connection, done)

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			_, msg, err := connection.ReadMessage()
			if err != nil {
				break
			}
			if len(bytes.TrimSpace(msg)) == 0 {
				continue
			}
			if !hub.Broadcast(msg) {
				break
			}
		}
	}
}

// ViewWebsocketHandler registers a read-only viewer. Incoming messages are
// ignored; reading only detects the disconnect.
func ViewWebsocketHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := websocket.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(viewReadLimit)

		done := make(chan struct{})
		defer close(done)
		websocket.KeepAlive(connection, done)

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}
	}
}
