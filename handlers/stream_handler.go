package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sarrtle/fbtools/services"
)

// streamMessage is an incoming control message from a stream client.
type streamMessage struct {
	Type string `json:"type"`
}

// StreamUpgrade upgrades an HTTP request to a WebSocket connection.
func StreamUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleStream serves one event stream client: register with the
// stream, pump broadcast frames out and answer pings until the client
// disconnects.
func HandleStream(stream *services.EventStream) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		conn := &services.StreamConn{
			Conn: c,
			ID:   uuid.New().String(),
			Send: make(chan []byte, 256),
		}

		stream.RegisterConnection(conn)
		defer stream.UnregisterConnection(conn.ID)

		welcome := map[string]any{
			"type":    "connected",
			"conn_id": conn.ID,
		}
		if data, err := json.Marshal(welcome); err == nil {
			c.WriteMessage(websocket.TextMessage, data)
		}

		go streamSend(conn)
		streamReceive(conn)
	}
}

// streamSend writes queued frames to the client and keeps the
// connection alive with periodic pings.
func streamSend(conn *services.StreamConn) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Error("Failed to write stream message", "connID", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// streamReceive reads control messages from the client. The stream is
// one-way for events; only ping is understood.
func streamReceive(conn *services.StreamConn) {
	defer conn.Conn.Close()

	conn.Conn.SetReadLimit(4 * 1024)
	conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("Stream read error", "connID", conn.ID, "error", err)
			}
			break
		}

		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg streamMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Error("Failed to parse stream message", "connID", conn.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "ping":
			if data, err := json.Marshal(map[string]string{"type": "pong"}); err == nil {
				conn.Send <- data
			}
		default:
			slog.Warn("Unknown stream message type", "type", msg.Type, "connID", conn.ID)
		}
	}
}
