package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Stream errors
var (
	ErrStreamConnNotFound   = errors.New("stream connection not found")
	ErrStreamConnBufferFull = errors.New("stream connection buffer full")
)

// EventStream fans dispatched domain events out to connected WebSocket
// clients, a live tail of everything the webhook pipeline emits.
type EventStream struct {
	connections map[string]*StreamConn
	mu          sync.RWMutex
	broadcast   chan streamFrame
}

// StreamConn is one connected WebSocket client.
type StreamConn struct {
	Conn *websocket.Conn
	ID   string
	Send chan []byte
}

type streamFrame struct {
	EventType string
	Data      any
}

// streamPayload is the wire format sent to stream clients.
type streamPayload struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// NewEventStream creates a stream and starts its broadcast loop.
func NewEventStream() *EventStream {
	s := &EventStream{
		connections: make(map[string]*StreamConn),
		broadcast:   make(chan streamFrame, 100),
	}
	go s.handleBroadcast()
	return s
}

// RegisterConnection registers a new WebSocket connection.
func (s *EventStream) RegisterConnection(conn *StreamConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connections[conn.ID] = conn

	slog.Info("Event stream connection registered",
		"connID", conn.ID,
		"totalConnections", len(s.connections))
}

// UnregisterConnection removes a WebSocket connection.
func (s *EventStream) UnregisterConnection(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, exists := s.connections[connID]; exists {
		close(conn.Send)
		delete(s.connections, connID)

		slog.Info("Event stream connection unregistered",
			"connID", connID,
			"remainingConnections", len(s.connections))
	}
}

// Broadcast queues an event for delivery to every connected client.
// A nil stream is valid and drops everything.
func (s *EventStream) Broadcast(eventType string, data any) {
	if s == nil {
		return
	}
	s.broadcast <- streamFrame{EventType: eventType, Data: data}
}

// handleBroadcast delivers queued frames to all connections.
func (s *EventStream) handleBroadcast() {
	for frame := range s.broadcast {
		payload := streamPayload{
			Type:      frame.EventType,
			Data:      frame.Data,
			Timestamp: time.Now().Unix(),
		}

		jsonData, err := json.Marshal(payload)
		if err != nil {
			slog.Error("Failed to marshal stream payload", "error", err)
			continue
		}

		s.mu.RLock()
		for _, conn := range s.connections {
			select {
			case conn.Send <- jsonData:
				// Delivered
			default:
				// Slow client, drop the frame rather than block the loop
				slog.Warn("Event stream connection buffer full", "connID", conn.ID)
			}
		}
		s.mu.RUnlock()
	}
}

// SendToConnection sends raw data to a single connection.
func (s *EventStream) SendToConnection(connID string, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if conn, exists := s.connections[connID]; exists {
		select {
		case conn.Send <- data:
			return nil
		default:
			return ErrStreamConnBufferFull
		}
	}
	return ErrStreamConnNotFound
}

// ConnectionCount returns the number of connected clients.
func (s *EventStream) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
