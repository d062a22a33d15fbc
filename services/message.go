package services

import (
	"context"
)

// Message is a handle on a received Messenger message, bound to the
// conversation it arrived in.
type Message struct {
	client *GraphClient

	MID         string
	SenderID    string
	RecipientID string
	Timestamp   int64
}

// NewMessage creates a handle for a message received from senderID.
func NewMessage(client *GraphClient, mid, senderID, recipientID string, timestamp int64) *Message {
	return &Message{
		client:      client,
		MID:         mid,
		SenderID:    senderID,
		RecipientID: recipientID,
		Timestamp:   timestamp,
	}
}

// SendText replies to the sender of this message and returns a handle on
// the outbound message.
func (m *Message) SendText(ctx context.Context, text string) (*Message, error) {
	mid, err := m.client.SendMessengerReply(ctx, m.SenderID, text)
	if err != nil {
		return nil, err
	}

	// Roles flip on the reply: the page is now the sender.
	return NewMessage(m.client, mid, m.RecipientID, m.SenderID, m.Timestamp), nil
}
