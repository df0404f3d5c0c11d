package websocket

import (
	"encoding/json"
	"time"

	"notes-server/internal/domain"
)

type MessageType string

const (
	TypeNoteCreated MessageType = "note_created"
	TypeNoteUpdated MessageType = "note_updated"
	TypeNoteDeleted MessageType = "note_deleted"
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
	TypeError       MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type NoteEventPayload struct {
	NoteID     string    `json:"noteId"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurredAt"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

// NewNoteEventMessage maps a committed note change to its wire message.
func NewNoteEventMessage(event domain.NoteEvent) (*Message, error) {
	msg, err := NewMessage(MessageType(event.Type), NoteEventPayload{
		NoteID:     event.NoteID,
		Title:      event.Title,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return nil, err
	}
	msg.Timestamp = event.OccurredAt
	return msg, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
