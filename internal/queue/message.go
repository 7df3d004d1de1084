package queue

import (
	"encoding/json"
	"time"
)

// TypeSessionAssess asks the worker to generate an overall assessment for an
// ended interview session.
const TypeSessionAssess = "session.assess"

// MessageVersion is the current payload schema version.
const MessageVersion = 1

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId"`
	UserID     string `json:"userId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewAssessmentMessage builds a session.assess message for a session.
func NewAssessmentMessage(sessionID, userID, requestID string) Message {
	return Message{
		Type:       TypeSessionAssess,
		SessionID:  sessionID,
		UserID:     userID,
		RequestID:  requestID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
