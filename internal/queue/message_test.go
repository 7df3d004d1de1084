package queue

import (
	"reflect"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		Type:       TypeSessionAssess,
		SessionID:  "session-123",
		UserID:     "user-456",
		RequestID:  "request-789",
		EnqueuedAt: "2026-01-30T22:00:00Z",
		Version:    1,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}

	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

func TestNewAssessmentMessage(t *testing.T) {
	msg := NewAssessmentMessage("session-1", "user-1", "req-1")

	if msg.Type != TypeSessionAssess {
		t.Fatalf("expected type %q, got %q", TypeSessionAssess, msg.Type)
	}
	if msg.SessionID != "session-1" || msg.UserID != "user-1" || msg.RequestID != "req-1" {
		t.Fatalf("unexpected ids: %+v", msg)
	}
	if msg.Version != MessageVersion {
		t.Fatalf("expected version %d, got %d", MessageVersion, msg.Version)
	}
	if _, err := time.Parse(time.RFC3339, msg.EnqueuedAt); err != nil {
		t.Fatalf("enqueuedAt is not RFC3339: %v", err)
	}
}
