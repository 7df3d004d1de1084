package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"interview-backend/internal/bootstrap"
	"interview-backend/internal/llm/gemini"
	"interview-backend/internal/queue"
	"interview-backend/internal/sessions"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingSessionID indicates a message missing the session id.
type ErrMissingSessionID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingSessionID) Error() string { return "missing session id" }

// ErrUnknownType indicates a message type this worker does not handle.
type ErrUnknownType struct {
	Type      string
	RequestID string
}

func (e ErrUnknownType) Error() string { return "unknown message type " + e.Type }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	SessionID string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process assessment"
	}
	return "process assessment: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	// Messages published before the type field was added default to
	// assessment jobs.
	if msg.Type != "" && msg.Type != queue.TypeSessionAssess {
		return msg, meta, ErrUnknownType{Type: msg.Type, RequestID: msg.RequestID}
	}
	if strings.TrimSpace(msg.SessionID) == "" {
		return msg, meta, ErrMissingSessionID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, app *bootstrap.App, body string) error {
	if app == nil {
		return errors.New("sessions service not configured")
	}
	processor := app.AssessmentProcessor
	if processor == nil && app.SessionsService != nil {
		processor = app.SessionsService
	}
	if processor == nil {
		return errors.New("sessions service not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.SessionID) == "" {
		return ErrMissingSessionID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	ctxWithRequest := sessions.WithRequestID(ctx, msg.RequestID)
	if err := processor.GenerateAssessment(ctxWithRequest, msg.UserID, msg.SessionID); err != nil {
		return ErrProcess{SessionID: msg.SessionID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// IsUnrecoverable reports whether a failure can never succeed on
// redelivery: the payload is malformed, the session is gone or still
// running, or the model rejected the request in a way retries will not
// change.
func IsUnrecoverable(err error) bool {
	switch err.(type) {
	case ErrEmptyBody, ErrDecode, ErrMissingSessionID, ErrUnknownType:
		return true
	}
	if errors.Is(err, sessions.ErrNotFound) ||
		errors.Is(err, sessions.ErrSessionStillActive) ||
		errors.Is(err, sessions.ErrAssessmentInvalid) {
		return true
	}
	var apiErr *gemini.Error
	if errors.As(err, &apiErr) {
		return !apiErr.IsRetryable()
	}
	return false
}
