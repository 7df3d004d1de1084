package llm

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Role values carried by conversation contents.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one role-tagged text message in a model conversation.
type Content struct {
	Role string
	Text string
}

// Stream yields model output text chunks in order.
// Next returns io.EOF once the stream is exhausted.
type Stream interface {
	Next() (string, error)
	Close() error
}

// Client abstracts LLM providers for interview dialogue.
type Client interface {
	// GenerateStream sends the conversation contents to the model and
	// returns the reply as an incremental text stream.
	GenerateStream(ctx context.Context, contents []Content) (Stream, error)
}

// Collect drains the stream and returns the concatenated text.
func Collect(s Stream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(chunk)
	}
}

// LiveMessageType classifies frames received on a live connection.
type LiveMessageType string

const (
	LiveText         LiveMessageType = "text"
	LiveTranscript   LiveMessageType = "transcript"
	LiveTurnComplete LiveMessageType = "turn_complete"
)

// LiveMessage is one classified frame from a live voice connection.
type LiveMessage struct {
	Type LiveMessageType
	Text string
}

// LiveConn is a bidirectional voice connection to the model.
// Messages is closed when the connection terminates; Err reports the
// terminal error, if any, once Messages is closed.
type LiveConn interface {
	SendAudio(chunk []byte) error
	SendAudioStop() error
	Messages() <-chan LiveMessage
	Close() error
	Err() error
}

// LiveDialer opens live voice connections.
type LiveDialer interface {
	DialLive(ctx context.Context, systemInstruction string) (LiveConn, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// GenerateStream returns ErrNotImplemented.
func (PlaceholderClient) GenerateStream(ctx context.Context, contents []Content) (Stream, error) {
	_ = ctx
	_ = contents
	return nil, ErrNotImplemented
}

// DialLive returns ErrNotImplemented.
func (PlaceholderClient) DialLive(ctx context.Context, systemInstruction string) (LiveConn, error) {
	_ = ctx
	_ = systemInstruction
	return nil, ErrNotImplemented
}

var (
	_ Client     = PlaceholderClient{}
	_ LiveDialer = PlaceholderClient{}
)
