package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"interview-backend/internal/llm"
)

const (
	liveConnectTimeout = 15 * time.Second
	livePath           = "/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	liveAudioMIMEType  = "audio/pcm;rate=16000"
)

// liveSetup is the first client frame on a live connection.
type liveSetup struct {
	Setup liveSetupBody `json:"setup"`
}

type liveSetupBody struct {
	Model                   string               `json:"model"`
	GenerationConfig        *liveGenConfig       `json:"generationConfig,omitempty"`
	SystemInstruction       *geminiContent       `json:"systemInstruction,omitempty"`
	InputAudioTranscription *liveTranscriptionCfg `json:"inputAudioTranscription,omitempty"`
}

type liveGenConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type liveTranscriptionCfg struct{}

// liveRealtimeInput carries client audio frames and the end-of-audio marker.
type liveRealtimeInput struct {
	RealtimeInput liveRealtimeInputBody `json:"realtimeInput"`
}

type liveRealtimeInputBody struct {
	MediaChunks    []liveMediaChunk `json:"mediaChunks,omitempty"`
	AudioStreamEnd bool             `json:"audioStreamEnd,omitempty"`
}

type liveMediaChunk struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

// liveServerFrame is the envelope of server frames on a live connection.
type liveServerFrame struct {
	SetupComplete *struct{}          `json:"setupComplete,omitempty"`
	ServerContent *liveServerContent `json:"serverContent,omitempty"`
}

type liveServerContent struct {
	ModelTurn          *geminiContent     `json:"modelTurn,omitempty"`
	TurnComplete       bool               `json:"turnComplete,omitempty"`
	InputTranscription *liveTranscription `json:"inputTranscription,omitempty"`
}

type liveTranscription struct {
	Text string `json:"text"`
}

// LiveSession is a live voice websocket session implementing llm.LiveConn.
type LiveSession struct {
	conn *websocket.Conn

	messages chan llm.LiveMessage
	done     chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// DialLive opens a live voice connection with the given system instruction.
func (c *Client) DialLive(ctx context.Context, systemInstruction string) (llm.LiveConn, error) {
	if strings.TrimSpace(c.liveModel) == "" {
		return nil, fmt.Errorf("GEMINI_LIVE_MODEL is required")
	}

	wsURL, err := c.liveEndpoint()
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, liveConnectTimeout)
		defer cancel()
	}

	dialer := c.dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("live dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("live dial failed: %w", err)
	}

	setup := liveSetup{
		Setup: liveSetupBody{
			Model: "models/" + c.liveModel,
			GenerationConfig: &liveGenConfig{
				ResponseModalities: []string{"TEXT"},
			},
			InputAudioTranscription: &liveTranscriptionCfg{},
		},
	}
	if strings.TrimSpace(systemInstruction) != "" {
		setup.Setup.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		}
	}
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send live setup: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(liveConnectTimeout))
	var first liveServerFrame
	if err := conn.ReadJSON(&first); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read setup ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if first.SetupComplete == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first live frame")
	}

	session := &LiveSession{
		conn:     conn,
		messages: make(chan llm.LiveMessage, 256),
		done:     make(chan struct{}),
	}
	go session.readLoop()
	return session, nil
}

func (c *Client) liveEndpoint() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = livePath
	u.RawQuery = "key=" + url.QueryEscape(c.apiKey)
	return u.String(), nil
}

// SendAudio sends one PCM audio chunk.
func (s *LiveSession) SendAudio(chunk []byte) error {
	frame := liveRealtimeInput{
		RealtimeInput: liveRealtimeInputBody{
			MediaChunks: []liveMediaChunk{{
				MIMEType: liveAudioMIMEType,
				Data:     base64.StdEncoding.EncodeToString(chunk),
			}},
		},
	}
	return s.sendJSON(frame)
}

// SendAudioStop marks the end of the audio stream for the current turn.
func (s *LiveSession) SendAudioStop() error {
	frame := liveRealtimeInput{
		RealtimeInput: liveRealtimeInputBody{
			AudioStreamEnd: true,
		},
	}
	return s.sendJSON(frame)
}

// Messages yields classified frames from the connection. The channel is
// closed when the connection terminates.
func (s *LiveSession) Messages() <-chan llm.LiveMessage {
	return s.messages
}

func (s *LiveSession) sendJSON(v any) error {
	if s.closed.Load() {
		return fmt.Errorf("live session is closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close closes the websocket session.
func (s *LiveSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns the terminal session error (if any).
func (s *LiveSession) Err() error {
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *LiveSession) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *LiveSession) readLoop() {
	defer close(s.done)
	defer close(s.messages)

	for {
		var frame liveServerFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.setErr(err)
			return
		}
		if frame.ServerContent == nil {
			continue
		}
		content := frame.ServerContent

		if content.InputTranscription != nil && content.InputTranscription.Text != "" {
			s.emit(llm.LiveMessage{Type: llm.LiveTranscript, Text: content.InputTranscription.Text})
		}
		if content.ModelTurn != nil {
			var b strings.Builder
			for _, part := range content.ModelTurn.Parts {
				b.WriteString(part.Text)
			}
			if b.Len() > 0 {
				s.emit(llm.LiveMessage{Type: llm.LiveText, Text: b.String()})
			}
		}
		if content.TurnComplete {
			s.emit(llm.LiveMessage{Type: llm.LiveTurnComplete})
		}
	}
}

func (s *LiveSession) emit(msg llm.LiveMessage) {
	select {
	case s.messages <- msg:
	default:
		// Avoid blocking the read loop if the caller stops consuming.
	}
}

var _ llm.LiveConn = (*LiveSession)(nil)
