package gemini

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"interview-backend/internal/llm"
)

// liveTestServer upgrades one connection, answers the setup handshake and
// hands the socket to the given script.
func liveTestServer(t *testing.T, script func(conn *websocket.Conn, setup liveSetup)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != livePath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected key %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var setup liveSetup
		if err := conn.ReadJSON(&setup); err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		if err := conn.WriteJSON(liveServerFrame{SetupComplete: &struct{}{}}); err != nil {
			t.Errorf("write setup ack: %v", err)
			return
		}
		script(conn, setup)
	}))
}

func dialTestSession(t *testing.T, srv *httptest.Server, systemInstruction string) llm.LiveConn {
	t.Helper()
	client, err := NewClient("test-key", "gemini-2.0-flash", "gemini-2.0-flash-exp", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	conn, err := client.DialLive(context.Background(), systemInstruction)
	if err != nil {
		t.Fatalf("DialLive: %v", err)
	}
	return conn
}

func nextMessage(t *testing.T, conn llm.LiveConn) llm.LiveMessage {
	t.Helper()
	select {
	case msg, ok := <-conn.Messages():
		if !ok {
			t.Fatalf("messages channel closed early")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
	}
	return llm.LiveMessage{}
}

func TestDialLiveHandshakeAndClassification(t *testing.T) {
	setupCh := make(chan liveSetup, 1)
	srv := liveTestServer(t, func(conn *websocket.Conn, setup liveSetup) {
		setupCh <- setup
		frames := []liveServerFrame{
			{ServerContent: &liveServerContent{InputTranscription: &liveTranscription{Text: "I led the migration"}}},
			{ServerContent: &liveServerContent{ModelTurn: &geminiContent{Role: "model", Parts: []geminiPart{{Text: "Tell me "}, {Text: "more."}}}}},
			{ServerContent: &liveServerContent{TurnComplete: true}},
		}
		for _, frame := range frames {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
		// Drain until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	conn := dialTestSession(t, srv, "You are interviewing a candidate.")
	defer conn.Close()

	setup := <-setupCh
	if setup.Setup.Model != "models/gemini-2.0-flash-exp" {
		t.Fatalf("unexpected live model %q", setup.Setup.Model)
	}
	if setup.Setup.SystemInstruction == nil || setup.Setup.SystemInstruction.Parts[0].Text != "You are interviewing a candidate." {
		t.Fatalf("system instruction not forwarded: %+v", setup.Setup.SystemInstruction)
	}
	if setup.Setup.InputAudioTranscription == nil {
		t.Fatalf("expected input audio transcription to be requested")
	}

	if msg := nextMessage(t, conn); msg.Type != llm.LiveTranscript || msg.Text != "I led the migration" {
		t.Fatalf("unexpected first message: %+v", msg)
	}
	if msg := nextMessage(t, conn); msg.Type != llm.LiveText || msg.Text != "Tell me more." {
		t.Fatalf("unexpected second message: %+v", msg)
	}
	if msg := nextMessage(t, conn); msg.Type != llm.LiveTurnComplete {
		t.Fatalf("unexpected third message: %+v", msg)
	}
}

func TestLiveSendAudioAndStopFrames(t *testing.T) {
	framesCh := make(chan liveRealtimeInput, 4)
	srv := liveTestServer(t, func(conn *websocket.Conn, setup liveSetup) {
		for {
			var frame liveRealtimeInput
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			framesCh <- frame
		}
	})
	defer srv.Close()

	conn := dialTestSession(t, srv, "")
	defer conn.Close()

	if err := conn.SendAudio([]byte("pcm-bytes")); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if err := conn.SendAudioStop(); err != nil {
		t.Fatalf("SendAudioStop: %v", err)
	}

	select {
	case frame := <-framesCh:
		if len(frame.RealtimeInput.MediaChunks) != 1 {
			t.Fatalf("expected one media chunk, got %+v", frame.RealtimeInput)
		}
		chunk := frame.RealtimeInput.MediaChunks[0]
		if chunk.MIMEType != liveAudioMIMEType {
			t.Fatalf("unexpected mime type %q", chunk.MIMEType)
		}
		decoded, err := base64.StdEncoding.DecodeString(chunk.Data)
		if err != nil || string(decoded) != "pcm-bytes" {
			t.Fatalf("unexpected chunk data %q (%v)", chunk.Data, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for audio frame")
	}

	select {
	case frame := <-framesCh:
		if !frame.RealtimeInput.AudioStreamEnd {
			t.Fatalf("expected audio stream end frame, got %+v", frame.RealtimeInput)
		}
		if len(frame.RealtimeInput.MediaChunks) != 0 {
			t.Fatalf("stop frame must not carry audio: %+v", frame.RealtimeInput)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for stop frame")
	}
}

func TestLiveSendAfterCloseFails(t *testing.T) {
	srv := liveTestServer(t, func(conn *websocket.Conn, setup liveSetup) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	conn := dialTestSession(t, srv, "")
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := conn.SendAudio([]byte("late")); err == nil {
		t.Fatalf("expected send after close to fail")
	}
	// Close is idempotent.
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := conn.Err(); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
