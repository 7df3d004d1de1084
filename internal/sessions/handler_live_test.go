package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"interview-backend/internal/live"
	"interview-backend/internal/llm"
)

// fakeLiveConn plays back a fixed exchange: once the audio stop signal
// arrives it emits the transcript, the scripted reaction text and the
// turn-complete marker, then hangs up.
type fakeLiveConn struct {
	transcript string
	textFrames []string
	msgs       chan llm.LiveMessage
	stopOnce   sync.Once
	closeOnce  sync.Once
}

func newFakeLiveConn(transcript string, textFrames []string) *fakeLiveConn {
	return &fakeLiveConn{
		transcript: transcript,
		textFrames: textFrames,
		msgs:       make(chan llm.LiveMessage, len(textFrames)+4),
	}
}

func (c *fakeLiveConn) SendAudio(chunk []byte) error { return nil }

func (c *fakeLiveConn) SendAudioStop() error {
	c.stopOnce.Do(func() {
		c.msgs <- llm.LiveMessage{Type: llm.LiveTranscript, Text: c.transcript}
		for _, text := range c.textFrames {
			c.msgs <- llm.LiveMessage{Type: llm.LiveText, Text: text}
		}
		c.msgs <- llm.LiveMessage{Type: llm.LiveTurnComplete}
		c.closeOnce.Do(func() { close(c.msgs) })
	})
	return nil
}

func (c *fakeLiveConn) Messages() <-chan llm.LiveMessage { return c.msgs }

func (c *fakeLiveConn) Close() error {
	c.closeOnce.Do(func() { close(c.msgs) })
	return nil
}

func (c *fakeLiveConn) Err() error { return nil }

type scriptedLiveDialer struct {
	transcript string
	textFrames []string
}

func (d scriptedLiveDialer) DialLive(ctx context.Context, systemInstruction string) (llm.LiveConn, error) {
	return newFakeLiveConn(d.transcript, d.textFrames), nil
}

func TestLiveTurnWebsocket(t *testing.T) {
	transcript := "I drove the rollout across three teams."
	svc, repo, _ := newTestService(t, testUser, openingReply)
	mgr := live.NewManager(scriptedLiveDialer{
		transcript: transcript,
		textFrames: []string{"Thanks, ", "that covers it well."},
	}, time.Minute)
	router := newSessionRouter(t, NewHandler(svc, mgr, nil), false)

	created, err := svc.Create(context.Background(), testUser, "technical-lead")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + created.ID + "/live"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer ws.Close()

	if err := ws.WriteMessage(websocket.BinaryMessage, []byte("pcm-chunk-1")); err != nil {
		t.Fatalf("send audio: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)); err != nil {
		t.Fatalf("send stop: %v", err)
	}

	var reply strings.Builder
	sawComplete := false
	for !sawComplete {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame map[string]any
		if err := ws.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		switch frame["type"] {
		case "text":
			text, _ := frame["text"].(string)
			if strings.Contains(text, transcript) {
				t.Fatalf("transcript must never reach the client")
			}
			reply.WriteString(text)
		case "turn_complete":
			if frame["timedOut"] != false {
				t.Fatalf("expected timedOut=false, got %v", frame["timedOut"])
			}
			sawComplete = true
		default:
			t.Fatalf("unexpected frame: %+v", frame)
		}
	}

	if reply.String() != "Thanks, that covers it well." {
		t.Fatalf("unexpected reaction text: %q", reply.String())
	}

	// The save runs after the final frame is written, so poll for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := repo.GetByID(context.Background(), testUser, created.ID)
		if err != nil {
			t.Fatalf("reload session: %v", err)
		}
		turns := stored.QuestionSegments[0].Conversation
		if len(turns) == 3 {
			if turns[1].Text != transcript {
				t.Fatalf("expected transcript persisted, got %q", turns[1].Text)
			}
			if turns[2].Text != "Thanks, that covers it well." {
				t.Fatalf("expected reaction persisted, got %q", turns[2].Text)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("voice turn was not persisted in time, got %d turns", len(turns))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLiveTurnRejectsEndedSession(t *testing.T) {
	svc, _, _ := newTestService(t, testUser, openingReply)
	svc.Queue = &captureQueue{}
	mgr := live.NewManager(scriptedLiveDialer{}, time.Minute)
	router := newSessionRouter(t, NewHandler(svc, mgr, nil), false)

	created, err := svc.Create(context.Background(), testUser, "technical-lead")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.End(context.Background(), testUser, created.ID); err != nil {
		t.Fatalf("End: %v", err)
	}

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + created.ID + "/live"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 handshake rejection, got %+v", resp)
	}
}
