package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/server/respond"
)

// liveWriteWait bounds how long a single websocket write may block.
const liveWriteWait = 10 * time.Second

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The auth middleware guards this route; the app frontend connects
	// cross-origin, so the origin header is not restricted here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveControl is a client-to-server control frame. Audio travels as
// binary frames; the only text frame currently defined is the stop.
type liveControl struct {
	Type string `json:"type"`
}

// liveTurn runs one voice turn over a websocket. The socket is scoped
// to the session's current question: binary frames carry the caller's
// audio, a {"type":"stop"} text frame ends the capture, and the server
// streams back the model's spoken-reaction text followed by a single
// turn_complete frame. The recognized transcript is persisted on the
// session but never sent to the client.
func (h *Handler) liveTurn(c *gin.Context) {
	if h.Live == nil {
		respond.Error(c, http.StatusServiceUnavailable, "voice_unavailable", "voice mode is not configured", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	question, err := h.Svc.CurrentQuestion(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		case errors.Is(err, ErrSessionEnded):
			respond.Error(c, http.StatusConflict, "session_ended", "this session has already ended", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open live turn", nil)
		}
		return
	}

	ws, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		log.Printf("live turn upgrade failed for session %s: %v", sessionID, err)
		return
	}
	defer ws.Close()

	turn, err := h.Live.Open(c.Request.Context(), question)
	if err != nil {
		writeLiveJSON(ws, gin.H{"type": "error", "code": "live_unavailable"})
		return
	}
	defer turn.Close()

	// Reader: the only goroutine reading the socket. A read error means
	// the client is gone, which aborts the turn.
	go func() {
		for {
			msgType, data, err := ws.ReadMessage()
			if err != nil {
				turn.Close()
				return
			}
			switch msgType {
			case websocket.BinaryMessage:
				if err := turn.SendAudioChunk(data); err != nil {
					log.Printf("live turn audio forward failed for session %s: %v", sessionID, err)
				}
			case websocket.TextMessage:
				var ctrl liveControl
				if json.Unmarshal(data, &ctrl) == nil && ctrl.Type == "stop" {
					turn.StopTurn()
				}
			}
		}
	}()

	var reply strings.Builder
	timedOut := false
eventLoop:
	for msg := range turn.Events() {
		switch msg.Type {
		case llm.LiveText:
			reply.WriteString(msg.Text)
			if err := writeLiveJSON(ws, gin.H{"type": "text", "text": msg.Text}); err != nil {
				turn.Close()
			}
		case llm.LiveTurnComplete:
			timedOut = turn.TimedOut()
			_ = writeLiveJSON(ws, gin.H{"type": "turn_complete", "timedOut": timedOut})
			break eventLoop
		}
	}

	// The websocket context dies with the handler, so the persistence
	// write runs on a fresh context carrying the request id.
	saveCtx := WithRequestID(context.Background(), middleware.RequestIDFromContext(c))
	if _, err := h.Svc.SaveVoiceTurn(saveCtx, userID, sessionID, turn.Transcript(), reply.String(), timedOut); err != nil {
		log.Printf("live turn save failed for session %s: %v", sessionID, err)
	}
}

func writeLiveJSON(ws *websocket.Conn, v any) error {
	_ = ws.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return ws.WriteJSON(v)
}
